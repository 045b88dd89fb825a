package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/domain/repositories"

	"pay-chain.backend/pkg/crypto"
	"pay-chain.backend/pkg/jwt"
	"pay-chain.backend/pkg/redis"
	"pay-chain.backend/pkg/utils"
)

var (
	authHashPassword      = crypto.HashPassword
	authJSONMarshal       = json.Marshal
	authRedisSet          = redis.Set
	authGenerateTokenPair = func(s *jwt.JWTService, userID uuid.UUID, email string) (*jwt.TokenPair, error) {
		return s.GenerateTokenPair(userID, email, "")
	}
)

const sessionExpiry = 7 * 24 * time.Hour

// AuthUsecase handles registration, login and password management for the
// Users that own Quotes, TokenApprovals and WalletVerifications.
type AuthUsecase struct {
	userRepo   repositories.UserRepository
	jwtService *jwt.JWTService
}

// NewAuthUsecase creates a new auth usecase.
func NewAuthUsecase(userRepo repositories.UserRepository, jwtService *jwt.JWTService) *AuthUsecase {
	return &AuthUsecase{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register creates a new user account.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.CreateUserInput) (*entities.User, error) {
	_, err := u.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, domainerrors.Conflict(domainerrors.CodeInvalidParameters, "email already registered")
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := authHashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user by email and password. When input.UseSession is
// set, an encrypted session is stored in Redis and only SessionID is
// returned; otherwise a JWT access/refresh pair is issued directly.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	user, err := u.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "invalid email or password")
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "invalid email or password")
	}

	tokenPair, err := authGenerateTokenPair(u.jwtService, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if input.UseSession {
		sessionID := utils.GenerateUUIDv7().String()
		sessionData := &redis.SessionData{
			AccessToken:  tokenPair.AccessToken,
			RefreshToken: tokenPair.RefreshToken,
		}
		jsonData, err := authJSONMarshal(sessionData)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session data: %w", err)
		}
		if err := authRedisSet(ctx, "session:"+sessionID, jsonData, sessionExpiry); err != nil {
			return nil, fmt.Errorf("failed to store session in redis: %w", err)
		}
		return &entities.AuthResponse{SessionID: sessionID, User: user}, nil
	}

	return &entities.AuthResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		User:         user,
	}, nil
}

// RefreshToken validates a refresh token and issues a new token pair.
func (u *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "invalid refresh token")
	}

	user, err := u.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return authGenerateTokenPair(u.jwtService, user.ID, user.Email)
}

// GetUserByID looks up a user by ID.
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// GetTokenExpiry returns a token's exp claim as a unix timestamp.
func (u *AuthUsecase) GetTokenExpiry(token string) (int64, error) {
	claims, err := u.jwtService.ValidateToken(token)
	if err != nil {
		return 0, err
	}
	if claims.RegisteredClaims.ExpiresAt == nil {
		return 0, fmt.Errorf("token missing exp claim")
	}
	return claims.RegisteredClaims.ExpiresAt.Time.Unix(), nil
}

// ChangePassword updates a user's password after verifying the current one.
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID uuid.UUID, input *entities.ChangePasswordInput) error {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.CheckPassword(input.CurrentPassword, user.PasswordHash) {
		return domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "current password is incorrect")
	}

	newPasswordHash, err := crypto.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	return u.userRepo.UpdatePassword(ctx, userID, newPasswordHash)
}
