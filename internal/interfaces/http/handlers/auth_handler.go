package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/pkg/jwt"
	"pay-chain.backend/pkg/redis"
	"pay-chain.backend/pkg/utils"
)

type AuthService interface {
	Register(ctx context.Context, input *entities.CreateUserInput) (*entities.User, error)
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetTokenExpiry(token string) (int64, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input *entities.ChangePasswordInput) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase  AuthService
	sessionStore SessionStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase AuthService, sessionStore SessionStore) *AuthHandler {
	return &AuthHandler{
		authUsecase:  authUsecase,
		sessionStore: sessionStore,
	}
}

const sessionCookieExpiry = 7 * 24 * time.Hour

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.CreateUserInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	authResponse, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	sessionID := utils.GenerateUUIDv7().String()
	sessionData := &redis.SessionData{
		AccessToken:  authResponse.AccessToken,
		RefreshToken: authResponse.RefreshToken,
	}
	if err := h.sessionStore.CreateSession(c.Request.Context(), sessionID, sessionData, sessionCookieExpiry); err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	c.SetCookie("session_id", sessionID, int(sessionCookieExpiry.Seconds()), "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
		"user": gin.H{
			"id":    authResponse.User.ID,
			"email": authResponse.User.Email,
			"name":  authResponse.User.Name,
		},
	})
}

// RefreshToken handles token refresh
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var refreshToken string
	strictSessionMode := os.Getenv("INTERNAL_PROXY_SECRET") != ""

	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" && !strictSessionMode {
		sessionID, _ = c.Cookie("session_id")
	}
	if sessionID != "" && middleware.IsTrustedProxyRequest(c) {
		if session, sessErr := h.sessionStore.GetSession(c.Request.Context(), sessionID); sessErr == nil && session != nil {
			refreshToken = session.RefreshToken
		}
	}

	if refreshToken == "" && !strictSessionMode && c.Request.ContentLength > 0 {
		var input struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&input); err == nil {
			refreshToken = input.RefreshToken
		}
	}

	if refreshToken == "" && !strictSessionMode {
		if cookie, err := c.Cookie("refresh_token"); err == nil {
			refreshToken = cookie
		}
	}

	if refreshToken == "" {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "refresh token is required"))
		return
	}

	tokenPair, err := h.authUsecase.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	if sessionID == "" && !strictSessionMode {
		if cookieSessionID, cookieErr := c.Cookie("session_id"); cookieErr == nil && cookieSessionID != "" {
			sessionID = cookieSessionID
		}
	}
	if sessionID == "" {
		sessionID = utils.GenerateUUIDv7().String()
	}

	newData := &redis.SessionData{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	}
	if err := h.sessionStore.CreateSession(c.Request.Context(), sessionID, newData, sessionCookieExpiry); err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	c.SetCookie("session_id", sessionID, int(sessionCookieExpiry.Seconds()), "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"sessionId": sessionID,
	})
}

// GetMe returns current authenticated user details
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	val, exists := c.Get(middleware.UserIDKey)
	if !exists {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "unauthorized"))
		return
	}

	userID, ok := val.(uuid.UUID)
	if !ok {
		response.Error(c, domainerrors.InternalError(nil))
		return
	}

	user, err := h.authUsecase.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Logout handles user logout
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie("session_id")
	if err == nil && sessionID != "" {
		_ = h.sessionStore.DeleteSession(c.Request.Context(), sessionID)
	}

	c.SetCookie("session_id", "", -1, "/", "", false, true)

	response.Success(c, http.StatusOK, gin.H{
		"message": "logged out successfully",
	})
}

// ChangePassword handles changing password for authenticated user.
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	val, exists := c.Get(middleware.UserIDKey)
	if !exists {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "unauthorized"))
		return
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		response.Error(c, domainerrors.InternalError(nil))
		return
	}

	var input entities.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}
	if input.CurrentPassword == input.NewPassword {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "new password must be different from current password"))
		return
	}

	if err := h.authUsecase.ChangePassword(c.Request.Context(), userID, &input); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "password changed successfully",
	})
}

// GetSessionExpiry returns current access token expiry from Redis session.
// GET /api/v1/auth/session-expiry
func (h *AuthHandler) GetSessionExpiry(c *gin.Context) {
	sessionID := c.GetHeader("X-Session-Id")
	strictSessionMode := os.Getenv("INTERNAL_PROXY_SECRET") != ""
	if sessionID == "" && !strictSessionMode {
		sessionID, _ = c.Cookie("session_id")
	}
	if sessionID == "" {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "no session"))
		return
	}
	if !middleware.IsTrustedProxyRequest(c) {
		response.Error(c, domainerrors.Forbidden(domainerrors.CodeInvalidParameters, "invalid proxy request"))
		return
	}

	session, err := h.sessionStore.GetSession(c.Request.Context(), sessionID)
	if err != nil || session == nil || session.AccessToken == "" {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "invalid session"))
		return
	}

	exp, err := h.authUsecase.GetTokenExpiry(session.AccessToken)
	if err != nil {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "invalid session token"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exp": exp})
}
