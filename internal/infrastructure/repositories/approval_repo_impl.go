package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// TokenApprovalRepositoryImpl implements repositories.TokenApprovalRepository.
type TokenApprovalRepositoryImpl struct {
	db *gorm.DB
}

func NewTokenApprovalRepository(db *gorm.DB) *TokenApprovalRepositoryImpl {
	return &TokenApprovalRepositoryImpl{db: db}
}

func (r *TokenApprovalRepositoryImpl) Create(ctx context.Context, approval *entities.TokenApproval) error {
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	now := time.Now()
	approval.CreatedAt = now
	approval.UpdatedAt = now
	err := GetDB(ctx, r.db).WithContext(ctx).Create(approval).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrNonceReused
	}
	return err
}

func (r *TokenApprovalRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.TokenApproval, error) {
	var a entities.TokenApproval
	err := GetDB(ctx, r.db).WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *TokenApprovalRepositoryImpl) GetByNonce(ctx context.Context, nonce string) (*entities.TokenApproval, error) {
	var a entities.TokenApproval
	err := GetDB(ctx, r.db).WithContext(ctx).First(&a, "nonce = ?", entities.NormalizeNonce(nonce)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *TokenApprovalRepositoryImpl) CountLiveByQuote(ctx context.Context, quoteID uuid.UUID) (int64, error) {
	live := make([]entities.ApprovalStatus, 0, len(entities.LiveApprovalStatuses))
	for s := range entities.LiveApprovalStatuses {
		live = append(live, s)
	}
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.TokenApproval{}).
		Where("quote_id = ? AND status IN ?", quoteID, live).
		Count(&count).Error
	return count, err
}

func (r *TokenApprovalRepositoryImpl) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to entities.ApprovalStatus) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.TokenApproval{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TokenApprovalRepositoryImpl) Update(ctx context.Context, approval *entities.TokenApproval) error {
	approval.UpdatedAt = time.Now()
	return GetDB(ctx, r.db).WithContext(ctx).Save(approval).Error
}

// WalletVerificationRepositoryImpl implements
// repositories.WalletVerificationRepository.
type WalletVerificationRepositoryImpl struct {
	db *gorm.DB
}

func NewWalletVerificationRepository(db *gorm.DB) *WalletVerificationRepositoryImpl {
	return &WalletVerificationRepositoryImpl{db: db}
}

func (r *WalletVerificationRepositoryImpl) Create(ctx context.Context, wv *entities.WalletVerification) error {
	if wv.ID == uuid.Nil {
		wv.ID = uuid.New()
	}
	wv.CreatedAt = time.Now()
	return GetDB(ctx, r.db).WithContext(ctx).Create(wv).Error
}

func (r *WalletVerificationRepositoryImpl) GetPending(ctx context.Context, userID uuid.UUID, chain entities.Chain, address string) (*entities.WalletVerification, error) {
	var wv entities.WalletVerification
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND chain = ? AND address = ? AND status = ?", userID, chain, address, entities.WalletVerificationPending).
		Order("created_at DESC").
		First(&wv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wv, nil
}

func (r *WalletVerificationRepositoryImpl) GetVerified(ctx context.Context, userID uuid.UUID, chain entities.Chain, address string) (*entities.WalletVerification, error) {
	var wv entities.WalletVerification
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND chain = ? AND address = ? AND status = ?", userID, chain, address, entities.WalletVerificationVerified).
		First(&wv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wv, nil
}

func (r *WalletVerificationRepositoryImpl) MarkVerified(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.WalletVerification{}).
		Where("id = ? AND status = ?", id, entities.WalletVerificationPending).
		Updates(map[string]interface{}{"status": entities.WalletVerificationVerified, "verified_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
