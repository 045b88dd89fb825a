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

// PaymentNoticeRepositoryImpl implements repositories.PaymentNoticeRepository.
// Create relies on UNIQUE(tx_hash): a replayed webhook call surfaces as
// ErrAlreadyExists rather than enqueuing a second dispatch.
type PaymentNoticeRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentNoticeRepository(db *gorm.DB) *PaymentNoticeRepositoryImpl {
	return &PaymentNoticeRepositoryImpl{db: db}
}

func (r *PaymentNoticeRepositoryImpl) Create(ctx context.Context, notice *entities.PaymentNotice) error {
	if notice.ID == uuid.Nil {
		notice.ID = uuid.New()
	}
	notice.CreatedAt = time.Now()
	err := GetDB(ctx, r.db).WithContext(ctx).Create(notice).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func (r *PaymentNoticeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentNotice, error) {
	var n entities.PaymentNotice
	err := GetDB(ctx, r.db).WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PaymentNoticeRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.PaymentNoticeStatus, quoteID *uuid.UUID, errMsg string) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errMsg,
		"processed_at":  time.Now(),
	}
	if quoteID != nil {
		updates["quote_id"] = *quoteID
	}
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.PaymentNotice{}).
		Where("id = ?", id).
		Updates(updates).Error
}
