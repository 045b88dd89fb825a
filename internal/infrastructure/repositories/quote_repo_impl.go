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

// QuoteRepositoryImpl implements repositories.QuoteRepository on GORM.
// Repository-per-entity with context-first methods, built on top of
// GetDB(ctx, fallback) so the CAS update in UpdateStatusCAS participates
// in the ambient transaction opened by UnitOfWorkImpl.Do.
type QuoteRepositoryImpl struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepositoryImpl {
	return &QuoteRepositoryImpl{db: db}
}

func (r *QuoteRepositoryImpl) Create(ctx context.Context, quote *entities.Quote) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(quote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *QuoteRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Quote, error) {
	var q entities.Quote
	err := GetDB(ctx, r.db).WithContext(ctx).First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuoteRepositoryImpl) GetByNonce(ctx context.Context, nonce string) (*entities.Quote, error) {
	var q entities.Quote
	err := GetDB(ctx, r.db).WithContext(ctx).First(&q, "nonce = ?", entities.NormalizeNonce(nonce)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateStatusCAS is the single primitive that prevents double execution
// and races: it only updates the row when its current status equals from.
func (r *QuoteRepositoryImpl) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to entities.QuoteStatus) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Quote{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *QuoteRepositoryImpl) ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var ids []uuid.UUID
	err := db.Model(&entities.Quote{}).
		Where("status IN ? AND expires_at < ?", []entities.QuoteStatus{entities.QuoteStatusPending, entities.QuoteStatusCommitted}, now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err = db.Model(&entities.Quote{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": entities.QuoteStatusExpired, "updated_at": now}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
