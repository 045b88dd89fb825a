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

// SettlementRepositoryImpl implements repositories.SettlementRepository.
// Create relies on UNIQUE(execution_id), translated the same way
// ExecutionRepositoryImpl does for its own unique constraint.
type SettlementRepositoryImpl struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepositoryImpl {
	return &SettlementRepositoryImpl{db: db}
}

func (r *SettlementRepositoryImpl) Create(ctx context.Context, s *entities.Settlement) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	err := GetDB(ctx, r.db).WithContext(ctx).Create(s).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func (r *SettlementRepositoryImpl) GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*entities.Settlement, error) {
	var s entities.Settlement
	err := GetDB(ctx, r.db).WithContext(ctx).First(&s, "execution_id = ?", executionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
