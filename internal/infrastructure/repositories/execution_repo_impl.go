package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// ExecutionRepositoryImpl implements repositories.ExecutionRepository.
// Create relies on the unique index on quote_id; any unique-constraint
// violation (Postgres 23505, or SQLite's generic "UNIQUE constraint
// failed" used by the in-memory test DB) is translated to
// ErrDuplicateExecution, treating the uniqueness violation as a first-class
// control-flow signal rather than an unexpected error.
type ExecutionRepositoryImpl struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepositoryImpl {
	return &ExecutionRepositoryImpl{db: db}
}

func (r *ExecutionRepositoryImpl) Create(ctx context.Context, exec *entities.Execution) error {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	now := time.Now()
	exec.CreatedAt = now
	exec.UpdatedAt = now
	err := GetDB(ctx, r.db).WithContext(ctx).Create(exec).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateExecution
		}
		return err
	}
	return nil
}

func (r *ExecutionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Execution, error) {
	var e entities.Execution
	err := GetDB(ctx, r.db).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExecutionRepositoryImpl) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*entities.Execution, error) {
	var e entities.Execution
	err := GetDB(ctx, r.db).WithContext(ctx).First(&e, "quote_id = ?", quoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExecutionRepositoryImpl) Complete(ctx context.Context, id uuid.UUID, status entities.ExecutionStatus, txHash string, gasUsed *uint64, errMsg string) error {
	now := time.Now()
	return GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.Execution{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"transaction_hash": txHash,
			"gas_used":         gasUsed,
			"error_message":    errMsg,
			"completed_at":     now,
			"updated_at":       now,
		}).Error
}

// isUniqueViolation recognizes both Postgres' pgconn error and SQLite's
// generic driver message, since the Ledger's unit tests run on sqlite.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
