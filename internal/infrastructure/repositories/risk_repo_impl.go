package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// DailySpendingRepositoryImpl implements repositories.DailySpendingRepository
// with an upsert-by-(chain,date) using GORM's clause.OnConflict rather than
// a manual SELECT-then-UPDATE race.
type DailySpendingRepositoryImpl struct {
	db *gorm.DB
}

func NewDailySpendingRepository(db *gorm.DB) *DailySpendingRepositoryImpl {
	return &DailySpendingRepositoryImpl{db: db}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *DailySpendingRepositoryImpl) IncrementSpending(ctx context.Context, chain entities.Chain, date time.Time, amount decimal.Decimal) error {
	row := &entities.DailySpending{
		ID:               uuid.New(),
		Chain:            chain,
		Date:             dateOnly(date),
		AmountSpent:      amount,
		TransactionCount: 1,
		UpdatedAt:        time.Now(),
	}
	return GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chain"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount_spent":      gorm.Expr("amount_spent + ?", amount),
				"transaction_count": gorm.Expr("transaction_count + 1"),
				"updated_at":        time.Now(),
			}),
		}).Create(row).Error
}

func (r *DailySpendingRepositoryImpl) Get(ctx context.Context, chain entities.Chain, date time.Time) (*entities.DailySpending, error) {
	var ds entities.DailySpending
	err := GetDB(ctx, r.db).WithContext(ctx).
		First(&ds, "chain = ? AND date = ?", chain, dateOnly(date)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.DailySpending{Chain: chain, Date: dateOnly(date), AmountSpent: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *DailySpendingRepositoryImpl) SumSince(ctx context.Context, chain entities.Chain, since time.Time) (decimal.Decimal, error) {
	var rows []entities.DailySpending
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("chain = ? AND date >= ?", chain, dateOnly(since)).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.AmountSpent)
	}
	return total, nil
}

// CircuitBreakerRepositoryImpl implements repositories.CircuitBreakerRepository.
// At most one active row per chain is enforced by a partial unique index on
// (chain) WHERE resolved_at IS NULL; Trigger relies on that constraint the
// same way Execution relies on UNIQUE(quote_id).
type CircuitBreakerRepositoryImpl struct {
	db *gorm.DB
}

func NewCircuitBreakerRepository(db *gorm.DB) *CircuitBreakerRepositoryImpl {
	return &CircuitBreakerRepositoryImpl{db: db}
}

func (r *CircuitBreakerRepositoryImpl) GetActive(ctx context.Context, chain entities.Chain) (*entities.CircuitBreakerState, error) {
	var cb entities.CircuitBreakerState
	err := GetDB(ctx, r.db).WithContext(ctx).
		First(&cb, "chain = ? AND resolved_at IS NULL", chain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cb, nil
}

func (r *CircuitBreakerRepositoryImpl) Trigger(ctx context.Context, chain entities.Chain, reason string) (*entities.CircuitBreakerState, error) {
	if existing, err := r.GetActive(ctx, chain); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	cb := &entities.CircuitBreakerState{
		ID:          uuid.New(),
		Chain:       chain,
		TriggeredAt: time.Now(),
		Reason:      reason,
	}
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(cb).Error; err != nil {
		if isUniqueViolation(err) {
			return r.GetActive(ctx, chain)
		}
		return nil, err
	}
	return cb, nil
}

func (r *CircuitBreakerRepositoryImpl) Resolve(ctx context.Context, chain entities.Chain) error {
	now := time.Now()
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&entities.CircuitBreakerState{}).
		Where("chain = ? AND resolved_at IS NULL", chain).
		Update("resolved_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
