package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"pay-chain.backend/internal/domain/entities"
)

// newTestDB opens a fresh in-memory sqlite database migrated with every
// entity this package's repositories operate on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.Quote{},
		&entities.Execution{},
		&entities.Settlement{},
		&entities.DailySpending{},
		&entities.CircuitBreakerState{},
		&entities.AuditLog{},
		&entities.TokenApproval{},
		&entities.WalletVerification{},
		&entities.User{},
		&entities.PaymentNotice{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
