package repositories

import (
	"context"

	"pay-chain.backend/internal/domain/entities"
)

// AuditLogRepository appends AuditLog rows. There is no Update or Delete:
// the table is append-only by contract, not merely by convention.
type AuditLogRepository interface {
	Log(ctx context.Context, entry *entities.AuditLog) error
}
