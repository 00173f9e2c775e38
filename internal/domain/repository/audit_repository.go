package repository

import (
	"context"
	"time"

	"movement-hold-service/internal/domain/entity"
)

// AuditRepository defines the interface for the append-only audit log
type AuditRepository interface {
	Insert(ctx context.Context, record *entity.AuditRecord) error
	FindByMessageType(ctx context.Context, messageType string, since time.Time) ([]*entity.AuditRecord, error)
}
