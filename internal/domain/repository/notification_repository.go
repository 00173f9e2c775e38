package repository

import (
	"context"

	"movement-hold-service/internal/domain/entity"
)

// NotificationRepository defines the interface for the outbound messaging collaborator
type NotificationRepository interface {
	SendBatch(ctx context.Context, destination string, messages []entity.OutboundMessage) error
}
