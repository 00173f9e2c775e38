package repository

import (
	"context"

	"movement-hold-service/internal/domain/entity"
)

// Every UpsertIfNewer below is a single atomic conditional write: the stored document is
// replaced only when it has no timestamp or an older one, and is created when absent.
// It returns the document as it was before the write, or nil if there was none.

// MovementRepository defines the interface for movement snapshot storage
type MovementRepository interface {
	UpsertIfNewer(ctx context.Context, movement *entity.Movement) (*entity.Movement, error)
	FindByID(ctx context.Context, movementID string) (*entity.Movement, error)
	SetHold(ctx context.Context, movementID string, hold bool) error
}

// MovementEtaRepository defines the interface for arrival-time snapshot storage
type MovementEtaRepository interface {
	UpsertIfNewer(ctx context.Context, eta *entity.MovementEta) (*entity.MovementEta, error)
	FindByID(ctx context.Context, movementID string) (*entity.MovementEta, error)
}

// MovementMatchRepository defines the interface for movement to mrn matches
type MovementMatchRepository interface {
	UpsertIfNewer(ctx context.Context, match *entity.MovementMatch) (*entity.MovementMatch, error)
	FindByMovementID(ctx context.Context, movementID string) ([]*entity.MovementMatch, error)
	FindByMrns(ctx context.Context, mrns []string) ([]*entity.MovementMatch, error)
}
