package repository

import (
	"context"
	"errors"
)

// ErrMovementNotFound is returned when the hold action target does not know the movement.
var ErrMovementNotFound = errors.New("movement not found")

// HoldActionRepository defines the interface for the external hold/release action
type HoldActionRepository interface {
	SetHold(ctx context.Context, movementID string, hold bool) error
}
