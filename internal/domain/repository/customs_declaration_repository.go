package repository

import (
	"context"

	"movement-hold-service/internal/domain/entity"
)

// CustomsDeclarationRepository defines the interface for customs declaration reference lists
type CustomsDeclarationRepository interface {
	// ReplaceIfNewer writes all declarations in one bulk operation. Each one replaces the
	// stored reference list for its mrn only if it is newer.
	ReplaceIfNewer(ctx context.Context, declarations []*entity.CustomsDeclaration) error
	FindByMrns(ctx context.Context, mrns []string) ([]*entity.CustomsDeclaration, error)
	FindByReference(ctx context.Context, referenceNumber string) ([]*entity.CustomsDeclaration, error)
}
