package repository

import (
	"context"

	"movement-hold-service/internal/domain/entity"
)

// TransitRecordRepository defines the interface for regulatory reference records
type TransitRecordRepository interface {
	UpsertIfNewer(ctx context.Context, record *entity.TransitRecord) (*entity.TransitRecord, error)
	FindByReferenceNumbers(ctx context.Context, referenceNumbers []string) ([]*entity.TransitRecord, error)
	FindByMrns(ctx context.Context, mrns []string) ([]*entity.TransitRecord, error)
}
