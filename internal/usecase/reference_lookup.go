package usecase

import (
	"context"
	"fmt"

	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/utils"
)

// ReferenceLookup answers which regulatory references an mrn affects, unioning the
// transit path and the customs declaration path.
type ReferenceLookup struct {
	transitRepo repository.TransitRecordRepository
	customsRepo repository.CustomsDeclarationRepository
}

// NewReferenceLookup creates a new reference lookup
func NewReferenceLookup(transitRepo repository.TransitRecordRepository, customsRepo repository.CustomsDeclarationRepository) *ReferenceLookup {
	return &ReferenceLookup{
		transitRepo: transitRepo,
		customsRepo: customsRepo,
	}
}

// ReferencesByMrn returns the distinct, sorted references of each mrn that has any
func (l *ReferenceLookup) ReferencesByMrn(ctx context.Context, mrns []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(mrns) == 0 {
		return result, nil
	}

	records, err := l.transitRepo.FindByMrns(ctx, mrns)
	if err != nil {
		return nil, fmt.Errorf("failed to find transit records: %w", err)
	}
	for _, rec := range records {
		result[rec.Mrn] = append(result[rec.Mrn], rec.ReferenceNumber)
	}

	declarations, err := l.customsRepo.FindByMrns(ctx, mrns)
	if err != nil {
		return nil, fmt.Errorf("failed to find customs declarations: %w", err)
	}
	for _, d := range declarations {
		result[d.Mrn] = append(result[d.Mrn], d.References...)
	}

	for mrn, refs := range result {
		result[mrn] = utils.NormalizeReferences(refs)
	}
	return result, nil
}

// References returns the distinct, sorted references affected by any of the mrns
func (l *ReferenceLookup) References(ctx context.Context, mrns []string) ([]string, error) {
	byMrn, err := l.ReferencesByMrn(ctx, mrns)
	if err != nil {
		return nil, err
	}

	var all []string
	for _, refs := range byMrn {
		all = append(all, refs...)
	}
	return utils.UniqueStrings(all), nil
}

// MrnsForReference returns the mrns linked to a reference through customs declarations
func (l *ReferenceLookup) MrnsForReference(ctx context.Context, referenceNumber string) ([]string, error) {
	declarations, err := l.customsRepo.FindByReference(ctx, referenceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find customs declarations for %s: %w", referenceNumber, err)
	}

	mrns := make([]string, 0, len(declarations))
	for _, d := range declarations {
		mrns = append(mrns, d.Mrn)
	}
	return utils.UniqueStrings(mrns), nil
}
