package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/utils"
)

// CustomsDeclarationProcessor replaces the reference lists declared against mrns and
// re-reconciles the movements matched to them.
type CustomsDeclarationProcessor struct {
	customsRepo repository.CustomsDeclarationRepository
	matchRepo   repository.MovementMatchRepository
	reconciler  Reconciler
	logger      logger.Logger
}

// NewCustomsDeclarationProcessor creates a new customs declaration processor
func NewCustomsDeclarationProcessor(
	customsRepo repository.CustomsDeclarationRepository,
	matchRepo repository.MovementMatchRepository,
	reconciler Reconciler,
	logger logger.Logger,
) *CustomsDeclarationProcessor {
	return &CustomsDeclarationProcessor{
		customsRepo: customsRepo,
		matchRepo:   matchRepo,
		reconciler:  reconciler,
		logger:      logger,
	}
}

// CanHandle implements ResourceHandler
func (p *CustomsDeclarationProcessor) CanHandle(resourceType string) bool {
	return resourceType == entity.ResourceTypeCustomsDeclaration
}

// Handle implements ResourceHandler
func (p *CustomsDeclarationProcessor) Handle(ctx context.Context, body []byte) error {
	var event entity.CustomsDeclarationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &DecodeError{ResourceType: entity.ResourceTypeCustomsDeclaration, Err: err}
	}
	for i, item := range event.Declarations {
		if utils.NormalizeReference(item.Mrn) == "" {
			return decodeError(entity.ResourceTypeCustomsDeclaration, "declarations[%d].mrn is required", i)
		}
		if item.LastUpdated.IsZero() {
			return decodeError(entity.ResourceTypeCustomsDeclaration, "declarations[%d].lastUpdated is required", i)
		}
	}
	return p.Process(ctx, &event)
}

// Process stores every declaration of the event in one bulk write. Each declaration fully
// replaces the references of its mrn when it is newer than the stored one.
func (p *CustomsDeclarationProcessor) Process(ctx context.Context, event *entity.CustomsDeclarationEvent) error {
	if len(event.Declarations) == 0 {
		p.logger.Debug("Customs declaration event without declarations")
		return nil
	}

	declarations := make([]*entity.CustomsDeclaration, 0, len(event.Declarations))
	mrns := make([]string, 0, len(event.Declarations))
	for _, item := range event.Declarations {
		mrn := utils.NormalizeReference(item.Mrn)
		declarations = append(declarations, &entity.CustomsDeclaration{
			Mrn:        mrn,
			References: utils.NormalizeReferences(item.References),
			UpdatedAt:  utils.StoreTime(item.LastUpdated),
		})
		mrns = append(mrns, mrn)
	}

	if err := p.customsRepo.ReplaceIfNewer(ctx, declarations); err != nil {
		return err
	}

	matches, err := p.matchRepo.FindByMrns(ctx, utils.UniqueStrings(mrns))
	if err != nil {
		return fmt.Errorf("failed to find matches for customs declarations: %w", err)
	}
	if len(matches) == 0 {
		return nil
	}

	p.logger.Info("Customs declarations updated, reconciling matched movements",
		"mrns", len(mrns),
		"movements", len(matches))
	return reconcileMovements(ctx, p.reconciler, matches)
}
