package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/utils"
)

// PreNotificationProcessor keeps transit records current and re-reconciles the holds of
// matched movements when a reference's override requirement changes.
type PreNotificationProcessor struct {
	transitRepo repository.TransitRecordRepository
	matchRepo   repository.MovementMatchRepository
	lookup      *ReferenceLookup
	reconciler  Reconciler
	logger      logger.Logger
}

// NewPreNotificationProcessor creates a new pre-notification processor
func NewPreNotificationProcessor(
	transitRepo repository.TransitRecordRepository,
	matchRepo repository.MovementMatchRepository,
	lookup *ReferenceLookup,
	reconciler Reconciler,
	logger logger.Logger,
) *PreNotificationProcessor {
	return &PreNotificationProcessor{
		transitRepo: transitRepo,
		matchRepo:   matchRepo,
		lookup:      lookup,
		reconciler:  reconciler,
		logger:      logger,
	}
}

// CanHandle implements ResourceHandler
func (p *PreNotificationProcessor) CanHandle(resourceType string) bool {
	return resourceType == entity.ResourceTypePreNotification
}

// Handle implements ResourceHandler
func (p *PreNotificationProcessor) Handle(ctx context.Context, body []byte) error {
	var event entity.PreNotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &DecodeError{ResourceType: entity.ResourceTypePreNotification, Err: err}
	}
	if strings.TrimSpace(event.ReferenceNumber) == "" {
		return decodeError(entity.ResourceTypePreNotification, "referenceNumber is required")
	}
	if event.LastUpdated.IsZero() {
		return decodeError(entity.ResourceTypePreNotification, "lastUpdated is required")
	}
	return p.Process(ctx, &event)
}

// Process correlates one pre-notification
func (p *PreNotificationProcessor) Process(ctx context.Context, event *entity.PreNotificationEvent) error {
	reference := utils.NormalizeReference(event.ReferenceNumber)
	log := p.logger.With("referenceNumber", reference)

	transit := DetectTransit(event)
	if !transit.Valid {
		log.Info("Pre-notification not correlated", "indicator", event.Transit.Indicator, "reason", transit.Reason)
		return nil
	}
	if !transit.IsTransit && transit.Reason != "" {
		log.Info("Pre-notification is not a resolved transit", "reason", transit.Reason)
	}

	record := &entity.TransitRecord{
		ReferenceNumber:  reference,
		Mrn:              transit.Mrn,
		OverrideRequired: IsOverrideRequired(event.Status, event.InspectionRequired),
		UpdatedAt:        utils.StoreTime(event.LastUpdated),
	}

	previous, err := p.transitRepo.UpsertIfNewer(ctx, record)
	if err != nil {
		return err
	}

	if previous != nil && previous.UpdatedAt.After(record.UpdatedAt) {
		log.Debug("Stale pre-notification ignored",
			"storedUpdatedAt", previous.UpdatedAt,
			"incomingUpdatedAt", record.UpdatedAt)
		return nil
	}

	// An equal timestamp is a redelivery: the first attempt may have failed after the
	// write, so reconcile again. ReconcileHold is a no-op when nothing changed.
	redelivered := previous != nil && previous.UpdatedAt.Equal(record.UpdatedAt)
	if !redelivered && !overrideChanged(previous, record) {
		return nil
	}

	mrns := []string{record.Mrn}
	if previous != nil {
		mrns = append(mrns, previous.Mrn)
	}
	declared, err := p.lookup.MrnsForReference(ctx, reference)
	if err != nil {
		return err
	}
	mrns = utils.NormalizeReferences(append(mrns, declared...))

	matches, err := p.matchRepo.FindByMrns(ctx, mrns)
	if err != nil {
		return fmt.Errorf("failed to find matches for %s: %w", reference, err)
	}
	if len(matches) == 0 {
		log.Info("No movement matched yet",
			"overrideRequired", record.OverrideRequired,
			"mrns", mrns)
		return nil
	}

	log.Info("Reconciling matched movements",
		"overrideRequired", record.OverrideRequired,
		"redelivered", redelivered,
		"movements", len(matches))
	return reconcileMovements(ctx, p.reconciler, matches)
}

// overrideChanged reports whether an accepted write changed what the record contributes
// to a hold decision. A first sighting counts only when it requires an override, since a
// missing record already counts as not required.
func overrideChanged(previous, current *entity.TransitRecord) bool {
	if previous == nil {
		return current.OverrideRequired
	}
	if previous.OverrideRequired != current.OverrideRequired {
		return true
	}
	return previous.Mrn != current.Mrn && (previous.OverrideRequired || current.OverrideRequired)
}

// reconcileMovements reconciles every distinct movement of matches. It keeps going after
// a failure and returns all failures joined.
func reconcileMovements(ctx context.Context, reconciler Reconciler, matches []*entity.MovementMatch) error {
	seen := make(map[string]struct{}, len(matches))
	var errs []error
	for _, m := range matches {
		if _, ok := seen[m.MovementID]; ok {
			continue
		}
		seen[m.MovementID] = struct{}{}

		if _, err := reconciler.ReconcileHold(ctx, m.MovementID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
