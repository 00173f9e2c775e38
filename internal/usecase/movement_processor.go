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

// MovementProcessor stores movement snapshots, keeps movement to mrn matches current and
// drives hold reconciliation and arrival-time notification from them.
type MovementProcessor struct {
	movementRepo repository.MovementRepository
	matchRepo    repository.MovementMatchRepository
	lookup       *ReferenceLookup
	reconciler   Reconciler
	etaNotifier  *EtaNotifier
	publisher    *NotificationPublisher
	logger       logger.Logger
}

// NewMovementProcessor creates a new movement processor
func NewMovementProcessor(
	movementRepo repository.MovementRepository,
	matchRepo repository.MovementMatchRepository,
	lookup *ReferenceLookup,
	reconciler Reconciler,
	etaNotifier *EtaNotifier,
	publisher *NotificationPublisher,
	logger logger.Logger,
) *MovementProcessor {
	return &MovementProcessor{
		movementRepo: movementRepo,
		matchRepo:    matchRepo,
		lookup:       lookup,
		reconciler:   reconciler,
		etaNotifier:  etaNotifier,
		publisher:    publisher,
		logger:       logger,
	}
}

// CanHandle implements ResourceHandler
func (p *MovementProcessor) CanHandle(resourceType string) bool {
	return resourceType == entity.ResourceTypeMovement
}

// Handle implements ResourceHandler
func (p *MovementProcessor) Handle(ctx context.Context, body []byte) error {
	var event entity.MovementEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &DecodeError{ResourceType: entity.ResourceTypeMovement, Err: err}
	}
	if strings.TrimSpace(event.MovementID) == "" {
		return decodeError(entity.ResourceTypeMovement, "movementId is required")
	}
	if event.UpdatedDateTime.IsZero() {
		return decodeError(entity.ResourceTypeMovement, "updatedDateTime is required")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &DecodeError{ResourceType: entity.ResourceTypeMovement, Err: err}
	}

	return p.Process(ctx, &event, payload)
}

// Process handles one movement snapshot. A strictly older snapshot is dropped. A snapshot
// with the stored timestamp is a redelivery and runs the remaining steps again; each of
// them is safe to repeat.
func (p *MovementProcessor) Process(ctx context.Context, event *entity.MovementEvent, payload map[string]interface{}) error {
	log := p.logger.With("movementId", event.MovementID, "state", event.State)

	movement := &entity.Movement{
		MovementID: event.MovementID,
		State:      event.State,
		Payload:    payload,
		UpdatedAt:  utils.StoreTime(event.UpdatedDateTime),
	}

	previous, err := p.movementRepo.UpsertIfNewer(ctx, movement)
	if err != nil {
		return err
	}

	if previous != nil && previous.UpdatedAt.After(movement.UpdatedAt) {
		log.Debug("Stale movement snapshot ignored",
			"storedUpdatedAt", previous.UpdatedAt,
			"incomingUpdatedAt", movement.UpdatedAt)
		return nil
	}
	if previous != nil && previous.UpdatedAt.Equal(movement.UpdatedAt) {
		log.Debug("Redelivered movement snapshot, resuming")
	}

	mrns := utils.NormalizeReferences(event.Declarations.Mrns)

	newMrns, err := p.syncMatches(ctx, movement, mrns)
	if err != nil {
		return err
	}

	// Hold placement and arrival notification are independent; one failing must not
	// keep the other from running.
	var errs []error
	if _, err := p.reconciler.ReconcileHold(ctx, event.MovementID); err != nil {
		errs = append(errs, err)
	}

	if strings.EqualFold(event.State, entity.MovementStateEmbarked) {
		if _, err := p.etaNotifier.Notify(ctx, event, mrns); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	log.Info("Movement snapshot processed", "mrns", mrns, "newMatches", len(newMrns))
	return nil
}

// syncMatches publishes match notifications for mrns the movement was not matched to yet,
// then writes one match per mrn stamped with the snapshot timestamp. A match is only
// written after its notification went out, so a failed publish is retried on redelivery.
// It returns the newly matched mrns.
func (p *MovementProcessor) syncMatches(ctx context.Context, movement *entity.Movement, mrns []string) ([]string, error) {
	existing, err := p.matchRepo.FindByMovementID(ctx, movement.MovementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for %s: %w", movement.MovementID, err)
	}
	matched := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		matched[m.Mrn] = struct{}{}
	}

	var created []string
	for _, mrn := range mrns {
		if _, ok := matched[mrn]; !ok {
			created = append(created, mrn)
		}
	}

	if err := p.notifyMatches(ctx, movement, created); err != nil {
		return nil, err
	}

	for _, mrn := range mrns {
		if _, err := p.matchRepo.UpsertIfNewer(ctx, entity.NewMovementMatch(movement.MovementID, mrn, movement.UpdatedAt)); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (p *MovementProcessor) notifyMatches(ctx context.Context, movement *entity.Movement, mrns []string) error {
	if len(mrns) == 0 {
		return nil
	}

	byMrn, err := p.lookup.ReferencesByMrn(ctx, mrns)
	if err != nil {
		return fmt.Errorf("failed to resolve references for new matches: %w", err)
	}

	var notifications []entity.MatchNotification
	for _, mrn := range mrns {
		for _, ref := range byMrn[mrn] {
			notifications = append(notifications, entity.MatchNotification{
				MovementID:      movement.MovementID,
				Mrn:             mrn,
				ReferenceNumber: ref,
				MatchedAt:       movement.UpdatedAt,
			})
		}
	}

	return p.publisher.PublishMatches(ctx, notifications)
}
