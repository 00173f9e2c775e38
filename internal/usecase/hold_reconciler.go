package usecase

import (
	"context"
	"fmt"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/metrics"
)

// HoldOutcome is the result of one hold reconciliation
type HoldOutcome string

const (
	HoldPlaced   HoldOutcome = "HoldPlaced"
	HoldReleased HoldOutcome = "HoldReleased"
	NoChange     HoldOutcome = "NoChange"
)

// HoldActionTarget names the hold action integration in audit records
const HoldActionTarget = "hold-action"

// Reconciler re-derives and actuates the hold state of a movement
type Reconciler interface {
	ReconcileHold(ctx context.Context, movementID string) (HoldOutcome, error)
}

// HoldActionAudit is the audited description of one hold action attempt
type HoldActionAudit struct {
	MovementID string   `json:"movementId"`
	Mrns       []string `json:"mrns"`
	References []string `json:"references"`
	Desired    bool     `json:"desired"`
	Error      string   `json:"error,omitempty"`
}

// HoldReconciler compares the hold state derived from all correlated references with
// the last state communicated for the movement, and actuates the difference.
type HoldReconciler struct {
	movementRepo repository.MovementRepository
	matchRepo    repository.MovementMatchRepository
	transitRepo  repository.TransitRecordRepository
	lookup       *ReferenceLookup
	holdAction   repository.HoldActionRepository
	audit        *AuditService
	enabled      bool
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewHoldReconciler creates a new hold reconciler. With enabled false it only logs
// what it would do.
func NewHoldReconciler(
	movementRepo repository.MovementRepository,
	matchRepo repository.MovementMatchRepository,
	transitRepo repository.TransitRecordRepository,
	lookup *ReferenceLookup,
	holdAction repository.HoldActionRepository,
	audit *AuditService,
	enabled bool,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *HoldReconciler {
	return &HoldReconciler{
		movementRepo: movementRepo,
		matchRepo:    matchRepo,
		transitRepo:  transitRepo,
		lookup:       lookup,
		holdAction:   holdAction,
		audit:        audit,
		enabled:      enabled,
		metrics:      metrics,
		logger:       logger,
	}
}

var _ Reconciler = (*HoldReconciler)(nil)

// ReconcileHold places or releases the hold on a movement when the desired state differs
// from the stored one. Every actuation attempt is audited, including failed ones; on
// failure the stored flag is left as it was so the next reconciliation retries.
func (r *HoldReconciler) ReconcileHold(ctx context.Context, movementID string) (HoldOutcome, error) {
	log := r.logger.With("movementId", movementID)

	movement, err := r.movementRepo.FindByID(ctx, movementID)
	if err != nil {
		return NoChange, fmt.Errorf("failed to load movement %s: %w", movementID, err)
	}
	if movement == nil {
		log.Info("Movement not found, nothing to reconcile")
		return r.done(NoChange), nil
	}

	matches, err := r.matchRepo.FindByMovementID(ctx, movementID)
	if err != nil {
		return NoChange, fmt.Errorf("failed to load matches for %s: %w", movementID, err)
	}
	mrns := make([]string, 0, len(matches))
	for _, m := range matches {
		mrns = append(mrns, m.Mrn)
	}

	references, err := r.lookup.References(ctx, mrns)
	if err != nil {
		return NoChange, err
	}

	records, err := r.transitRepo.FindByReferenceNumbers(ctx, references)
	if err != nil {
		return NoChange, fmt.Errorf("failed to load transit records for %s: %w", movementID, err)
	}
	if len(records) == 0 {
		log.Debug("No regulatory references for movement", "mrns", mrns)
		return r.done(NoChange), nil
	}

	desired := false
	for _, rec := range records {
		desired = desired || rec.OverrideRequired
	}

	if desired == movement.IsHeld() {
		return r.done(NoChange), nil
	}

	if !r.enabled {
		log.Info("Hold action disabled, not actuating", "desired", desired, "references", references)
		return r.done(NoChange), nil
	}

	if err := r.actuate(ctx, movementID, mrns, references, desired); err != nil {
		r.metrics.IncError("hold_action")
		return NoChange, fmt.Errorf("hold action for %s failed: %w", movementID, err)
	}

	if err := r.movementRepo.SetHold(ctx, movementID, desired); err != nil {
		return NoChange, fmt.Errorf("failed to store hold flag for %s: %w", movementID, err)
	}

	outcome := HoldReleased
	if desired {
		outcome = HoldPlaced
	}
	log.Info("Hold reconciled", "outcome", outcome, "references", references)
	return r.done(outcome), nil
}

func (r *HoldReconciler) actuate(ctx context.Context, movementID string, mrns, references []string, desired bool) (err error) {
	defer func() {
		entry := HoldActionAudit{
			MovementID: movementID,
			Mrns:       mrns,
			References: references,
			Desired:    desired,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		r.audit.RecordOutbound(ctx, HoldActionTarget, entity.MessageTypeHoldAction, entry)
	}()

	return r.holdAction.SetHold(ctx, movementID, desired)
}

func (r *HoldReconciler) done(outcome HoldOutcome) HoldOutcome {
	r.metrics.IncHoldAction(string(outcome))
	return outcome
}
