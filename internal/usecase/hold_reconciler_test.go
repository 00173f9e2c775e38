package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileHold_PlacesHoldOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.putMovement(t, "MV1", boolPtr(false), "24GB1")
	h.putTransit(t, "REF.A", "24GB1", true)
	h.putTransit(t, "REF.B", "", false)
	require.NoError(t, h.store.CustomsDeclarations.ReplaceIfNewer(ctx, []*entity.CustomsDeclaration{
		{Mrn: "24GB1", References: []string{"REF.B"}, UpdatedAt: t0},
	}))

	outcome, err := h.reconciler.ReconcileHold(ctx, "MV1")
	require.NoError(t, err)
	assert.Equal(t, HoldPlaced, outcome)
	assert.Equal(t, boolPtr(true), h.heldFlag(t, "MV1"))

	outcome, err = h.reconciler.ReconcileHold(ctx, "MV1")
	require.NoError(t, err)
	assert.Equal(t, NoChange, outcome)

	assert.Equal(t, []holdCall{{MovementID: "MV1", Hold: true}}, h.hold.Calls())

	records := h.auditRecords(entity.MessageTypeHoldAction)
	require.Len(t, records, 1)
	assert.Equal(t, entity.DirectionOutbound, records[0].Direction)
	assert.Equal(t, HoldActionTarget, records[0].Target)

	var entry HoldActionAudit
	require.NoError(t, json.Unmarshal([]byte(records[0].Payload), &entry))
	assert.Equal(t, "MV1", entry.MovementID)
	assert.Equal(t, []string{"REF.A", "REF.B"}, entry.References)
	assert.True(t, entry.Desired)
	assert.Empty(t, entry.Error)
}

func TestReconcileHold_ReleasesHold(t *testing.T) {
	h := newHarness(t)

	h.putMovement(t, "MV1", boolPtr(true), "24GB1")
	h.putTransit(t, "REF.A", "24GB1", false)

	outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
	require.NoError(t, err)
	assert.Equal(t, HoldReleased, outcome)
	assert.Equal(t, boolPtr(false), h.heldFlag(t, "MV1"))
	assert.Equal(t, []holdCall{{MovementID: "MV1", Hold: false}}, h.hold.Calls())
}

func TestReconcileHold_AuditsFailedAction(t *testing.T) {
	h := newHarness(t)
	actionErr := errors.New("hold service unavailable")
	h.hold.err = actionErr

	h.putMovement(t, "MV1", boolPtr(false), "24GB1")
	h.putTransit(t, "REF.A", "24GB1", true)

	outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
	require.Error(t, err)
	assert.ErrorIs(t, err, actionErr)
	assert.Equal(t, NoChange, outcome)
	assert.Equal(t, boolPtr(false), h.heldFlag(t, "MV1"))

	records := h.auditRecords(entity.MessageTypeHoldAction)
	require.Len(t, records, 1)
	var entry HoldActionAudit
	require.NoError(t, json.Unmarshal([]byte(records[0].Payload), &entry))
	assert.Equal(t, actionErr.Error(), entry.Error)

	// The next attempt derives the same desired state and retries
	h.hold.err = nil
	outcome, err = h.reconciler.ReconcileHold(context.Background(), "MV1")
	require.NoError(t, err)
	assert.Equal(t, HoldPlaced, outcome)
	assert.Len(t, h.hold.Calls(), 2)
}

type failingAuditRepo struct{}

func (failingAuditRepo) Insert(context.Context, *entity.AuditRecord) error {
	return errors.New("audit store down")
}

func (failingAuditRepo) FindByMessageType(context.Context, string, time.Time) ([]*entity.AuditRecord, error) {
	return nil, nil
}

func TestReconcileHold_AuditFailureDoesNotMaskOutcome(t *testing.T) {
	h := newHarness(t)
	h.reconciler.audit = NewAuditService(failingAuditRepo{}, logger.NewNopLogger())

	h.putMovement(t, "MV1", nil, "24GB1")
	h.putTransit(t, "REF.A", "24GB1", true)

	outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
	require.NoError(t, err)
	assert.Equal(t, HoldPlaced, outcome)
}

func TestReconcileHold_NoChangeCases(t *testing.T) {
	t.Run("unknown movement", func(t *testing.T) {
		h := newHarness(t)
		outcome, err := h.reconciler.ReconcileHold(context.Background(), "missing")
		require.NoError(t, err)
		assert.Equal(t, NoChange, outcome)
	})

	t.Run("no references", func(t *testing.T) {
		h := newHarness(t)
		h.putMovement(t, "MV1", nil, "24GB1")

		outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
		require.NoError(t, err)
		assert.Equal(t, NoChange, outcome)
		assert.Empty(t, h.hold.Calls())
	})

	t.Run("unset flag and nothing required", func(t *testing.T) {
		h := newHarness(t)
		h.putMovement(t, "MV1", nil, "24GB1")
		h.putTransit(t, "REF.A", "24GB1", false)

		outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
		require.NoError(t, err)
		assert.Equal(t, NoChange, outcome)
		assert.Empty(t, h.hold.Calls())
		assert.Empty(t, h.auditRecords(entity.MessageTypeHoldAction))
	})

	t.Run("dry run", func(t *testing.T) {
		h := newHarness(t)
		h.reconciler.enabled = false
		h.putMovement(t, "MV1", boolPtr(false), "24GB1")
		h.putTransit(t, "REF.A", "24GB1", true)

		outcome, err := h.reconciler.ReconcileHold(context.Background(), "MV1")
		require.NoError(t, err)
		assert.Equal(t, NoChange, outcome)
		assert.Empty(t, h.hold.Calls())
		assert.Equal(t, boolPtr(false), h.heldFlag(t, "MV1"))
	})
}
