package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/interface/repository/memory"
	"movement-hold-service/pkg/logger"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type holdCall struct {
	MovementID string
	Hold       bool
}

type fakeHoldAction struct {
	mu    sync.Mutex
	calls []holdCall
	err   error
}

func (f *fakeHoldAction) SetHold(_ context.Context, movementID string, hold bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, holdCall{MovementID: movementID, Hold: hold})
	return f.err
}

func (f *fakeHoldAction) Calls() []holdCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]holdCall(nil), f.calls...)
}

type fakeNotifications struct {
	mu   sync.Mutex
	sent map[string][]entity.OutboundMessage
	err  error
}

func (f *fakeNotifications) SendBatch(_ context.Context, destination string, messages []entity.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = make(map[string][]entity.OutboundMessage)
	}
	f.sent[destination] = append(f.sent[destination], messages...)
	return nil
}

func (f *fakeNotifications) Sent(destination string) []entity.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.OutboundMessage(nil), f.sent[destination]...)
}

type countingReconciler struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *countingReconciler) ReconcileHold(_ context.Context, movementID string) (HoldOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, movementID)
	return NoChange, r.err
}

type staticRouter []ResourceHandler

func (r *staticRouter) Register(h ResourceHandler) { *r = append(*r, h) }

func (r *staticRouter) GetHandler(resourceType string) ResourceHandler {
	for _, h := range *r {
		if h.CanHandle(resourceType) {
			return h
		}
	}
	return nil
}

const (
	etaQueue   = "eta-notifications"
	matchQueue = "match-notifications"
)

type harness struct {
	store         *memory.Store
	hold          *fakeHoldAction
	notifications *fakeNotifications
	audit         *AuditService
	lookup        *ReferenceLookup
	publisher     *NotificationPublisher
	eta           *EtaNotifier
	reconciler    *HoldReconciler
	movements     *MovementProcessor
	preNotes      *PreNotificationProcessor
	customs       *CustomsDeclarationProcessor
	dispatcher    *MessageDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	h := &harness{
		store:         memory.NewStore(),
		hold:          &fakeHoldAction{},
		notifications: &fakeNotifications{},
	}
	h.audit = NewAuditService(h.store.Audit, log)
	h.lookup = NewReferenceLookup(h.store.TransitRecords, h.store.CustomsDeclarations)
	h.publisher = NewNotificationPublisher(h.notifications, etaQueue, matchQueue, nil, log)
	h.reconciler = NewHoldReconciler(h.store.Movements, h.store.MovementMatches, h.store.TransitRecords, h.lookup, h.hold, h.audit, true, nil, log)
	h.eta = NewEtaNotifier(h.store.MovementEtas, h.lookup, h.publisher, log)
	h.movements = NewMovementProcessor(h.store.Movements, h.store.MovementMatches, h.lookup, h.reconciler, h.eta, h.publisher, log)
	h.preNotes = NewPreNotificationProcessor(h.store.TransitRecords, h.store.MovementMatches, h.lookup, h.reconciler, log)
	h.customs = NewCustomsDeclarationProcessor(h.store.CustomsDeclarations, h.store.MovementMatches, h.reconciler, log)

	router := &staticRouter{}
	router.Register(h.movements)
	router.Register(h.preNotes)
	router.Register(h.customs)
	h.dispatcher = NewMessageDispatcher(router, h.audit, true, log)
	return h
}

func (h *harness) putMovement(t *testing.T, id string, hold *bool, mrns ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.store.Movements.UpsertIfNewer(ctx, &entity.Movement{MovementID: id, State: entity.MovementStateOpen, UpdatedAt: t0})
	require.NoError(t, err)
	if hold != nil {
		require.NoError(t, h.store.Movements.SetHold(ctx, id, *hold))
	}
	for _, mrn := range mrns {
		_, err := h.store.MovementMatches.UpsertIfNewer(ctx, entity.NewMovementMatch(id, mrn, t0))
		require.NoError(t, err)
	}
}

func (h *harness) putTransit(t *testing.T, ref, mrn string, override bool) {
	t.Helper()
	_, err := h.store.TransitRecords.UpsertIfNewer(context.Background(), &entity.TransitRecord{
		ReferenceNumber:  ref,
		Mrn:              mrn,
		OverrideRequired: override,
		UpdatedAt:        t0,
	})
	require.NoError(t, err)
}

func (h *harness) heldFlag(t *testing.T, id string) *bool {
	t.Helper()
	m, err := h.store.Movements.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.HoldRequired
}

func (h *harness) auditRecords(messageType string) []entity.AuditRecord {
	var out []entity.AuditRecord
	for _, r := range h.store.Audit.All() {
		if r.MessageType == messageType {
			out = append(out, r)
		}
	}
	return out
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func boolPtr(b bool) *bool { return &b }
