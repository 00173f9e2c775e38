// Package memory holds in-process implementations of the store interfaces. Each
// repository guards its map with a mutex, so the compare-and-write in UpsertIfNewer is as
// atomic as the Mongo findAndModify it stands in for.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/utils"
)

// Store bundles one repository per collection
type Store struct {
	Movements           *MovementRepository
	MovementEtas        *MovementEtaRepository
	MovementMatches     *MovementMatchRepository
	TransitRecords      *TransitRecordRepository
	CustomsDeclarations *CustomsDeclarationRepository
	Audit               *AuditRepository
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Movements:           NewMovementRepository(),
		MovementEtas:        NewMovementEtaRepository(),
		MovementMatches:     NewMovementMatchRepository(),
		TransitRecords:      NewTransitRecordRepository(),
		CustomsDeclarations: NewCustomsDeclarationRepository(),
		Audit:               NewAuditRepository(),
	}
}

var (
	_ repository.MovementRepository           = (*MovementRepository)(nil)
	_ repository.MovementEtaRepository        = (*MovementEtaRepository)(nil)
	_ repository.MovementMatchRepository      = (*MovementMatchRepository)(nil)
	_ repository.TransitRecordRepository      = (*TransitRecordRepository)(nil)
	_ repository.CustomsDeclarationRepository = (*CustomsDeclarationRepository)(nil)
	_ repository.AuditRepository              = (*AuditRepository)(nil)
)

// MovementRepository is an in-memory MovementRepository
type MovementRepository struct {
	mu    sync.Mutex
	items map[string]entity.Movement
}

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{items: make(map[string]entity.Movement)}
}

func (r *MovementRepository) UpsertIfNewer(_ context.Context, movement *entity.Movement) (*entity.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := utils.StoreTime(movement.UpdatedAt)
	prev, ok := r.items[movement.MovementID]
	if !ok || entity.IsNewer(prev.UpdatedAt, ts) {
		next := entity.Movement{
			MovementID: movement.MovementID,
			State:      movement.State,
			Payload:    copyPayload(movement.Payload),
			UpdatedAt:  ts,
		}
		if ok {
			next.HoldRequired = prev.HoldRequired
		}
		r.items[movement.MovementID] = next
	}

	if !ok {
		return nil, nil
	}
	return copyMovement(prev), nil
}

func (r *MovementRepository) FindByID(_ context.Context, movementID string) (*entity.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[movementID]
	if !ok {
		return nil, nil
	}
	return copyMovement(m), nil
}

func (r *MovementRepository) SetHold(_ context.Context, movementID string, hold bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[movementID]
	if !ok {
		return fmt.Errorf("no movement found with id: %s", movementID)
	}
	m.HoldRequired = &hold
	r.items[movementID] = m
	return nil
}

// MovementEtaRepository is an in-memory MovementEtaRepository
type MovementEtaRepository struct {
	mu    sync.Mutex
	items map[string]entity.MovementEta
}

func NewMovementEtaRepository() *MovementEtaRepository {
	return &MovementEtaRepository{items: make(map[string]entity.MovementEta)}
}

func (r *MovementEtaRepository) UpsertIfNewer(_ context.Context, eta *entity.MovementEta) (*entity.MovementEta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := utils.StoreTime(eta.UpdatedAt)
	prev, ok := r.items[eta.MovementID]
	if !ok || entity.IsNewer(prev.UpdatedAt, ts) {
		next := *eta
		next.Mrns = append([]string(nil), eta.Mrns...)
		next.UpdatedAt = ts
		r.items[eta.MovementID] = next
	}

	if !ok {
		return nil, nil
	}
	return &prev, nil
}

func (r *MovementEtaRepository) FindByID(_ context.Context, movementID string) (*entity.MovementEta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eta, ok := r.items[movementID]
	if !ok {
		return nil, nil
	}
	eta.Mrns = append([]string(nil), eta.Mrns...)
	return &eta, nil
}

// MovementMatchRepository is an in-memory MovementMatchRepository
type MovementMatchRepository struct {
	mu    sync.Mutex
	items map[string]entity.MovementMatch
}

func NewMovementMatchRepository() *MovementMatchRepository {
	return &MovementMatchRepository{items: make(map[string]entity.MovementMatch)}
}

func (r *MovementMatchRepository) UpsertIfNewer(_ context.Context, match *entity.MovementMatch) (*entity.MovementMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := utils.StoreTime(match.UpdatedAt)
	prev, ok := r.items[match.ID]
	if !ok || entity.IsNewer(prev.UpdatedAt, ts) {
		next := *match
		next.UpdatedAt = ts
		r.items[match.ID] = next
	}

	if !ok {
		return nil, nil
	}
	return &prev, nil
}

func (r *MovementMatchRepository) FindByMovementID(_ context.Context, movementID string) ([]*entity.MovementMatch, error) {
	return r.filter(func(m entity.MovementMatch) bool { return m.MovementID == movementID }), nil
}

func (r *MovementMatchRepository) FindByMrns(_ context.Context, mrns []string) ([]*entity.MovementMatch, error) {
	if len(mrns) == 0 {
		return nil, nil
	}
	set := toSet(mrns)
	return r.filter(func(m entity.MovementMatch) bool {
		_, ok := set[m.Mrn]
		return ok
	}), nil
}

func (r *MovementMatchRepository) filter(keep func(entity.MovementMatch) bool) []*entity.MovementMatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.MovementMatch
	for _, m := range r.items {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TransitRecordRepository is an in-memory TransitRecordRepository
type TransitRecordRepository struct {
	mu    sync.Mutex
	items map[string]entity.TransitRecord
}

func NewTransitRecordRepository() *TransitRecordRepository {
	return &TransitRecordRepository{items: make(map[string]entity.TransitRecord)}
}

func (r *TransitRecordRepository) UpsertIfNewer(_ context.Context, record *entity.TransitRecord) (*entity.TransitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := utils.StoreTime(record.UpdatedAt)
	prev, ok := r.items[record.ReferenceNumber]
	if !ok || entity.IsNewer(prev.UpdatedAt, ts) {
		next := *record
		next.UpdatedAt = ts
		r.items[record.ReferenceNumber] = next
	}

	if !ok {
		return nil, nil
	}
	return &prev, nil
}

func (r *TransitRecordRepository) FindByReferenceNumbers(_ context.Context, referenceNumbers []string) ([]*entity.TransitRecord, error) {
	set := toSet(referenceNumbers)
	return r.filter(func(t entity.TransitRecord) bool {
		_, ok := set[t.ReferenceNumber]
		return ok
	}), nil
}

func (r *TransitRecordRepository) FindByMrns(_ context.Context, mrns []string) ([]*entity.TransitRecord, error) {
	set := toSet(mrns)
	return r.filter(func(t entity.TransitRecord) bool {
		if t.Mrn == "" {
			return false
		}
		_, ok := set[t.Mrn]
		return ok
	}), nil
}

func (r *TransitRecordRepository) filter(keep func(entity.TransitRecord) bool) []*entity.TransitRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.TransitRecord
	for _, t := range r.items {
		if keep(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceNumber < out[j].ReferenceNumber })
	return out
}

// CustomsDeclarationRepository is an in-memory CustomsDeclarationRepository
type CustomsDeclarationRepository struct {
	mu    sync.Mutex
	items map[string]entity.CustomsDeclaration
}

func NewCustomsDeclarationRepository() *CustomsDeclarationRepository {
	return &CustomsDeclarationRepository{items: make(map[string]entity.CustomsDeclaration)}
}

func (r *CustomsDeclarationRepository) ReplaceIfNewer(_ context.Context, declarations []*entity.CustomsDeclaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range declarations {
		ts := utils.StoreTime(d.UpdatedAt)
		prev, ok := r.items[d.Mrn]
		if ok && !entity.IsNewer(prev.UpdatedAt, ts) {
			continue
		}
		r.items[d.Mrn] = entity.CustomsDeclaration{
			Mrn:        d.Mrn,
			References: append([]string(nil), d.References...),
			UpdatedAt:  ts,
		}
	}
	return nil
}

func (r *CustomsDeclarationRepository) FindByMrns(_ context.Context, mrns []string) ([]*entity.CustomsDeclaration, error) {
	set := toSet(mrns)
	return r.filter(func(d entity.CustomsDeclaration) bool {
		_, ok := set[d.Mrn]
		return ok
	}), nil
}

func (r *CustomsDeclarationRepository) FindByReference(_ context.Context, referenceNumber string) ([]*entity.CustomsDeclaration, error) {
	return r.filter(func(d entity.CustomsDeclaration) bool {
		for _, ref := range d.References {
			if ref == referenceNumber {
				return true
			}
		}
		return false
	}), nil
}

func (r *CustomsDeclarationRepository) filter(keep func(entity.CustomsDeclaration) bool) []*entity.CustomsDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.CustomsDeclaration
	for _, d := range r.items {
		if keep(d) {
			d := d
			d.References = append([]string(nil), d.References...)
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mrn < out[j].Mrn })
	return out
}

// AuditRepository is an in-memory AuditRepository. Records older than
// entity.AuditRetention are dropped on insert.
type AuditRepository struct {
	mu      sync.Mutex
	records []entity.AuditRecord
	now     func() time.Time
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{now: time.Now}
}

func (r *AuditRepository) Insert(_ context.Context, record *entity.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-entity.AuditRetention)
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.CreatedAt.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	r.records = append(kept, *record)
	return nil
}

func (r *AuditRepository) FindByMessageType(_ context.Context, messageType string, since time.Time) ([]*entity.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.AuditRecord
	for _, rec := range r.records {
		if rec.MessageType == messageType && !rec.CreatedAt.Before(since) {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// All returns every retained record in insertion order.
func (r *AuditRepository) All() []entity.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]entity.AuditRecord(nil), r.records...)
}

func copyMovement(m entity.Movement) *entity.Movement {
	m.Payload = copyPayload(m.Payload)
	if m.HoldRequired != nil {
		hold := *m.HoldRequired
		m.HoldRequired = &hold
	}
	return &m
}

func copyPayload(p map[string]interface{}) map[string]interface{} {
	if p == nil {
		return nil
	}
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
