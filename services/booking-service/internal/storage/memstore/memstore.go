// Package memstore is an in-process ledger for local runs and tests. A single
// mutex serializes transactions, which is stronger than serializable isolation,
// and the Postgres constraints are checked on every insert.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
)

// Fault points accepted by FailNext.
const (
	FaultListActive  = "list_active"
	FaultInsert      = "insert"
	FaultUpdate      = "update"
	FaultAppendEvent = "append_event"
	FaultCommit      = "commit"
	// FaultAfterCommit applies the transaction and then reports err, like a
	// commit whose acknowledgement never reached the caller.
	FaultAfterCommit = "after_commit"
)

type Store struct {
	mu        sync.Mutex
	appts     map[string]model.Appointment
	rules     map[string]model.AvailabilityRule
	types     map[string]model.AppointmentType
	outbox    []outbox.Record
	published int
	nextID    int64
	faults    map[string][]error
}

func New() *Store {
	return &Store{
		appts:  map[string]model.Appointment{},
		rules:  map[string]model.AvailabilityRule{},
		types:  map[string]model.AppointmentType{},
		faults: map[string][]error{},
	}
}

// FailNext makes the next call at point return err.
func (s *Store) FailNext(point string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[point] = append(s.faults[point], err)
}

func (s *Store) fault(point string) error {
	queue := s.faults[point]
	if len(queue) == 0 {
		return nil
	}
	s.faults[point] = queue[1:]
	return queue[0]
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, appts: make(map[string]model.Appointment, len(s.appts))}
	for id, a := range s.appts {
		tx.appts[id] = a
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.fault(FaultCommit); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.appts = tx.appts
	for _, e := range tx.events {
		s.nextID++
		s.outbox = append(s.outbox, outbox.Record{ID: s.nextID, Event: e, CreatedAt: time.Now().UTC()})
	}
	return s.fault(FaultAfterCommit)
}

func (s *Store) ListActive(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(FaultListActive); err != nil {
		return nil, err
	}
	return activeOverlapping(s.appts, providerID, from, to), ctx.Err()
}

func (s *Store) Get(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetByToken(_ context.Context, token string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return byToken(s.appts, token)
}

func (s *Store) List(_ context.Context, providerID string, limit int) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.appts {
		if a.ProviderID == providerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Outbox returns a copy of every committed event in commit order.
func (s *Store) Outbox() []outbox.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Record(nil), s.outbox...)
}

// WithUnpublished lets the Kafka relay drain the in-memory outbox.
func (s *Store) WithUnpublished(_ context.Context, limit int, fn func([]outbox.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.outbox[s.published:]
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if len(batch) == 0 {
		return nil
	}
	if err := fn(append([]outbox.Record(nil), batch...)); err != nil {
		return err
	}
	s.published += len(batch)
	return nil
}

type memTx struct {
	store  *Store
	appts  map[string]model.Appointment
	events []outbox.Event
}

func (t *memTx) ListActiveOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]model.Appointment, error) {
	if err := t.store.fault(FaultListActive); err != nil {
		return nil, err
	}
	return activeOverlapping(t.appts, providerID, start, end), ctx.Err()
}

func (t *memTx) Insert(ctx context.Context, a model.Appointment) error {
	if err := t.store.fault(FaultInsert); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, dup := t.appts[a.ID]; dup {
		return fmt.Errorf("%w: duplicate appointment id", storage.ErrConflict)
	}
	for _, e := range t.appts {
		if e.BookingToken == a.BookingToken {
			return fmt.Errorf("%w: duplicate booking token", storage.ErrConflict)
		}
		if !a.Status.Active() || !e.Status.Active() || e.ProviderID != a.ProviderID {
			continue
		}
		if e.StartTime.Equal(a.StartTime) {
			return fmt.Errorf("%w: active appointment already starts at %s", storage.ErrConflict, a.StartTime)
		}
		if e.StartTime.Before(a.EndTime) && a.StartTime.Before(e.EndTime) {
			return fmt.Errorf("%w: overlaps appointment %s", storage.ErrConflict, e.ID)
		}
	}
	t.appts[a.ID] = a
	return nil
}

func (t *memTx) GetForUpdate(_ context.Context, id string) (model.Appointment, error) {
	a, ok := t.appts[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return a, nil
}

func (t *memTx) GetByTokenForUpdate(_ context.Context, token string) (model.Appointment, error) {
	return byToken(t.appts, token)
}

func (t *memTx) Update(ctx context.Context, a model.Appointment) error {
	if err := t.store.fault(FaultUpdate); err != nil {
		return err
	}
	cur, ok := t.appts[a.ID]
	if !ok {
		return storage.ErrNotFound
	}
	cur.Status = a.Status
	cur.CancelledBy = a.CancelledBy
	cur.CancellationReason = a.CancellationReason
	cur.CancelledAt = a.CancelledAt
	cur.UpdatedAt = a.UpdatedAt
	t.appts[a.ID] = cur
	return ctx.Err()
}

func (t *memTx) AppendEvent(ctx context.Context, evt model.LifecycleEvent) error {
	if err := t.store.fault(FaultAppendEvent); err != nil {
		return err
	}
	e, err := outbox.FromLifecycle(ctx, evt)
	if err != nil {
		return err
	}
	t.events = append(t.events, e)
	return nil
}

func activeOverlapping(appts map[string]model.Appointment, providerID string, from, to time.Time) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if a.ProviderID == providerID && a.Status.Active() && a.StartTime.Before(to) && from.Before(a.EndTime) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func byToken(appts map[string]model.Appointment, token string) (model.Appointment, error) {
	for _, a := range appts {
		if a.BookingToken == token {
			return a, nil
		}
	}
	return model.Appointment{}, storage.ErrNotFound
}
