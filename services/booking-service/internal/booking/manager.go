package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/token"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	RescheduledReason = "rescheduled"
	DefaultListLimit  = 50
	MaxListLimit      = 200
)

type Config struct {
	ProviderID           string
	BufferMinutes        int
	StorageTimeout       time.Duration
	RetryMaxTries        uint
	RetryInitialInterval time.Duration
}

type Deps struct {
	Ledger    storage.Ledger
	Rules     storage.RuleStore
	Types     storage.TypeStore
	Resolver  *availability.Resolver
	Logger    *slog.Logger
	Notifiers []Notifier
}

// Manager owns the appointment lifecycle: pending -> confirmed ->
// {cancelled, completed, no_show}, plus pending -> cancelled and reschedule.
// All coordination goes through the ledger's transactions; Manager keeps no
// per-appointment state.
type Manager struct {
	cfg       Config
	ledger    storage.Ledger
	rules     storage.RuleStore
	types     storage.TypeStore
	resolver  *availability.Resolver
	tokens    *token.Issuer
	notifiers []Notifier
	logger    *slog.Logger
	tracer    trace.Tracer
	newID     func() string
}

func NewManager(cfg Config, deps Deps) *Manager {
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 5 * time.Second
	}
	if cfg.RetryMaxTries == 0 {
		cfg.RetryMaxTries = 3
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 50 * time.Millisecond
	}
	if cfg.BufferMinutes <= 0 {
		cfg.BufferMinutes = 15
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		ledger:    deps.Ledger,
		rules:     deps.Rules,
		types:     deps.Types,
		resolver:  deps.Resolver,
		tokens:    token.NewIssuer(deps.Ledger),
		notifiers: deps.Notifiers,
		logger:    logger.With("provider_id", cfg.ProviderID),
		tracer:    otel.Tracer("github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/booking"),
		newID:     uuid.NewString,
	}
}

// Ref addresses an appointment by id (staff) or booking token (patient).
type Ref struct {
	ID    string
	Token string
}

type CreateRequest struct {
	AppointmentTypeID string
	Start             time.Time
	End               time.Time
	Patient           model.PatientContact
}

// Slots returns the bookable tiles for the provider on date's calendar day.
func (m *Manager) Slots(ctx context.Context, date time.Time, typeID string) ([]availability.Interval, error) {
	if strings.TrimSpace(typeID) == "" {
		return nil, validationf("appointment_type_id is required")
	}
	var tiles []availability.Interval
	err := m.run(ctx, "slots", func(ctx context.Context) error {
		q, err := m.resolver.Query(ctx, m.cfg.ProviderID, date, typeID, "")
		if err != nil {
			return m.mapQueryErr(err, typeID)
		}
		tiles = availability.ResolveSlots(q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveSlots(len(tiles))
	return tiles, nil
}

// Create claims the interval and returns a pending appointment with its booking token.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (model.Appointment, error) {
	iv := availability.Interval{Start: req.Start.UTC(), End: req.End.UTC()}
	if err := validateInterval(iv); err != nil {
		return model.Appointment{}, err
	}
	if strings.TrimSpace(req.AppointmentTypeID) == "" {
		return model.Appointment{}, validationf("appointment_type_id is required")
	}
	patient := normalizePatient(req.Patient)
	if patient.Name == "" {
		return model.Appointment{}, validationf("patient name is required")
	}

	// The id, token and event stay fixed across attempts, so a retry after a lost
	// commit acknowledgement finds its own row instead of reporting SLOT_TAKEN.
	tok, err := m.tokens.Issue()
	if err != nil {
		return model.Appointment{}, &Error{Kind: KindStorage, Message: "token generation failed", Err: err}
	}
	now := m.clock()
	appt := model.Appointment{
		ID:                m.newID(),
		ProviderID:        m.cfg.ProviderID,
		AppointmentTypeID: req.AppointmentTypeID,
		StartTime:         iv.Start,
		EndTime:           iv.End,
		Status:            model.StatusPending,
		Patient:           patient,
		BookingToken:      tok,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	evt := m.event(model.EventCreated, appt, model.ActorPatient, now)

	attempts := 0
	err = m.run(ctx, "create", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			switch prior, err := m.ledger.Get(ctx, appt.ID); {
			case err == nil:
				appt = prior
				return nil
			case !errors.Is(err, storage.ErrNotFound):
				return mapStorage(err, false)
			}
		}
		q, err := m.resolver.Query(ctx, m.cfg.ProviderID, iv.Start, req.AppointmentTypeID, appt.ID)
		if err != nil {
			return m.mapQueryErr(err, req.AppointmentTypeID)
		}
		if err := checkBookable(q, iv); err != nil {
			return err
		}
		err = m.ledger.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			if err := TryClaim(ctx, tx, appt); err != nil {
				return err
			}
			return tx.AppendEvent(ctx, evt)
		})
		return mapStorage(err, true)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	m.notify(ctx, evt)
	return appt, nil
}

func (m *Manager) Confirm(ctx context.Context, ref Ref, actor model.Actor) (model.Appointment, error) {
	return m.transition(ctx, "confirm", ref, actor, func(a *model.Appointment, _ time.Time) (string, error) {
		if a.Status != model.StatusPending {
			return "", invalidTransition("", "cannot confirm a %s appointment", a.Status)
		}
		a.Status = model.StatusConfirmed
		return model.EventConfirmed, nil
	})
}

// Cancel moves any non-terminal appointment to cancelled. A second cancel fails
// with ALREADY_CANCELLED and changes nothing.
func (m *Manager) Cancel(ctx context.Context, ref Ref, actor model.Actor, reason string) (model.Appointment, error) {
	reason = strings.TrimSpace(reason)
	return m.transition(ctx, "cancel", ref, actor, func(a *model.Appointment, now time.Time) (string, error) {
		if a.Status.Terminal() {
			return "", invalidTransition(CodeAlreadyCancelled, "appointment is already %s", a.Status)
		}
		cancel(a, actor, reason, now)
		return model.EventCancelled, nil
	})
}

func (m *Manager) MarkCompleted(ctx context.Context, id string, actor model.Actor) (model.Appointment, error) {
	return m.finish(ctx, "complete", id, actor, model.StatusCompleted, model.EventCompleted)
}

func (m *Manager) MarkNoShow(ctx context.Context, id string, actor model.Actor) (model.Appointment, error) {
	return m.finish(ctx, "no_show", id, actor, model.StatusNoShow, model.EventNoShow)
}

func (m *Manager) finish(ctx context.Context, op, id string, actor model.Actor, to model.Status, evtType string) (model.Appointment, error) {
	if actor != model.ActorAdmin {
		return model.Appointment{}, forbidden("only an admin may close out an appointment")
	}
	return m.transition(ctx, op, Ref{ID: id}, actor, func(a *model.Appointment, now time.Time) (string, error) {
		if a.Status != model.StatusConfirmed {
			return "", invalidTransition("", "cannot mark a %s appointment as %s", a.Status, to)
		}
		if now.Before(a.StartTime) {
			return "", invalidTransition(CodeNotStarted, "appointment has not started yet")
		}
		a.Status = to
		return evtType, nil
	})
}

// Reschedule atomically cancels the appointment and claims newInterval as a new
// appointment that keeps the old status, patient and type. If anything fails
// the original is left untouched.
func (m *Manager) Reschedule(ctx context.Context, id string, newStart, newEnd time.Time, actor model.Actor) (model.Appointment, error) {
	if !actor.Staff() {
		return model.Appointment{}, forbidden("only staff may reschedule")
	}
	iv := availability.Interval{Start: newStart.UTC(), End: newEnd.UTC()}
	if err := validateInterval(iv); err != nil {
		return model.Appointment{}, err
	}
	if strings.TrimSpace(id) == "" {
		return model.Appointment{}, validationf("appointment id is required")
	}

	var (
		moved model.Appointment
		evt   model.LifecycleEvent
	)
	err := m.run(ctx, "reschedule", func(ctx context.Context) error {
		old, err := m.ledger.Get(ctx, id)
		if err != nil {
			return mapStorage(err, false)
		}
		if old.ProviderID != m.cfg.ProviderID {
			return notFound()
		}
		if old.Status.Terminal() {
			return invalidTransition("", "cannot reschedule a %s appointment", old.Status)
		}
		q, err := m.resolver.Query(ctx, m.cfg.ProviderID, iv.Start, old.AppointmentTypeID, old.ID)
		if err != nil {
			return m.mapQueryErr(err, old.AppointmentTypeID)
		}
		if err := checkBookable(q, iv); err != nil {
			return err
		}
		tok, err := m.tokens.Issue()
		if err != nil {
			return &Error{Kind: KindStorage, Message: "token generation failed", Err: err}
		}

		err = m.ledger.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			cur, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return mapStorage(err, false)
			}
			if cur.Status.Terminal() {
				return invalidTransition("", "cannot reschedule a %s appointment", cur.Status)
			}
			now := m.clock()
			next := model.Appointment{
				ID:                m.newID(),
				ProviderID:        cur.ProviderID,
				AppointmentTypeID: cur.AppointmentTypeID,
				StartTime:         iv.Start,
				EndTime:           iv.End,
				Status:            cur.Status,
				Patient:           cur.Patient,
				BookingToken:      tok,
				RescheduledFrom:   cur.ID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}

			// Release the old interval first so the claim may overlap it.
			prev := cur
			cancel(&cur, actor, RescheduledReason, now)
			cur.UpdatedAt = monotonic(now, prev.UpdatedAt)
			if err := tx.Update(ctx, cur); err != nil {
				return mapStorage(err, false)
			}
			if err := TryClaim(ctx, tx, next); err != nil {
				return err
			}

			e := m.event(model.EventRescheduled, next, actor, now)
			e.PreviousID = prev.ID
			e.PreviousStart = &prev.StartTime
			e.PreviousEnd = &prev.EndTime
			e.Reason = RescheduledReason
			if err := tx.AppendEvent(ctx, e); err != nil {
				return err
			}
			moved, evt = next, e
			return nil
		})
		return mapStorage(err, true)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	m.notify(ctx, evt)
	return moved, nil
}

// View resolves a booking token to its appointment.
func (m *Manager) View(ctx context.Context, tok string) (model.Appointment, error) {
	var appt model.Appointment
	err := m.run(ctx, "view", func(ctx context.Context) error {
		a, err := m.tokens.Resolve(ctx, tok)
		if err != nil {
			return mapStorage(err, false)
		}
		if a.ProviderID != m.cfg.ProviderID {
			return notFound()
		}
		appt = a
		return nil
	})
	return appt, err
}

func (m *Manager) Get(ctx context.Context, id string, actor model.Actor) (model.Appointment, error) {
	if !actor.Staff() {
		return model.Appointment{}, forbidden("staff only")
	}
	var appt model.Appointment
	err := m.run(ctx, "get", func(ctx context.Context) error {
		a, err := m.ledger.Get(ctx, id)
		if err != nil {
			return mapStorage(err, false)
		}
		if a.ProviderID != m.cfg.ProviderID {
			return notFound()
		}
		appt = a
		return nil
	})
	return appt, err
}

// List returns the provider's appointments, newest first.
func (m *Manager) List(ctx context.Context, actor model.Actor, limit int) ([]model.Appointment, error) {
	if !actor.Staff() {
		return nil, forbidden("staff only")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	var out []model.Appointment
	err := m.run(ctx, "list", func(ctx context.Context) error {
		appts, err := m.ledger.List(ctx, m.cfg.ProviderID, limit)
		if err != nil {
			return mapStorage(err, false)
		}
		out = appts
		return nil
	})
	return out, err
}

type applyFunc func(a *model.Appointment, now time.Time) (eventType string, err error)

func (m *Manager) transition(ctx context.Context, op string, ref Ref, actor model.Actor, apply applyFunc) (model.Appointment, error) {
	if !actor.Valid() {
		return model.Appointment{}, validationf("unknown actor %q", actor)
	}
	var (
		out model.Appointment
		evt model.LifecycleEvent
	)
	err := m.run(ctx, op, func(ctx context.Context) error {
		err := m.ledger.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			a, err := m.load(ctx, tx, ref, actor)
			if err != nil {
				return err
			}
			now := m.clock()
			prev := a.UpdatedAt
			evtType, err := apply(&a, now)
			if err != nil {
				return err
			}
			a.UpdatedAt = monotonic(now, prev)
			if err := tx.Update(ctx, a); err != nil {
				return err
			}
			e := m.event(evtType, a, actor, a.UpdatedAt)
			if err := tx.AppendEvent(ctx, e); err != nil {
				return err
			}
			out, evt = a, e
			return nil
		})
		return mapStorage(err, false)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	m.notify(ctx, evt)
	return out, nil
}

// load locks the referenced appointment. Patients must present their token.
func (m *Manager) load(ctx context.Context, tx storage.Tx, ref Ref, actor model.Actor) (model.Appointment, error) {
	var (
		a   model.Appointment
		err error
	)
	switch {
	case ref.Token != "":
		if !token.WellFormed(ref.Token) {
			return model.Appointment{}, notFound()
		}
		a, err = tx.GetByTokenForUpdate(ctx, ref.Token)
		if err == nil && !token.Equal(a.BookingToken, ref.Token) {
			return model.Appointment{}, notFound()
		}
	case ref.ID != "":
		if !actor.Staff() {
			return model.Appointment{}, forbidden("patients act through their booking token")
		}
		a, err = tx.GetForUpdate(ctx, ref.ID)
	default:
		return model.Appointment{}, validationf("appointment id or booking token is required")
	}
	if err != nil {
		return model.Appointment{}, mapStorage(err, false)
	}
	if a.ProviderID != m.cfg.ProviderID {
		return model.Appointment{}, notFound()
	}
	return a, nil
}

func (m *Manager) mapQueryErr(err error, typeID string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return validationf("unknown appointment type %q", typeID)
	}
	return mapStorage(err, false)
}

// clock is truncated to the ledger's timestamp precision.
func (m *Manager) clock() time.Time {
	return m.resolver.Now().UTC().Truncate(time.Microsecond)
}

func (m *Manager) event(evtType string, a model.Appointment, actor model.Actor, at time.Time) model.LifecycleEvent {
	evt := model.LifecycleEvent{
		EventID:       m.newID(),
		Type:          evtType,
		AppointmentID: a.ID,
		ProviderID:    a.ProviderID,
		Status:        a.Status,
		Patient:       a.Patient,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Actor:         actor,
		Reason:        a.CancellationReason,
		OccurredAt:    at,
	}
	// Events for new rows carry the row's booking token.
	if evtType == model.EventCreated || evtType == model.EventRescheduled {
		evt.BookingToken = a.BookingToken
	}
	return evt
}

func cancel(a *model.Appointment, actor model.Actor, reason string, now time.Time) {
	at := now
	a.Status = model.StatusCancelled
	a.CancelledBy = actor
	a.CancellationReason = reason
	a.CancelledAt = &at
}

// monotonic never lets updatedAt move backwards, even if the wall clock does.
func monotonic(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func validateInterval(iv availability.Interval) error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return validationf("start_time and end_time are required")
	}
	if !iv.Valid() {
		return validationf("end_time must be after start_time")
	}
	return nil
}

// checkBookable distinguishes a time that was never offered from one that was
// offered but has since been taken.
func checkBookable(q availability.Query, iv availability.Interval) error {
	if !q.Type.IsActive {
		return notBookable("appointment type is not active")
	}
	if iv.Duration() != q.Type.Duration() {
		return validationf("interval length %s does not match appointment type duration %s", iv.Duration(), q.Type.Duration())
	}
	free := q
	free.Busy = nil
	if !availability.IsTile(free, iv) {
		return notBookable("requested time is not an offered slot")
	}
	for _, b := range q.Busy {
		if b.Overlaps(iv) {
			return slotTaken(nil)
		}
	}
	return nil
}

func normalizePatient(p model.PatientContact) model.PatientContact {
	return model.PatientContact{
		Name:  strings.TrimSpace(p.Name),
		Email: strings.TrimSpace(p.Email),
		Phone: strings.TrimSpace(p.Phone),
	}
}
