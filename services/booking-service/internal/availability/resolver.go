package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type RuleSource interface {
	ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error)
}

type TypeSource interface {
	GetType(ctx context.Context, typeID string) (model.AppointmentType, error)
}

// BusySource lists pending and confirmed appointments overlapping [from, to).
type BusySource interface {
	ListActive(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error)
}

type Config struct {
	Location  *time.Location
	MinNotice time.Duration
	Horizon   time.Duration
}

// Resolver reads rules and the ledger on every call; nothing is cached between calls.
type Resolver struct {
	rules RuleSource
	types TypeSource
	busy  BusySource
	cfg   Config
	now   func() time.Time
}

func NewResolver(rules RuleSource, types TypeSource, busy BusySource, cfg Config) *Resolver {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MinNotice < 0 {
		cfg.MinNotice = DefaultMinNotice
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	return &Resolver{rules: rules, types: types, busy: busy, cfg: cfg, now: time.Now}
}

// WithClock replaces the resolver's time source.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

func (r *Resolver) Location() *time.Location { return r.cfg.Location }

func (r *Resolver) Now() time.Time { return r.now() }

// Query loads everything needed to resolve one day. excludeID drops an
// appointment from the busy set, which lets a reschedule target overlap the
// slot it is leaving.
func (r *Resolver) Query(ctx context.Context, providerID string, date time.Time, typeID, excludeID string) (Query, error) {
	typ, err := r.types.GetType(ctx, typeID)
	if err != nil {
		return Query{}, fmt.Errorf("load appointment type: %w", err)
	}
	rules, err := r.rules.ListRules(ctx, providerID)
	if err != nil {
		return Query{}, fmt.Errorf("load availability rules: %w", err)
	}
	from, to := DayBounds(date, r.cfg.Location)
	appts, err := r.busy.ListActive(ctx, providerID, from, to)
	if err != nil {
		return Query{}, fmt.Errorf("load active appointments: %w", err)
	}
	busy := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		busy = append(busy, Interval{Start: a.StartTime, End: a.EndTime})
	}
	return Query{
		Date:      from,
		Location:  r.cfg.Location,
		Type:      typ,
		Rules:     rules,
		Busy:      busy,
		Now:       r.now(),
		MinNotice: r.cfg.MinNotice,
		Horizon:   r.cfg.Horizon,
	}, nil
}

func (r *Resolver) Slots(ctx context.Context, providerID string, date time.Time, typeID string) ([]Interval, error) {
	q, err := r.Query(ctx, providerID, date, typeID, "")
	if err != nil {
		return nil, err
	}
	return ResolveSlots(q), nil
}
