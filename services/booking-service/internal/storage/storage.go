package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict covers uniqueness, exclusion and serialization aborts.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks transient faults worth retrying.
	ErrUnavailable = errors.New("storage unavailable")
)

// Tx is the ledger view inside one serializable transaction.
type Tx interface {
	ListActiveOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]model.Appointment, error)
	Insert(ctx context.Context, appt model.Appointment) error
	GetForUpdate(ctx context.Context, id string) (model.Appointment, error)
	GetByTokenForUpdate(ctx context.Context, token string) (model.Appointment, error)
	Update(ctx context.Context, appt model.Appointment) error
	AppendEvent(ctx context.Context, evt model.LifecycleEvent) error
}

// Ledger is the reservation store. WithinTx commits when fn returns nil and rolls
// back otherwise.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListActive(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetByToken(ctx context.Context, token string) (model.Appointment, error)
	List(ctx context.Context, providerID string, limit int) ([]model.Appointment, error)
}

type RuleStore interface {
	ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error)
	CreateRule(ctx context.Context, rule model.AvailabilityRule) error
	DeleteRule(ctx context.Context, providerID, ruleID string) error
}

type TypeStore interface {
	GetType(ctx context.Context, typeID string) (model.AppointmentType, error)
	ListTypes(ctx context.Context, providerID string) ([]model.AppointmentType, error)
	CreateType(ctx context.Context, typ model.AppointmentType) error
}
