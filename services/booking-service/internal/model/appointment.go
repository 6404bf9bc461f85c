package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// Active statuses hold their interval in the ledger.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

func (s Status) Valid() bool {
	return s.Active() || s.Terminal()
}

type Actor string

const (
	ActorPatient Actor = "patient"
	ActorDoctor  Actor = "doctor"
	ActorAdmin   Actor = "admin"
)

func (a Actor) Valid() bool {
	return a == ActorPatient || a == ActorDoctor || a == ActorAdmin
}

// Staff actors act on behalf of the provider.
func (a Actor) Staff() bool {
	return a == ActorDoctor || a == ActorAdmin
}

type PatientContact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Appointment struct {
	ID                 string
	ProviderID         string
	AppointmentTypeID  string
	StartTime          time.Time
	EndTime            time.Time
	Status             Status
	Patient            PatientContact
	BookingToken       string
	CancelledBy        Actor
	CancellationReason string
	CancelledAt        *time.Time
	RescheduledFrom    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
