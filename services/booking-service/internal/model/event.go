package model

import "time"

const (
	EventCreated     = "appointment.created.v1"
	EventConfirmed   = "appointment.confirmed.v1"
	EventCancelled   = "appointment.cancelled.v1"
	EventRescheduled = "appointment.rescheduled.v1"
	EventCompleted   = "appointment.completed.v1"
	EventNoShow      = "appointment.no_show.v1"
)

// LifecycleEvent carries what the notification collaborator needs to render a message.
type LifecycleEvent struct {
	EventID       string         `json:"event_id"`
	Type          string         `json:"event_type"`
	AppointmentID string         `json:"appointment_id"`
	ProviderID    string         `json:"provider_id"`
	Status        Status         `json:"status"`
	Patient       PatientContact `json:"patient"`
	BookingToken  string         `json:"booking_token,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	PreviousID    string         `json:"previous_appointment_id,omitempty"`
	PreviousStart *time.Time     `json:"previous_start_time,omitempty"`
	PreviousEnd   *time.Time     `json:"previous_end_time,omitempty"`
	Actor         Actor          `json:"actor,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
