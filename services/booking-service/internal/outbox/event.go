package outbox

import (
	"context"
	"encoding/json"
	"time"

	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

const AggregateAppointment = "appointment"

// Event is one outbox row. The Kafka topic equals EventType.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
}

// Record is a stored Event awaiting or past publication.
type Record struct {
	ID int64
	Event
	CreatedAt time.Time
}

// FromLifecycle encodes evt and captures the caller's trace context so the relay
// can continue the trace.
func FromLifecycle(ctx context.Context, evt model.LifecycleEvent) (Event, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Event{}, err
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	return Event{
		EventID:       evt.EventID,
		AggregateType: AggregateAppointment,
		AggregateID:   evt.AppointmentID,
		EventType:     evt.Type,
		Payload:       payload,
		Traceparent:   traceparent,
		Tracestate:    tracestate,
	}, nil
}
