package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeStore struct {
	pending   []Record
	published []int64
}

func (s *fakeStore) WithUnpublished(_ context.Context, limit int, fn func([]Record) error) error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if err := fn(batch); err != nil {
		return err
	}
	for _, r := range batch {
		s.published = append(s.published, r.ID)
	}
	s.pending = s.pending[len(batch):]
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func record(t *testing.T, id int64, evt model.LifecycleEvent) Record {
	t.Helper()
	e, err := FromLifecycle(context.Background(), evt)
	if err != nil {
		t.Fatalf("FromLifecycle: %v", err)
	}
	return Record{ID: id, Event: e}
}

func TestPublishBatchRelaysAndMarks(t *testing.T) {
	start := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{pending: []Record{
		record(t, 1, model.LifecycleEvent{EventID: "e1", Type: model.EventCreated, AppointmentID: "a1", StartTime: start}),
		record(t, 2, model.LifecycleEvent{EventID: "e2", Type: model.EventCancelled, AppointmentID: "a1", StartTime: start}),
		record(t, 3, model.LifecycleEvent{EventID: "e3", Type: model.EventCreated, AppointmentID: "a2", StartTime: start}),
	}}
	writer := &fakeWriter{}
	p := NewPublisher(store, writer, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{BatchSize: 2})

	if err := p.PublishBatch(context.Background()); err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if len(writer.msgs) != 2 || len(store.published) != 2 {
		t.Fatalf("wrote %d, marked %d; want 2 and 2", len(writer.msgs), len(store.published))
	}
	msg := writer.msgs[1]
	if msg.Topic != model.EventCancelled || string(msg.Key) != "a1" {
		t.Fatalf("unexpected routing topic=%q key=%q", msg.Topic, msg.Key)
	}
	if meta := kafkax.ExtractEventMeta(msg); meta.EventID != "e2" || meta.EventType != model.EventCancelled {
		t.Fatalf("unexpected headers %+v", meta)
	}
}

func TestPublishBatchLeavesRowsOnWriteFailure(t *testing.T) {
	store := &fakeStore{pending: []Record{record(t, 1, model.LifecycleEvent{EventID: "e1", Type: model.EventCreated, AppointmentID: "a1"})}}
	writer := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisher(store, writer, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{})

	if err := p.PublishBatch(context.Background()); err == nil {
		t.Fatal("expected write error")
	}
	if len(store.pending) != 1 || len(store.published) != 0 {
		t.Fatal("failed batch must stay unpublished")
	}
}

func TestPublishBatchContinuesStoredTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	rec := record(t, 1, model.LifecycleEvent{EventID: "e1", Type: model.EventConfirmed, AppointmentID: "a1"})
	rec.Traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	store := &fakeStore{pending: []Record{rec}}
	writer := &fakeWriter{}
	p := NewPublisher(store, writer, slog.New(slog.NewTextHandler(io.Discard, nil)), PublisherConfig{})

	if err := p.PublishBatch(context.Background()); err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(writer.msgs))
	}
	sc := trace.SpanContextFromContext(kafkax.ExtractTraceContext(context.Background(), writer.msgs[0]))
	if sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id = %s", sc.TraceID())
	}
}
