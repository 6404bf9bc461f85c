package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)

func appt(id, tok string, start time.Time, minutes int) model.Appointment {
	return model.Appointment{
		ID:           id,
		ProviderID:   "p1",
		StartTime:    start,
		EndTime:      start.Add(time.Duration(minutes) * time.Minute),
		Status:       model.StatusPending,
		BookingToken: tok,
	}
}

func insert(s *Store, a model.Appointment) error {
	return s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Insert(ctx, a)
	})
}

func TestInsertEnforcesLedgerConstraints(t *testing.T) {
	s := New()
	require.NoError(t, insert(s, appt("a1", "tok1", base, 30)))

	cases := map[string]model.Appointment{
		"same start":    appt("a2", "tok2", base, 15),
		"overlap":       appt("a3", "tok3", base.Add(15*time.Minute), 30),
		"duplicate tok": appt("a4", "tok1", base.Add(2*time.Hour), 30),
		"duplicate id":  appt("a1", "tok5", base.Add(3*time.Hour), 30),
	}
	for name, a := range cases {
		err := insert(s, a)
		assert.ErrorIs(t, err, storage.ErrConflict, name)
	}

	// Touching intervals are allowed.
	require.NoError(t, insert(s, appt("a6", "tok6", base.Add(30*time.Minute), 30)))
	// Another provider may hold the same time.
	other := appt("a7", "tok7", base, 30)
	other.ProviderID = "p2"
	require.NoError(t, insert(s, other))
}

func TestCancelledRowsReleaseTheirInterval(t *testing.T) {
	s := New()
	a := appt("a1", "tok1", base, 30)
	require.NoError(t, insert(s, a))

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		a.Status = model.StatusCancelled
		return tx.Update(ctx, a)
	})
	require.NoError(t, err)
	require.NoError(t, insert(s, appt("a2", "tok2", base, 30)))
}

func TestFailedTransactionLeavesNoTrace(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailNext(FaultCommit, boom)

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Insert(ctx, appt("a1", "tok1", base, 30)); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, model.LifecycleEvent{EventID: "e1", Type: model.EventCreated, AppointmentID: "a1"})
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Get(context.Background(), "a1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, s.Outbox())

	// The fault is consumed; the retry commits.
	require.NoError(t, insert(s, appt("a1", "tok1", base, 30)))
}

func TestAfterCommitFaultKeepsChanges(t *testing.T) {
	s := New()
	s.FailNext(FaultAfterCommit, storage.ErrUnavailable)

	err := insert(s, appt("a1", "tok1", base, 30))
	require.ErrorIs(t, err, storage.ErrUnavailable)

	got, err := s.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "tok1", got.BookingToken)
}

func TestWithUnpublishedDrainsInOrder(t *testing.T) {
	s := New()
	for i, id := range []string{"e1", "e2", "e3"} {
		err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			return tx.AppendEvent(ctx, model.LifecycleEvent{EventID: id, Type: model.EventCreated, AppointmentID: "a1", StartTime: base.Add(time.Duration(i) * time.Hour)})
		})
		require.NoError(t, err)
	}

	var got []string
	collect := func(batch []outbox.Record) error {
		for _, r := range batch {
			got = append(got, r.EventID)
		}
		return nil
	}
	require.NoError(t, s.WithUnpublished(context.Background(), 2, collect))
	require.NoError(t, s.WithUnpublished(context.Background(), 2, collect))
	require.NoError(t, s.WithUnpublished(context.Background(), 2, collect))
	assert.Equal(t, []string{"e1", "e2", "e3"}, got)
	assert.Len(t, s.Outbox(), 3)
}
