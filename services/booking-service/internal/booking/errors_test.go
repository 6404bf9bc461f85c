package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
)

func TestErrorIsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", slotTaken(nil))
	if !errors.Is(err, ErrSlotUnavailable) || !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("slot taken should match its kind and code: %v", err)
	}
	if errors.Is(err, ErrNotBookable) {
		t.Fatalf("slot taken must not match NOT_BOOKABLE")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("kinds must not cross-match")
	}
}

func TestMapStorage(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		claiming  bool
		want      *Error
		retriable bool
	}{
		{"missing row", storage.ErrNotFound, false, ErrNotFound, false},
		{"conflict during claim", storage.ErrConflict, true, ErrSlotTaken, false},
		{"conflict elsewhere", storage.ErrConflict, false, ErrStorage, true},
		{"unavailable", fmt.Errorf("dial: %w", storage.ErrUnavailable), false, ErrStorage, true},
		{"deadline", context.DeadlineExceeded, true, ErrStorage, true},
		{"other", errors.New("boom"), true, ErrStorage, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapStorage(tc.err, tc.claiming)
			if !errors.Is(got, tc.want) {
				t.Fatalf("mapStorage(%v) = %v, want %v", tc.err, got, tc.want)
			}
			var be *Error
			if !errors.As(got, &be) || be.Retriable != tc.retriable {
				t.Fatalf("retriable = %v, want %v", be != nil && be.Retriable, tc.retriable)
			}
		})
	}
	if mapStorage(nil, true) != nil {
		t.Fatal("nil must stay nil")
	}
	orig := invalidTransition(CodeAlreadyCancelled, "done")
	if mapStorage(orig, false) != error(orig) {
		t.Fatal("booking errors pass through unchanged")
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Fatal("nil outcome")
	}
	if got := Outcome(forbidden("no")); got != string(KindForbidden) {
		t.Fatalf("Outcome = %q", got)
	}
	if got := Outcome(errors.New("raw")); got != string(KindStorage) {
		t.Fatalf("Outcome = %q", got)
	}
}
