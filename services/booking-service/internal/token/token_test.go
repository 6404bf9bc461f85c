package token

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type mapLookup map[string]model.Appointment

func (m mapLookup) GetByToken(_ context.Context, tok string) (model.Appointment, error) {
	a, ok := m[tok]
	if !ok {
		return model.Appointment{}, errors.New("no rows")
	}
	return a, nil
}

func TestIssueIsFixedLengthAndUnique(t *testing.T) {
	iss := NewIssuer(mapLookup{})
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		tok, err := iss.Issue()
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if len(tok) != Length || !WellFormed(tok) {
			t.Fatalf("token %q is not %d url-safe chars", tok, Length)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestIssuePropagatesEntropyFailure(t *testing.T) {
	iss := NewIssuer(mapLookup{})
	iss.rand = bytes.NewReader(make([]byte, 8))
	if _, err := iss.Issue(); err == nil {
		t.Fatal("expected short read error")
	}
}

func TestResolve(t *testing.T) {
	iss := NewIssuer(nil)
	tok, _ := iss.Issue()
	iss.lookup = mapLookup{tok: {ID: "a1", BookingToken: tok}}

	appt, err := iss.Resolve(context.Background(), tok)
	if err != nil || appt.ID != "a1" {
		t.Fatalf("Resolve = %+v, %v", appt, err)
	}

	for _, bad := range []string{"", "short", strings.Repeat("!", Length)} {
		if _, err := iss.Resolve(context.Background(), bad); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Resolve(%q) err = %v, want ErrNotFound", bad, err)
		}
	}

	other, _ := iss.Issue()
	iss.lookup = mapLookup{other: {ID: "a2", BookingToken: tok}}
	if _, err := iss.Resolve(context.Background(), other); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mismatched stored token must not resolve, got %v", err)
	}
}
