package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	exclusion := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: "23P01"})
	if !IsExclusionViolation(exclusion) || IsUniqueViolation(exclusion) {
		t.Fatal("expected wrapped 23P01 to classify as exclusion violation only")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected 23505 to classify as unique violation")
	}
	if !IsSerializationFailure(&pgconn.PgError{Code: "40001"}) || !IsSerializationFailure(&pgconn.PgError{Code: "40P01"}) {
		t.Fatal("expected 40001/40P01 to classify as serialization failures")
	}
	if !IsNotFound(fmt.Errorf("load: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to be not found")
	}
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"constraint", &pgconn.PgError{Code: "23505"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetriable(tc.err); got != tc.want {
			t.Fatalf("%s: IsRetriable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
