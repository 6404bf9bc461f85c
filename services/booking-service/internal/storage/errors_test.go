package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, ErrConflict},
		{"unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrConflict},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrConflict},
		{"deadline", context.DeadlineExceeded, ErrUnavailable},
		{"sentinel passthrough", ErrNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	if got := classify(context.Canceled); !errors.Is(got, context.Canceled) || errors.Is(got, ErrUnavailable) {
		t.Fatalf("cancelled context must not be retriable: %v", got)
	}
	plain := errors.New("syntax error")
	if got := classify(plain); got != plain {
		t.Fatalf("unknown errors pass through unchanged, got %v", got)
	}
}
