package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

// classify maps driver errors onto the package sentinels so callers never see pgx types.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return err
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsUniqueViolation(err), db.IsExclusionViolation(err), db.IsSerializationFailure(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, context.Canceled):
		return err
	case db.IsRetriable(err):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
