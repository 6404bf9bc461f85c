package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/token"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindSlotUnavailable   Kind = "slot_unavailable"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindStorage           Kind = "storage_failure"
)

const (
	CodeSlotTaken        = "SLOT_TAKEN"
	CodeNotBookable      = "NOT_BOOKABLE"
	CodeAlreadyCancelled = "ALREADY_CANCELLED"
	CodeNotStarted       = "NOT_STARTED"
)

// Error is the single error type returned by Manager. Business outcomes and
// infrastructure faults are told apart by Kind.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Retriable bool
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += "/" + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Code when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrSlotUnavailable   = &Error{Kind: KindSlotUnavailable}
	ErrSlotTaken         = &Error{Kind: KindSlotUnavailable, Code: CodeSlotTaken}
	ErrNotBookable       = &Error{Kind: KindSlotUnavailable, Code: CodeNotBookable}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrAlreadyCancelled  = &Error{Kind: KindInvalidTransition, Code: CodeAlreadyCancelled}
	ErrNotStarted        = &Error{Kind: KindInvalidTransition, Code: CodeNotStarted}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrStorage           = &Error{Kind: KindStorage}
)

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func slotTaken(err error) *Error {
	return &Error{Kind: KindSlotUnavailable, Code: CodeSlotTaken, Message: "slot is no longer available", Err: err}
}

func notBookable(msg string) *Error {
	return &Error{Kind: KindSlotUnavailable, Code: CodeNotBookable, Message: msg}
}

func invalidTransition(code, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Code: code, Message: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// notFound never says why: a wrong token and a missing row look the same.
func notFound() *Error {
	return &Error{Kind: KindNotFound, Message: "appointment not found"}
}

// mapStorage turns a storage error into an *Error. claiming selects how a
// conflict is reported: during a claim it means the slot was taken.
func mapStorage(err error, claiming bool) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, token.ErrNotFound):
		return notFound()
	case errors.Is(err, storage.ErrConflict) && claiming:
		return slotTaken(err)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, storage.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindStorage, Message: "storage temporarily unavailable", Retriable: true, Err: err}
	default:
		return &Error{Kind: KindStorage, Message: "storage failure", Err: err}
	}
}

// Outcome labels err for logs and metrics.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var be *Error
	if errors.As(err, &be) {
		return string(be.Kind)
	}
	return string(KindStorage)
}
