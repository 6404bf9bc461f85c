package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run executes one public operation: a span, bounded retries of retriable
// storage failures, a per-attempt storage timeout, metrics and a log line.
func (m *Manager) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := m.tracer.Start(ctx, "booking."+op, trace.WithAttributes(
		attribute.String("provider_id", m.cfg.ProviderID),
	))
	defer span.End()

	started := time.Now()
	err := m.retry(ctx, op, fn)
	outcome := Outcome(err)
	metrics.ObserveOperation(op, outcome, time.Since(started))
	span.SetAttributes(attribute.String("outcome", outcome))

	var be *Error
	errors.As(err, &be)
	switch {
	case err == nil:
	case be != nil && be.Kind == KindStorage:
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		m.logger.ErrorContext(ctx, "booking operation failed", "operation", op, "err", err)
	case be != nil && be.Kind == KindSlotUnavailable:
		m.logger.InfoContext(ctx, "slot unavailable", "operation", op, "code", be.Code)
	default:
		m.logger.Log(ctx, slog.LevelDebug, "booking operation rejected", "operation", op, "outcome", outcome, "err", err)
	}
	return err
}

func (m *Manager) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.RetryInitialInterval
	b.MaxInterval = 20 * m.cfg.RetryInitialInterval

	var (
		attempt int
		last    error
	)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if attempt > 1 {
			metrics.IncStorageRetry(op)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.StorageTimeout)
		defer cancel()

		last = fn(attemptCtx)
		var be *Error
		if last == nil || (errors.As(last, &be) && be.Retriable) {
			return struct{}{}, last
		}
		return struct{}{}, backoff.Permanent(last)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(m.cfg.RetryMaxTries))

	if err == nil {
		return nil
	}
	// Retry reports context cancellation on its own; keep the storage error instead.
	if last != nil {
		return last
	}
	return mapStorage(err, false)
}
