package booking

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// Notifier receives lifecycle events synchronously after the transition commits.
// Delivery is at-least-once; implementations must tolerate duplicates.
type Notifier interface {
	Notify(ctx context.Context, evt model.LifecycleEvent) error
}

type NotifierFunc func(ctx context.Context, evt model.LifecycleEvent) error

func (f NotifierFunc) Notify(ctx context.Context, evt model.LifecycleEvent) error {
	return f(ctx, evt)
}

// LogNotifier writes each event to the log. Useful in local runs without a broker.
func LogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(ctx context.Context, evt model.LifecycleEvent) error {
		logger.InfoContext(ctx, "appointment lifecycle event",
			"event_type", evt.Type,
			"event_id", evt.EventID,
			"appointment_id", evt.AppointmentID,
			"status", evt.Status,
		)
		return nil
	})
}

func (m *Manager) notify(ctx context.Context, evt model.LifecycleEvent) {
	// The transition is already committed; a notifier failure must not undo it.
	ctx = context.WithoutCancel(ctx)
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, evt); err != nil {
			m.logger.Warn("lifecycle notifier failed",
				"event_type", evt.Type,
				"appointment_id", evt.AppointmentID,
				"err", err,
			)
		}
	}
}
