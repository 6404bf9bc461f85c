package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
)

const appointmentColumns = `id, provider_id, appointment_type_id, start_time, end_time, status,
	patient_name, patient_email, patient_phone, booking_token, cancelled_by, cancellation_reason,
	cancelled_at, COALESCE(rescheduled_from, ''), created_at, updated_at`

// PostgresLedger keeps appointments in Postgres. Every write runs in a
// serializable transaction; the exclusion constraint is the final arbiter of overlap.
type PostgresLedger struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewPostgresLedger(pool *db.Pool, outboxRepo *outbox.Repository) *PostgresLedger {
	return &PostgresLedger{pool: pool, outbox: outboxRepo}
}

func (l *PostgresLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := db.InTx(ctx, l.pool, pgx.Serializable, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx, outbox: l.outbox})
	})
	return classify(err)
}

func (l *PostgresLedger) ListActive(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	appts, err := listActive(ctx, l.pool, providerID, from, to)
	return appts, classify(err)
}

func (l *PostgresLedger) Get(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(l.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return appt, classify(err)
}

func (l *PostgresLedger) GetByToken(ctx context.Context, token string) (model.Appointment, error) {
	appt, err := scanAppointment(l.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE booking_token = $1`, token))
	return appt, classify(err)
}

func (l *PostgresLedger) List(ctx context.Context, providerID string, limit int) ([]model.Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, classify(err)
	}
	appts, err := pgx.CollectRows(rows, scanAppointmentRow)
	return appts, classify(err)
}

type pgTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (t *pgTx) ListActiveOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]model.Appointment, error) {
	return listActive(ctx, t.tx, providerID, start, end)
}

func (t *pgTx) Insert(ctx context.Context, a model.Appointment) error {
	var rescheduledFrom *string
	if a.RescheduledFrom != "" {
		rescheduledFrom = &a.RescheduledFrom
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO appointments
			(id, provider_id, appointment_type_id, start_time, end_time, status,
			 patient_name, patient_email, patient_phone, booking_token, rescheduled_from, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, a.ID, a.ProviderID, a.AppointmentTypeID, a.StartTime, a.EndTime, string(a.Status),
		a.Patient.Name, a.Patient.Email, a.Patient.Phone, a.BookingToken, rescheduledFrom, a.CreatedAt, a.UpdatedAt)
	return classify(err)
}

func (t *pgTx) GetForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	appt, err := scanAppointment(t.tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	return appt, classify(err)
}

func (t *pgTx) GetByTokenForUpdate(ctx context.Context, token string) (model.Appointment, error) {
	appt, err := scanAppointment(t.tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE booking_token = $1 FOR UPDATE`, token))
	return appt, classify(err)
}

// Update persists lifecycle fields. Interval, patient and token are immutable.
func (t *pgTx) Update(ctx context.Context, a model.Appointment) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			cancelled_by = $3,
			cancellation_reason = $4,
			cancelled_at = $5,
			updated_at = $6
		WHERE id = $1
	`, a.ID, string(a.Status), string(a.CancelledBy), a.CancellationReason, a.CancelledAt, a.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendEvent(ctx context.Context, evt model.LifecycleEvent) error {
	e, err := outbox.FromLifecycle(ctx, evt)
	if err != nil {
		return err
	}
	return classify(t.outbox.Insert(ctx, t.tx, e))
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listActive(ctx context.Context, q querier, providerID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanAppointmentRow)
}

func scanAppointmentRow(row pgx.CollectableRow) (model.Appointment, error) {
	return scanAppointment(row)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a                   model.Appointment
		status, cancelledBy string
	)
	err := row.Scan(&a.ID, &a.ProviderID, &a.AppointmentTypeID, &a.StartTime, &a.EndTime, &status,
		&a.Patient.Name, &a.Patient.Email, &a.Patient.Phone, &a.BookingToken, &cancelledBy, &a.CancellationReason,
		&a.CancelledAt, &a.RescheduledFrom, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.Status(status)
	a.CancelledBy = model.Actor(cancelledBy)
	return a, nil
}
