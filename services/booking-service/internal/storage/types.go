package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type TypeRepository struct {
	pool *db.Pool
}

func NewTypeRepository(pool *db.Pool) *TypeRepository {
	return &TypeRepository{pool: pool}
}

const typeColumns = `id, provider_id, name, duration_minutes, buffer_minutes, is_active, created_at`

func scanType(row pgx.CollectableRow) (model.AppointmentType, error) {
	var t model.AppointmentType
	err := row.Scan(&t.ID, &t.ProviderID, &t.Name, &t.DurationMinutes, &t.BufferMinutes, &t.IsActive, &t.CreatedAt)
	return t, err
}

func (r *TypeRepository) GetType(ctx context.Context, typeID string) (model.AppointmentType, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+typeColumns+` FROM appointment_types WHERE id = $1`, typeID)
	if err != nil {
		return model.AppointmentType{}, classify(err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanType)
	return t, classify(err)
}

func (r *TypeRepository) ListTypes(ctx context.Context, providerID string) ([]model.AppointmentType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+typeColumns+`
		FROM appointment_types
		WHERE provider_id = $1
		ORDER BY name, id
	`, providerID)
	if err != nil {
		return nil, classify(err)
	}
	types, err := pgx.CollectRows(rows, scanType)
	return types, classify(err)
}

func (r *TypeRepository) CreateType(ctx context.Context, t model.AppointmentType) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_types (id, provider_id, name, duration_minutes, buffer_minutes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.ProviderID, t.Name, t.DurationMinutes, t.BufferMinutes, t.IsActive, t.CreatedAt)
	return classify(err)
}
