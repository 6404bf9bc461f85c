package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

type RuleRepository struct {
	pool *db.Pool
}

func NewRuleRepository(pool *db.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

func (r *RuleRepository) ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, day_of_week, rule_date, start_minute, end_minute, blocked, block_reason, created_at
		FROM availability_rules
		WHERE provider_id = $1
		ORDER BY created_at, id
	`, providerID)
	if err != nil {
		return nil, classify(err)
	}
	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AvailabilityRule, error) {
		var (
			rule model.AvailabilityRule
			dow  *int16
			date *time.Time
		)
		if err := row.Scan(&rule.ID, &rule.ProviderID, &dow, &date, &rule.StartMinute, &rule.EndMinute,
			&rule.Blocked, &rule.BlockReason, &rule.CreatedAt); err != nil {
			return rule, err
		}
		if dow != nil {
			d := int(*dow)
			rule.DayOfWeek = &d
		}
		if date != nil {
			rule.Date = date.Format(model.DateLayout)
		}
		return rule, nil
	})
	return rules, classify(err)
}

func (r *RuleRepository) CreateRule(ctx context.Context, rule model.AvailabilityRule) error {
	var date *string
	if rule.Date != "" {
		date = &rule.Date
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_rules
			(id, provider_id, day_of_week, rule_date, start_minute, end_minute, blocked, block_reason, created_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9)
	`, rule.ID, rule.ProviderID, rule.DayOfWeek, date, rule.StartMinute, rule.EndMinute,
		rule.Blocked, rule.BlockReason, rule.CreatedAt)
	return classify(err)
}

func (r *RuleRepository) DeleteRule(ctx context.Context, providerID, ruleID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1 AND provider_id = $2`, ruleID, providerID)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
