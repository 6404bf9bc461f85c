package booking

import (
	"context"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// CreateRule adds a recurring or date-specific window for the provider.
func (m *Manager) CreateRule(ctx context.Context, actor model.Actor, rule model.AvailabilityRule) (model.AvailabilityRule, error) {
	if !actor.Staff() {
		return model.AvailabilityRule{}, forbidden("only the provider may edit availability")
	}
	rule.ProviderID = m.cfg.ProviderID
	rule.Date = strings.TrimSpace(rule.Date)
	rule.BlockReason = strings.TrimSpace(rule.BlockReason)
	if !rule.Blocked {
		rule.BlockReason = ""
	}
	if err := rule.Validate(); err != nil {
		return model.AvailabilityRule{}, validationf("%s", err)
	}
	rule.ID = m.newID()
	rule.CreatedAt = m.clock()

	err := m.run(ctx, "create_rule", func(ctx context.Context) error {
		return mapStorage(m.rules.CreateRule(ctx, rule), false)
	})
	if err != nil {
		return model.AvailabilityRule{}, err
	}
	return rule, nil
}

func (m *Manager) ListRules(ctx context.Context, actor model.Actor) ([]model.AvailabilityRule, error) {
	if !actor.Staff() {
		return nil, forbidden("staff only")
	}
	var rules []model.AvailabilityRule
	err := m.run(ctx, "list_rules", func(ctx context.Context) error {
		r, err := m.rules.ListRules(ctx, m.cfg.ProviderID)
		rules = r
		return mapStorage(err, false)
	})
	return rules, err
}

func (m *Manager) DeleteRule(ctx context.Context, actor model.Actor, ruleID string) error {
	if !actor.Staff() {
		return forbidden("only the provider may edit availability")
	}
	if strings.TrimSpace(ruleID) == "" {
		return validationf("rule id is required")
	}
	return m.run(ctx, "delete_rule", func(ctx context.Context) error {
		return mapStorage(m.rules.DeleteRule(ctx, m.cfg.ProviderID, ruleID), false)
	})
}

// CreateType registers an appointment type. The buffer is the configured clinic-wide value.
func (m *Manager) CreateType(ctx context.Context, actor model.Actor, typ model.AppointmentType) (model.AppointmentType, error) {
	if !actor.Staff() {
		return model.AppointmentType{}, forbidden("only the provider may edit appointment types")
	}
	typ.ProviderID = m.cfg.ProviderID
	typ.Name = strings.TrimSpace(typ.Name)
	typ.BufferMinutes = m.cfg.BufferMinutes
	if err := typ.Validate(); err != nil {
		return model.AppointmentType{}, validationf("%s", err)
	}
	typ.ID = m.newID()
	typ.CreatedAt = m.clock()

	err := m.run(ctx, "create_type", func(ctx context.Context) error {
		return mapStorage(m.types.CreateType(ctx, typ), false)
	})
	if err != nil {
		return model.AppointmentType{}, err
	}
	return typ, nil
}

// ListTypes is public so the booking widget can offer a choice.
func (m *Manager) ListTypes(ctx context.Context) ([]model.AppointmentType, error) {
	var types []model.AppointmentType
	err := m.run(ctx, "list_types", func(ctx context.Context) error {
		t, err := m.types.ListTypes(ctx, m.cfg.ProviderID)
		types = t
		return mapStorage(err, false)
	})
	return types, err
}
