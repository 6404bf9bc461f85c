package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
)

func (s *Store) ListRules(_ context.Context, providerID string) ([]model.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AvailabilityRule
	for _, r := range s.rules {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateRule(_ context.Context, rule model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.rules[rule.ID]; dup {
		return fmt.Errorf("%w: duplicate rule id", storage.ErrConflict)
	}
	if rule.DayOfWeek != nil {
		d := *rule.DayOfWeek
		rule.DayOfWeek = &d
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *Store) DeleteRule(_ context.Context, providerID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleID]
	if !ok || r.ProviderID != providerID {
		return storage.ErrNotFound
	}
	delete(s.rules, ruleID)
	return nil
}

func (s *Store) GetType(_ context.Context, typeID string) (model.AppointmentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[typeID]
	if !ok {
		return model.AppointmentType{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTypes(_ context.Context, providerID string) ([]model.AppointmentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AppointmentType
	for _, t := range s.types {
		if t.ProviderID == providerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateType(_ context.Context, t model.AppointmentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.types[t.ID]; dup {
		return fmt.Errorf("%w: duplicate appointment type id", storage.ErrConflict)
	}
	s.types[t.ID] = t
	return nil
}
