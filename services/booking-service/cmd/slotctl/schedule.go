package main

import (
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"gopkg.in/yaml.v3"
)

// scheduleFile is the on-disk description of one provider's week.
type scheduleFile struct {
	Timezone         string     `yaml:"timezone"`
	MinNoticeMinutes *int       `yaml:"min_notice_minutes"`
	HorizonDays      int        `yaml:"horizon_days"`
	Types            []typeSpec `yaml:"types"`
	Rules            []ruleSpec `yaml:"rules"`
	Busy             []busySpec `yaml:"busy"`
}

type typeSpec struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	DurationMinutes int    `yaml:"duration_minutes"`
	BufferMinutes   *int   `yaml:"buffer_minutes"`
	Active          *bool  `yaml:"active"`
}

type ruleSpec struct {
	DayOfWeek *int   `yaml:"day_of_week"`
	Date      string `yaml:"date"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Blocked   bool   `yaml:"blocked"`
	Reason    string `yaml:"reason"`
}

type busySpec struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type schedule struct {
	Location  *time.Location
	MinNotice time.Duration
	Horizon   time.Duration
	Types     map[string]model.AppointmentType
	Rules     []model.AvailabilityRule
	Busy      []availability.Interval
}

func loadSchedule(path string) (schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return schedule{}, err
	}
	var f scheduleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return schedule{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.compile()
}

func (f scheduleFile) compile() (schedule, error) {
	s := schedule{
		Location:  time.UTC,
		MinNotice: availability.DefaultMinNotice,
		Horizon:   availability.DefaultHorizon,
		Types:     map[string]model.AppointmentType{},
	}
	if f.Timezone != "" {
		loc, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return schedule{}, fmt.Errorf("timezone: %w", err)
		}
		s.Location = loc
	}
	if f.MinNoticeMinutes != nil {
		if *f.MinNoticeMinutes < 0 {
			return schedule{}, fmt.Errorf("min_notice_minutes must not be negative")
		}
		s.MinNotice = time.Duration(*f.MinNoticeMinutes) * time.Minute
	}
	if f.HorizonDays > 0 {
		s.Horizon = time.Duration(f.HorizonDays) * 24 * time.Hour
	}

	for i, t := range f.Types {
		typ := model.AppointmentType{
			ID:              t.ID,
			Name:            t.Name,
			DurationMinutes: t.DurationMinutes,
			BufferMinutes:   15,
			IsActive:        t.Active == nil || *t.Active,
		}
		if t.BufferMinutes != nil {
			typ.BufferMinutes = *t.BufferMinutes
		}
		if typ.Name == "" {
			typ.Name = typ.ID
		}
		if typ.ID == "" {
			return schedule{}, fmt.Errorf("types[%d]: id is required", i)
		}
		if err := typ.Validate(); err != nil {
			return schedule{}, fmt.Errorf("types[%d]: %w", i, err)
		}
		s.Types[typ.ID] = typ
	}

	for i, r := range f.Rules {
		start, err := model.ParseClock(r.Start)
		if err != nil {
			return schedule{}, fmt.Errorf("rules[%d]: %w", i, err)
		}
		end, err := model.ParseClock(r.End)
		if err != nil {
			return schedule{}, fmt.Errorf("rules[%d]: %w", i, err)
		}
		rule := model.AvailabilityRule{
			ID:          fmt.Sprintf("rule-%d", i),
			DayOfWeek:   r.DayOfWeek,
			Date:        r.Date,
			StartMinute: start,
			EndMinute:   end,
			Blocked:     r.Blocked,
			BlockReason: r.Reason,
		}
		if err := rule.Validate(); err != nil {
			return schedule{}, fmt.Errorf("rules[%d]: %w", i, err)
		}
		s.Rules = append(s.Rules, rule)
	}

	for i, b := range f.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return schedule{}, fmt.Errorf("busy[%d].start: %w", i, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return schedule{}, fmt.Errorf("busy[%d].end: %w", i, err)
		}
		iv := availability.Interval{Start: start, End: end}
		if !iv.Valid() {
			return schedule{}, fmt.Errorf("busy[%d]: end must be after start", i)
		}
		s.Busy = append(s.Busy, iv)
	}
	return s, nil
}

func (s schedule) query(date time.Time, typeID string, now time.Time) (availability.Query, error) {
	typ, ok := s.Types[typeID]
	if !ok {
		return availability.Query{}, fmt.Errorf("unknown appointment type %q", typeID)
	}
	day, _ := availability.DayBounds(date, s.Location)
	return availability.Query{
		Date:      day,
		Location:  s.Location,
		Type:      typ,
		Rules:     s.Rules,
		Busy:      s.Busy,
		Now:       now,
		MinNotice: s.MinNotice,
		Horizon:   s.Horizon,
	}, nil
}
