package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	MinutesPerDay = 24 * 60
)

// AvailabilityRule is either recurring (DayOfWeek set, 0 = Sunday) or tied to one
// calendar Date. Minutes are offsets from local midnight in the provider's zone.
type AvailabilityRule struct {
	ID          string
	ProviderID  string
	DayOfWeek   *int
	Date        string
	StartMinute int
	EndMinute   int
	Blocked     bool
	BlockReason string
	CreatedAt   time.Time
}

func (r AvailabilityRule) Recurring() bool {
	return r.DayOfWeek != nil
}

func (r AvailabilityRule) Validate() error {
	switch {
	case r.DayOfWeek != nil && r.Date != "":
		return fmt.Errorf("rule must set day_of_week or date, not both")
	case r.DayOfWeek == nil && strings.TrimSpace(r.Date) == "":
		return fmt.Errorf("rule must set day_of_week or date")
	case r.DayOfWeek != nil && (*r.DayOfWeek < 0 || *r.DayOfWeek > 6):
		return fmt.Errorf("day_of_week must be in [0,6]")
	}
	if r.Date != "" {
		if _, err := time.Parse(DateLayout, r.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD")
		}
	}
	if r.StartMinute < 0 || r.EndMinute > MinutesPerDay {
		return fmt.Errorf("times must fall within one day")
	}
	if r.StartMinute >= r.EndMinute {
		return fmt.Errorf("start_time must be before end_time")
	}
	return nil
}

// AppliesTo reports whether the rule contributes to the given local calendar day.
func (r AvailabilityRule) AppliesTo(day time.Time) bool {
	if r.DayOfWeek != nil {
		return int(day.Weekday()) == *r.DayOfWeek
	}
	return r.Date == day.Format(DateLayout)
}

// ParseClock converts "HH:MM" to minutes after midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, herr := strconv.Atoi(hh)
	m, merr := strconv.Atoi(mm)
	if herr != nil || merr != nil || h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

type AppointmentType struct {
	ID              string
	ProviderID      string
	Name            string
	DurationMinutes int
	BufferMinutes   int
	IsActive        bool
	CreatedAt       time.Time
}

func (t AppointmentType) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// Step is the distance between consecutive tile starts.
func (t AppointmentType) Step() time.Duration {
	return time.Duration(t.DurationMinutes+t.BufferMinutes) * time.Minute
}

func (t AppointmentType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if t.DurationMinutes <= 0 || t.DurationMinutes > MinutesPerDay {
		return fmt.Errorf("duration_minutes must be in (0,1440]")
	}
	if t.BufferMinutes < 0 {
		return fmt.Errorf("buffer_minutes must not be negative")
	}
	return nil
}
