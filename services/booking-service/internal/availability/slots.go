package availability

import (
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

const (
	DefaultMinNotice = 24 * time.Hour
	DefaultHorizon   = 90 * 24 * time.Hour
)

// Query is everything ResolveSlots needs. It holds no storage handles so the
// result depends only on its fields.
type Query struct {
	// Date selects a calendar day in Location; its clock part is ignored.
	Date      time.Time
	Location  *time.Location
	Type      model.AppointmentType
	Rules     []model.AvailabilityRule
	Busy      []Interval
	Now       time.Time
	MinNotice time.Duration
	Horizon   time.Duration
}

// DayBounds returns local midnight of the day containing t and the following midnight.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Windows merges the rules for the day into coverage windows. Rule bounds are
// wall-clock times in loc, so on DST days a window holds an hour more or less of
// real time than its labels suggest: a skipped hour is never offered and a
// repeated hour is offered twice.
func Windows(day time.Time, loc *time.Location, rules []model.AvailabilityRule) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	local, _ := DayBounds(day, loc)
	y, m, d := local.Date()

	var open, blocked []Interval
	for _, r := range rules {
		if !r.AppliesTo(local) || r.StartMinute >= r.EndMinute {
			continue
		}
		iv := Interval{
			Start: time.Date(y, m, d, 0, r.StartMinute, 0, 0, loc),
			End:   time.Date(y, m, d, 0, r.EndMinute, 0, 0, loc),
		}
		if r.Blocked {
			blocked = append(blocked, iv)
		} else {
			open = append(open, iv)
		}
	}
	return Coverage(open, blocked)
}

// ResolveSlots tiles the day's coverage with steps of duration+buffer and drops
// tiles inside the notice window, past the horizon, or overlapping busy ranges.
func ResolveSlots(q Query) []Interval {
	if !q.Type.IsActive || q.Type.DurationMinutes <= 0 {
		return nil
	}
	duration := q.Type.Duration()
	step := q.Type.Step()
	earliest := q.Now.Add(q.MinNotice)
	latest := q.Now.Add(q.Horizon)

	var tiles []Interval
	for _, w := range Windows(q.Date, q.Location, q.Rules) {
		for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(step) {
			tile := Interval{Start: t, End: t.Add(duration)}
			if t.Before(earliest) || t.After(latest) {
				continue
			}
			if overlapsAny(tile, q.Busy) {
				continue
			}
			tiles = append(tiles, tile)
		}
	}
	return tiles
}

// IsTile reports whether iv is exactly one of the tiles ResolveSlots would return.
func IsTile(q Query, iv Interval) bool {
	for _, t := range ResolveSlots(q) {
		if t.Equal(iv) {
			return true
		}
	}
	return false
}
