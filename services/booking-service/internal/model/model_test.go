package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{"09:00": 540, "00:00": 0, "24:00": 1440, "13:45": 825}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Fatalf("ParseClock(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, bad := range []string{"9", "25:00", "24:30", "10:60", "ab:cd", "10:5"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	monday := 1
	bad := 7
	cases := []struct {
		name string
		rule AvailabilityRule
		ok   bool
	}{
		{"recurring", AvailabilityRule{DayOfWeek: &monday, StartMinute: 540, EndMinute: 1020}, true},
		{"date", AvailabilityRule{Date: "2025-03-10", StartMinute: 720, EndMinute: 780, Blocked: true}, true},
		{"both", AvailabilityRule{DayOfWeek: &monday, Date: "2025-03-10", StartMinute: 0, EndMinute: 60}, false},
		{"neither", AvailabilityRule{StartMinute: 0, EndMinute: 60}, false},
		{"bad day", AvailabilityRule{DayOfWeek: &bad, StartMinute: 0, EndMinute: 60}, false},
		{"bad date", AvailabilityRule{Date: "10/03/2025", StartMinute: 0, EndMinute: 60}, false},
		{"empty range", AvailabilityRule{DayOfWeek: &monday, StartMinute: 600, EndMinute: 600}, false},
		{"past midnight", AvailabilityRule{DayOfWeek: &monday, StartMinute: 1380, EndMinute: 1500}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate() err=%v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestRuleAppliesTo(t *testing.T) {
	monday := 1
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !(AvailabilityRule{DayOfWeek: &monday}).AppliesTo(day) {
		t.Fatal("recurring monday rule should apply to 2025-03-10")
	}
	if (AvailabilityRule{Date: "2025-03-11"}).AppliesTo(day) {
		t.Fatal("date rule for 03-11 should not apply to 03-10")
	}
}

func TestStatusClassification(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		if !s.Active() || s.Terminal() {
			t.Fatalf("%s should be active", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusCompleted, StatusNoShow} {
		if s.Active() || !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
