package planner

import (
	"testing"
	"time"
)

// Friday 2024-03-15 10:30 local.
var refNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func mustResolve(t *testing.T, value string) DateRange {
	t.Helper()
	r, ok := ResolveDateLiteral(value, refNow)
	if !ok {
		t.Fatalf("ResolveDateLiteral(%q) not recognized", value)
	}
	return r
}

func TestResolveDateLiteralToday(t *testing.T) {
	r := mustResolve(t, "today")

	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("today = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestResolveDateLiteralYesterday(t *testing.T) {
	r := mustResolve(t, "yesterday")

	wantStart := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("yesterday = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestResolveDateLiteralThisWeekStartsMonday(t *testing.T) {
	r := mustResolve(t, "this week")

	// 2024-03-15 is a Friday; the week began Monday 2024-03-11.
	wantStart := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("this week = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestResolveDateLiteralLastWeek(t *testing.T) {
	r := mustResolve(t, "last_week")

	wantStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("last week = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestResolveDateLiteralThisMonth(t *testing.T) {
	r := mustResolve(t, "This Month")

	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("this month = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestResolveTimeOfDay(t *testing.T) {
	dayStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)

	cases := []struct {
		value string
		start time.Time
		end   time.Time
	}{
		{"after 9am", dayStart.Add(9 * time.Hour), dayEnd},
		{"after 9:15 am", dayStart.Add(9*time.Hour + 15*time.Minute), dayEnd},
		{"before 5:30 pm", dayStart, dayStart.Add(17*time.Hour + 30*time.Minute)},
		{"after 12pm", dayStart.Add(12 * time.Hour), dayEnd},
		{"after 12am", dayStart, dayEnd},
		{"before 18:45", dayStart, dayStart.Add(18*time.Hour + 45*time.Minute)},
	}
	for _, tc := range cases {
		r, ok := ResolveDateLiteral(tc.value, refNow)
		if !ok {
			t.Errorf("%q not recognized", tc.value)
			continue
		}
		if !r.Start.Equal(tc.start) || !r.End.Equal(tc.end) {
			t.Errorf("%q = [%v, %v], want [%v, %v]", tc.value, r.Start, r.End, tc.start, tc.end)
		}
	}
}

func TestResolveDateLiteralRejectsUnknown(t *testing.T) {
	for _, value := range []string{"late", "next week", "after 25", "before 13pm", "after 9:75am", "2024-03-15", ""} {
		if _, ok := ResolveDateLiteral(value, refNow); ok {
			t.Errorf("%q should not resolve", value)
		}
	}
}
