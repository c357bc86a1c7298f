package planner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is an absolute [start, end] window produced from a literal.
type DateRange struct {
	Start time.Time
	End   time.Time
}

var timeOfDayPattern = regexp.MustCompile(`(?i)^(after|before)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// ResolveDateLiteral resolves a recognized date/time literal to an absolute
// range computed from now (the caller's local clock, not server time).
// Unrecognized strings return ok=false; the resolver never guesses semantic
// meaning for words like "late" or "early".
func ResolveDateLiteral(value string, now time.Time) (DateRange, bool) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Microsecond)

	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), "_")

	switch normalized {
	case "today":
		return DateRange{Start: dayStart, End: dayEnd}, true

	case "yesterday":
		return DateRange{
			Start: dayStart.AddDate(0, 0, -1),
			End:   dayStart.Add(-time.Microsecond),
		}, true

	case "this_week":
		// Week starts Monday.
		offset := (int(dayStart.Weekday()) + 6) % 7
		monday := dayStart.AddDate(0, 0, -offset)
		return DateRange{
			Start: monday,
			End:   monday.AddDate(0, 0, 7).Add(-time.Microsecond),
		}, true

	case "last_week":
		offset := (int(dayStart.Weekday()) + 6) % 7
		monday := dayStart.AddDate(0, 0, -offset-7)
		return DateRange{
			Start: monday,
			End:   monday.AddDate(0, 0, 7).Add(-time.Microsecond),
		}, true

	case "this_month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{
			Start: first,
			End:   first.AddDate(0, 1, 0).Add(-time.Microsecond),
		}, true
	}

	if r, ok := resolveTimeOfDay(value, dayStart, dayEnd); ok {
		return r, true
	}

	return DateRange{}, false
}

// resolveTimeOfDay handles "(after|before) H[:MM] [am|pm]", bounding the
// current day's range at one end. Hours are 1-12 with a meridian, 24-hour
// without one.
func resolveTimeOfDay(value string, dayStart, dayEnd time.Time) (DateRange, bool) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return DateRange{}, false
	}

	direction := strings.ToLower(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute := 0
	if m[3] != "" {
		minute, _ = strconv.Atoi(m[3])
	}
	meridian := strings.ToLower(m[4])

	if minute > 59 {
		return DateRange{}, false
	}
	switch meridian {
	case "pm":
		if hour < 1 || hour > 12 {
			return DateRange{}, false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return DateRange{}, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return DateRange{}, false
		}
	}

	at := dayStart.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

	if direction == "after" {
		return DateRange{Start: at, End: dayEnd}, true
	}
	return DateRange{Start: dayStart, End: at}, true
}
