// Package calendar does local-timezone calendar-date arithmetic. All period
// math in the engine runs on local calendar days, never on UTC-shifted
// timestamps, so a record logged just before midnight stays on its own day.
package calendar

import "time"

const (
	DateLayout = "2006-01-02"

	// DefaultPeriodDays is the fixed challenge length.
	DefaultPeriodDays = 30
)

// ParseLocalDate parses a YYYY-MM-DD string as local midnight. Input is
// expected to already match the layout; anything else is a caller error.
func ParseLocalDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatLocalDate is the inverse of ParseLocalDate, zero-padded.
func FormatLocalDate(t time.Time) string {
	return t.Format(DateLayout)
}

// midnight truncates t to local midnight of its calendar day.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. Rounding absorbs the 23h/25h
// days around DST transitions.
func daysBetween(a, b time.Time) int {
	hours := midnight(b).Sub(midnight(a)).Hours()
	if hours >= 0 {
		return int(hours/24 + 0.5)
	}
	return -int(-hours/24 + 0.5)
}

// DayNumber is the 1-based index of today within a period starting at start.
// The start date itself is day 1. Returns 0 before the period begins and
// caps at duration once the period is over. duration <= 0 uses the default
// 30-day length.
func DayNumber(start, today time.Time, duration int) int {
	if duration <= 0 {
		duration = DefaultPeriodDays
	}
	n := daysBetween(start, today) + 1
	if n < 1 {
		return 0
	}
	if n > duration {
		return duration
	}
	return n
}

// DaysRemaining counts whole days left until end, never negative. A partial
// day still counts as one remaining.
func DaysRemaining(end, today time.Time) int {
	n := daysBetween(today, end)
	if n < 0 {
		return 0
	}
	return n
}

// IsActive reports whether today falls inside [start, end], inclusive on
// both ends.
func IsActive(start, end, today time.Time) bool {
	d := midnight(today)
	return !d.Before(midnight(start)) && !d.After(midnight(end))
}
