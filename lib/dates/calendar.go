package dates

import (
	"fmt"
	"time"
)

// Layouts accepted for incoming date values. Callers send either plain dates
// or full ISO-8601 timestamps depending on which client produced the record.
var layouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse parses an ISO-8601 date or timestamp string
func Parse(value string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date value %q", value)
}

// Day truncates a timestamp to its calendar date, discarding time of day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from one date to another.
// The result is negative when to precedes from. Time of day is ignored.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// AddMonths advances a date by the given number of calendar months
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// StartOfMonth returns midnight on the first day of the month containing t
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last instant of the month containing t
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// SameMonth reports whether t falls inside the calendar month containing ref
func SameMonth(t, ref time.Time) bool {
	return !t.Before(StartOfMonth(ref)) && !t.After(EndOfMonth(ref))
}
