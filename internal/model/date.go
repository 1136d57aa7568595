package model

import (
	"fmt"
	"time"
)

// DateFormat is the calendar date layout used in storage, CSV and the API.
const DateFormat = "2006-01-02"

// Date truncates t to its calendar date at UTC midnight. Time of day has no
// significance in the ledger.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats a calendar date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DateRange is an inclusive range of calendar dates. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

