// Package dates converts between the API's calendar-date wire format and the
// UTC-midnight time.Time values stored in DATE columns.
package dates

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// WireLayout is the DD/MM/YYYY format used in request and response bodies.
const WireLayout = "02/01/2006"

// ParseWire parses a DD/MM/YYYY date into a UTC calendar date.
func ParseWire(s string) (time.Time, error) {
	t, err := time.ParseInLocation(WireLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY", s)
	}
	return t, nil
}

// FormatWire renders a stored calendar date as DD/MM/YYYY.
func FormatWire(t time.Time) string {
	return t.UTC().Format(WireLayout)
}

// Day truncates t to its calendar date, keeping the wall-clock day of t's
// own location and expressing it as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last calendar dates of the given month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}
	anchor := cfg.With(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	return Day(anchor.BeginningOfMonth()), Day(anchor.EndOfMonth())
}
