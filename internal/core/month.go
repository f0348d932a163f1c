package core

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as YYYY-MM. Zero-padding makes the
// lexicographic order chronological.
type MonthKey string

const monthKeyLayout = "2006-01"

// MonthKeyFor builds the key for a year and month (1-12).
func MonthKeyFor(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyOf returns the month bucket of d, or "" for an empty date.
func MonthKeyOf(d Date) MonthKey {
	if d.IsEmpty() {
		return ""
	}
	return MonthKeyFor(d.Year(), d.Month())
}

// MonthKeyOfTime returns the month bucket of t in t's location.
func MonthKeyOfTime(t time.Time) MonthKey {
	return MonthKeyFor(t.Year(), int(t.Month()))
}

// Time returns the first day of the month in UTC.
func (k MonthKey) Time() (time.Time, error) {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month key %q: %w", string(k), err)
	}
	return t, nil
}

// Previous returns the month before k; January rolls back to December of the prior year.
func (k MonthKey) Previous() MonthKey {
	t, err := k.Time()
	if err != nil {
		return ""
	}
	return MonthKeyOfTime(t.AddDate(0, -1, 0))
}

// Label renders the key the way chart axes show it, e.g. "Jan 2024".
func (k MonthKey) Label() string {
	t, err := k.Time()
	if err != nil {
		return string(k)
	}
	return t.Format("Jan 2006")
}

// String implements fmt.Stringer
func (k MonthKey) String() string {
	return string(k)
}
