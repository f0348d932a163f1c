package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the persisted and accepted input form of a Date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          ID
		Description string
		Amount      Money
		Category    Category
		Date        Date
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownCategory  = errors.New("unknown category")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO YYYY-MM-DD date. Out-of-range days such as
// 2024-02-30 are rejected rather than normalized.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is unset or could not be parsed.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" for an empty date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks everything except the id, which the tracker owns.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := e.Category.Validate(); err != nil {
		return &ValidationError{Field: "category", Err: err}
	}
	return nil
}
