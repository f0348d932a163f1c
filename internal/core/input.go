package core

import "fmt"

// Input is an expense as typed by the user, before any parsing.
type Input struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// ValidationError reports which field rejected a write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Expense parses and validates the input. The returned expense has no ID.
func (in Input) Expense() (Expense, error) {
	var e Expense
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return e, &ValidationError{Field: "amount", Err: err}
	}
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return e, &ValidationError{Field: "category", Err: err}
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return e, &ValidationError{Field: "date", Err: err}
	}
	e = Expense{
		Description: in.Description,
		Amount:      Money{Cents: cents},
		Category:    cat,
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}
