package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// record is the persisted shape of one expense.
type record struct {
	ID          core.ID     `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

var ErrCorrupt = errors.New("corrupt expense data")

// Encode serializes the collection as a JSON array in collection order.
func Encode(expenses []core.Expense) ([]byte, error) {
	records := make([]record, len(expenses))
	for i, e := range expenses {
		records[i] = record{
			ID:          e.ID,
			Description: e.Description,
			Amount:      json.Number(e.Amount.Decimal().String()),
			Category:    e.Category.String(),
			Date:        e.Date.String(),
		}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode expenses: %w", err)
	}
	return raw, nil
}

// Decode parses a persisted array. A payload that is not a JSON array is
// ErrCorrupt. Records without an id or a readable positive amount are
// dropped and counted in skipped. Unparseable dates load as empty dates and unknown
// categories load as Other.
func Decode(raw []byte) (expenses []core.Expense, skipped int, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []core.Expense{}, 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	expenses = make([]core.Expense, 0, len(items))
	for _, item := range items {
		e, err := decodeRecord(item)
		if err != nil {
			skipped++
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses, skipped, nil
}

func decodeRecord(item json.RawMessage) (core.Expense, error) {
	var r record
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return core.Expense{}, err
	}
	if r.ID == "" {
		return core.Expense{}, core.ErrInvalidID
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return core.Expense{}, core.ErrInvalidAmount
	}
	money, err := core.MoneyFromDecimal(amount)
	if err != nil {
		return core.Expense{}, err
	}
	if err := money.Validate(); err != nil {
		return core.Expense{}, err
	}

	cat, err := core.ParseCategory(r.Category)
	if err != nil {
		cat = core.Other
	}
	// An unreadable date only removes the expense from month buckets.
	date, _ := core.ParseDate(r.Date)

	return core.Expense{
		ID:          r.ID,
		Description: r.Description,
		Amount:      money,
		Category:    cat,
		Date:        date,
	}, nil
}
