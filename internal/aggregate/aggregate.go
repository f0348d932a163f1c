// Package aggregate derives read-only views from an expense collection:
// category and month totals, statistics relative to a reference date, and
// sorted/filtered listings.
//
// Every function is pure. Inputs are never modified and every result is a
// freshly allocated value, so callers may hold on to it.
package aggregate

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"expenses/internal/core"
)

// SortKey selects the ordering of SortAndFilter.
type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByAmount      SortKey = "amount"
	SortByDescription SortKey = "description"
)

var ErrInvalidSortKey = errors.New("invalid sort key")

var hundred = decimal.NewFromInt(100)

// ParseSortKey accepts date, amount or description (case-insensitive).
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortByDate, SortByAmount, SortByDescription:
		return k, nil
	case "":
		return SortByDate, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// ByCategory sums amounts per category in order of first appearance.
func ByCategory(expenses []core.Expense) []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0)
	index := make(map[core.Category]int)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// ByMonth sums amounts per YYYY-MM bucket, ascending. Expenses without a
// usable date are left out.
func ByMonth(expenses []core.Expense) []core.MonthTotal {
	sums := make(map[core.MonthKey]core.Money)
	for _, e := range expenses {
		k := core.MonthKeyOf(e.Date)
		if k == "" {
			continue
		}
		sums[k] = sums[k].Add(e.Amount)
	}
	out := make([]core.MonthTotal, 0, len(sums))
	for k, total := range sums {
		out = append(out, core.MonthTotal{Month: k, Total: total})
	}
	slices.SortFunc(out, func(a, b core.MonthTotal) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// Summarize computes the statistics view. A zero ref means now; only the
// year and month of ref matter.
func Summarize(expenses []core.Expense, ref time.Time) core.Stats {
	if ref.IsZero() {
		ref = time.Now()
	}
	current := core.MonthKeyOfTime(ref)
	previous := current.Previous()

	stats := core.Stats{Count: len(expenses), CurrentMonth: current}
	for _, e := range expenses {
		stats.Total = stats.Total.Add(e.Amount)
		switch core.MonthKeyOf(e.Date) {
		case current:
			stats.CurrentMonthTotal = stats.CurrentMonthTotal.Add(e.Amount)
			stats.CurrentMonthCount++
		case previous:
			stats.PreviousMonthTotal = stats.PreviousMonthTotal.Add(e.Amount)
		}
	}

	if stats.Count > 0 {
		avg := stats.Total.Decimal().Div(decimal.NewFromInt(int64(stats.Count)))
		stats.Average, _ = core.MoneyFromDecimal(avg)
	}
	stats.MonthOverMonthChangePct = changePct(stats.CurrentMonthTotal, stats.PreviousMonthTotal)

	// Strictly greater keeps the first category to reach the maximum.
	for _, ct := range ByCategory(expenses) {
		if !stats.HasTopCategory() || ct.Total.Cents > stats.TopCategoryTotal.Cents {
			stats.TopCategory = ct.Category
			stats.TopCategoryTotal = ct.Total
		}
	}
	return stats
}

// changePct is 0 when there is nothing to compare against.
func changePct(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	pct := current.Decimal().Sub(previous.Decimal()).
		Div(previous.Decimal()).
		Mul(hundred).
		Round(2)
	return pct.InexactFloat64()
}

// SortAndFilter returns the expenses of category filter (all of them when
// filter is empty) ordered by key. Date and amount sort most recent/largest
// first; description sorts ascending by English collation. Ties keep input
// order. An unknown key keeps input order.
func SortAndFilter(expenses []core.Expense, key SortKey, filter core.Category) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if filter == "" || e.Category == filter {
			out = append(out, e)
		}
	}

	switch key {
	case SortByDate:
		slices.SortStableFunc(out, func(a, b core.Expense) int {
			return b.Date.Compare(a.Date.Time)
		})
	case SortByAmount:
		slices.SortStableFunc(out, func(a, b core.Expense) int {
			return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
		})
	case SortByDescription:
		coll := collate.New(language.English)
		slices.SortStableFunc(out, func(a, b core.Expense) int {
			return coll.CompareString(a.Description, b.Description)
		})
	}
	return out
}

// UsedCategories lists the distinct categories present, in first-seen order.
func UsedCategories(expenses []core.Expense) []core.Category {
	totals := ByCategory(expenses)
	out := make([]core.Category, len(totals))
	for i, ct := range totals {
		out[i] = ct.Category
	}
	return out
}
