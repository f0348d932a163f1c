package core

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category Category
	Total    Money
}

// MonthTotal is the summed amount of one calendar month.
type MonthTotal struct {
	Month MonthKey
	Total Money
}

// Stats is the statistics view of an expense collection relative to a
// reference date.
type Stats struct {
	Total                   Money
	Count                   int
	Average                 Money
	CurrentMonth            MonthKey
	CurrentMonthTotal       Money
	CurrentMonthCount       int
	PreviousMonthTotal      Money
	MonthOverMonthChangePct float64
	// TopCategory is empty when there are no expenses.
	TopCategory      Category
	TopCategoryTotal Money
}

// HasTopCategory reports whether a top category exists.
func (s Stats) HasTopCategory() bool {
	return s.TopCategory != ""
}
