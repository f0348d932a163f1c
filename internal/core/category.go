package core

import "strings"

// Category is one label of the closed category set.
type Category string

const (
	FoodAndDining  Category = "Food & Dining"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Education      Category = "Education"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Travel         Category = "Travel"
	Other          Category = "Other"
)

var allCategories = []Category{
	FoodAndDining,
	Transportation,
	Shopping,
	Entertainment,
	Healthcare,
	Education,
	Housing,
	Utilities,
	Travel,
	Other,
}

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory maps a label to its Category, rejecting anything outside the set.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCategory
	}
	c := Category(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Category) Validate() error {
	if c == "" {
		return ErrEmptyCategory
	}
	for _, known := range allCategories {
		if c == known {
			return nil
		}
	}
	return ErrUnknownCategory
}

// String implements fmt.Stringer
func (c Category) String() string {
	return string(c)
}
