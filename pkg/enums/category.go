package enums

import "fmt"

// Category represents the closed set of item categories. The set is fixed and
// not user-extensible.
type Category string

const (
	CategoryOther      Category = "other"
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryGrains     Category = "grains"
	CategorySnacks     Category = "snacks"
	CategoryBeverages  Category = "beverages"
)

var validCategories = []Category{
	CategoryOther,
	CategoryFruits,
	CategoryVegetables,
	CategoryDairy,
	CategoryMeat,
	CategoryGrains,
	CategorySnacks,
	CategoryBeverages,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}

// CategoryOrDefault maps absent or unrecognized input to CategoryOther.
func CategoryOrDefault(value string) Category {
	if parsed, err := ParseCategory(value); err == nil {
		return parsed
	}
	return CategoryOther
}

// SortKey orders categories alphabetically by label except that CategoryOther
// always sorts last.
func (c Category) SortKey() string {
	if c == CategoryOther {
		// "\x7f" sorts after any printable label.
		return "\x7f"
	}
	return string(c)
}
