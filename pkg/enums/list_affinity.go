package enums

import "fmt"

// ListAffinity identifies which of the two lists an item belongs to. An item
// belongs to exactly one list at a time; moving an item across lists mints a
// new identifier rather than flipping this field in place.
type ListAffinity string

const (
	ListPantry  ListAffinity = "pantry"
	ListGrocery ListAffinity = "grocery"
)

var validListAffinities = []ListAffinity{
	ListPantry,
	ListGrocery,
}

// String implements fmt.Stringer.
func (l ListAffinity) String() string {
	return string(l)
}

// IsValid reports whether the value matches a known ListAffinity.
func (l ListAffinity) IsValid() bool {
	for _, candidate := range validListAffinities {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseListAffinity converts raw input into a ListAffinity.
func ParseListAffinity(value string) (ListAffinity, error) {
	for _, candidate := range validListAffinities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid list %q", value)
}

// Other returns the opposite list.
func (l ListAffinity) Other() ListAffinity {
	if l == ListPantry {
		return ListGrocery
	}
	return ListPantry
}
