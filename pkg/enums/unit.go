package enums

import "fmt"

// Unit defines the unit-of-measure tags an item amount can carry.
type Unit string

const (
	UnitCount      Unit = "count"
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitLiter      Unit = "L"
	UnitMilliliter Unit = "ml"
	UnitPound      Unit = "lb"
	UnitOunce      Unit = "oz"
)

var validUnits = []Unit{
	UnitCount,
	UnitGram,
	UnitKilogram,
	UnitLiter,
	UnitMilliliter,
	UnitPound,
	UnitOunce,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value matches a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}

// UnitOrDefault maps absent or unrecognized input to UnitCount.
func UnitOrDefault(value string) Unit {
	if parsed, err := ParseUnit(value); err == nil {
		return parsed
	}
	return UnitCount
}
