/*
Package generic provides the domain-agnostic primitives of the payroll engine.

KEY CONCEPTS:
  - TimePoint: a calendar day (YYYY-MM-DD on the wire)
  - Month: a calendar month (YYYY-MM on the wire), the key of every calculation
  - Period: a closed range of days
  - Decimal helpers: rounding that matches the payroll display rules

DESIGN PRINCIPLES:
  1. Precision: money, hours and day counts use decimal.Decimal
  2. Type safety: month and date identifiers are parsed once, at the edge
  3. Determinism: nothing in this package reads global state

SEE ALSO:
  - errors.go: sentinel and structured errors
  - calendar/: holiday lookups built on TimePoint and Month
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// EmployeeID identifies an employee across uploads.
type EmployeeID string

var (
	Hundred = decimal.NewFromInt(100)
)

// Round rounds half away from zero to the given number of places.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// RoundWhole rounds to an integer value.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// MaxZero clamps negative values to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Percent returns part/whole*100 rounded to two places, zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return Round(SafeDiv(part, whole).Mul(Hundred), 2)
}

// Float returns d as float64 for JSON DTOs.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
