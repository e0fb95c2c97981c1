/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Contract violations - malformed month/date identifiers
  2. Calendar errors - holiday provider failures
  3. Calculation errors - conditions that force a fallback result
  4. Store errors - missing records

FALLBACKS:
  The calendar, working-days and salary components never return errors
  past their public entry points. Instead they substitute a fallback value
  and record the cause as a FallbackError so callers can tell the two apart.

SEE ALSO:
  - workdays/workdays.go: WorkingDaysInfo.Fallback
  - salary/engine.go: SalaryBreakdown.Fallback
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMonth is returned when a month identifier is not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month (expected YYYY-MM)")

	// ErrInvalidDate is returned when a date identifier is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrProviderUnavailable is returned when holiday data cannot be fetched.
	ErrProviderUnavailable = errors.New("holiday provider unavailable")

	// ErrUnsupportedLocation is returned when a provider has no table for a country/state.
	ErrUnsupportedLocation = errors.New("unsupported holiday location")

	// ErrNoRequiredDays is returned when a month has no payable working days.
	ErrNoRequiredDays = errors.New("no required working days in month")

	// ErrCalculationPanic wraps a recovered panic inside the core.
	ErrCalculationPanic = errors.New("calculation panicked")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmptySheet is returned when an uploaded sheet has no usable rows.
	ErrEmptySheet = errors.New("sheet has no attendance rows")

	// ErrInvalidSheet is returned when an uploaded file cannot be read as a sheet.
	ErrInvalidSheet = errors.New("invalid attendance sheet")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FallbackError records why a component substituted its fallback result.
type FallbackError struct {
	Component string // "workdays", "salary"
	Cause     error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%s fell back: %v", e.Component, e.Cause)
}

func (e *FallbackError) Unwrap() error {
	return e.Cause
}

// Recovered converts a recovered panic value into an error.
func Recovered(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrCalculationPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrCalculationPanic, v)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrEmptySheet) ||
		errors.Is(err, ErrInvalidSheet) ||
		errors.Is(err, ErrUnsupportedLocation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}
