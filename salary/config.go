package salary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Method selects how the monthly salary is derived from attendance.
type Method string

const (
	// MethodAuto picks proportional above the threshold, daily wage otherwise.
	MethodAuto         Method = "auto"
	MethodProportional Method = "proportional"
	MethodDailyWage    Method = "daily_wage"
)

func (m Method) Valid() bool {
	return m == MethodAuto || m == MethodProportional || m == MethodDailyWage
}

// ParseMethod accepts the wire names plus a few spellings seen in sheets.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "proportional", "prorata", "pro-rata":
		return MethodProportional, nil
	case "daily_wage", "daily-wage", "dailywage", "daily":
		return MethodDailyWage, nil
	}
	return "", fmt.Errorf("unknown salary calculation method %q", s)
}

// Config holds the business constants of the salary engine.
type Config struct {
	HoursPerDay           decimal.Decimal
	ProportionalThreshold decimal.Decimal
	FallbackRequiredDays  int
	DefaultBaseSalary     decimal.Decimal
	ExcludeSaturdays      bool

	// ClampDailyWage caps daily-wage payouts at the base salary. Off by
	// default: the daily-wage method is unclamped and overshoot is only
	// reported through SalaryBreakdown.ExceedsBaseSalary.
	ClampDailyWage bool
}

// DefaultConfig returns the standard payroll constants.
func DefaultConfig() Config {
	return Config{
		HoursPerDay:           decimal.NewFromInt(8),
		ProportionalThreshold: decimal.NewFromInt(8000),
		FallbackRequiredDays:  27,
		DefaultBaseSalary:     decimal.NewFromInt(8000),
	}
}

func (c Config) Validate() error {
	if !c.HoursPerDay.IsPositive() {
		return fmt.Errorf("hours per day must be positive, got %s", c.HoursPerDay)
	}
	if c.FallbackRequiredDays <= 0 {
		return fmt.Errorf("fallback required days must be positive, got %d", c.FallbackRequiredDays)
	}
	if c.DefaultBaseSalary.IsNegative() {
		return fmt.Errorf("default base salary must not be negative, got %s", c.DefaultBaseSalary)
	}
	return nil
}

// EmployeeConfig is the per-employee salary setup. Zero values mean
// "use the default".
type EmployeeConfig struct {
	BaseSalary decimal.Decimal `json:"baseSalary"`
	DailyWage  decimal.Decimal `json:"dailyWage"`
	Method     Method          `json:"salaryCalculationMethod"`
}

// Resolve fills defaults so the engine never sees a partially set config.
func (e EmployeeConfig) Resolve(cfg Config) EmployeeConfig {
	out := e
	if !out.BaseSalary.IsPositive() {
		out.BaseSalary = cfg.DefaultBaseSalary
	}
	if out.DailyWage.IsNegative() {
		out.DailyWage = decimal.Zero
	}
	if !out.Method.Valid() {
		out.Method = MethodAuto
	}
	return out
}

// Input builds an engine input for one month of attendance.
func (e EmployeeConfig) Input(monthYear string, hoursWorked, daysPresent decimal.Decimal, adminHolidays int) Input {
	return Input{
		HoursWorked:       hoursWorked,
		DaysPresent:       daysPresent,
		MonthYear:         monthYear,
		BaseSalary:        e.BaseSalary,
		DailyWage:         e.DailyWage,
		Method:            e.Method,
		AdminHolidayCount: adminHolidays,
	}
}
