/*
engine.go - Monthly salary calculation

PURPOSE:
  Turns one employee's monthly attendance into a bounded salary with a full
  breakdown for display.

ALGORITHM:
  requiredDays   = working days of the month, capped (see workdays)
  effectiveDays  = hoursWorked / 8            (daysPresent input is not used)

  proportional   salary = round(base * min(effectiveDays / requiredDays, 1))
  daily wage     dailyWage = round(base / daysInMonth)
                 salary    = round(effectiveDays * dailyWage)

  Auto selects proportional when base > 8000. The result is floored at 0.
  The daily-wage method is not capped at base; ExceedsBaseSalary reports
  when it overshoots.

FAILURE POLICY:
  Calculate never panics and never returns an error. An invalid month, a
  working-days fallback, a month without required days or a recovered panic
  all produce a daily-wage result on a fixed 27-day basis, with Fallback set.

SEE ALSO:
  - workdays/workdays.go: required working days
  - config.go: business constants and per-employee setup
*/
package salary

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/workdays"
)

// WorkingDays is the working-days calculator the engine depends on.
type WorkingDays interface {
	Compute(monthYear string, excludeSaturdays bool, adminHolidayCount int) workdays.WorkingDaysInfo
}

// Input is one salary calculation request.
type Input struct {
	HoursWorked       decimal.Decimal
	DaysPresent       decimal.Decimal
	MonthYear         string
	BaseSalary        decimal.Decimal
	DailyWage         decimal.Decimal // optional, derived from BaseSalary when zero
	Method            Method
	AdminHolidayCount int
}

// Details is the display part of the breakdown.
type Details struct {
	DailyRate          decimal.Decimal          `json:"dailyRate"`
	CalculationFormula string                   `json:"calculationFormula"`
	Holidays           []calendar.Holiday       `json:"holidays"`
	NonWorkingDays     []workdays.NonWorkingDay `json:"nonWorkingDays"`
	WorkingDays        int                      `json:"workingDays"`
	HolidayCount       int                      `json:"holidayCount"`
	TotalDays          int                      `json:"totalDays"`
}

// SalaryBreakdown is the result of one calculation.
type SalaryBreakdown struct {
	MonthYear            string          `json:"monthYear"`
	BaseSalary           decimal.Decimal `json:"baseSalary"`
	DailyWage            decimal.Decimal `json:"dailyWage"`
	CalculationMethod    Method          `json:"calculationMethod"`
	RequiredDays         int             `json:"requiredDays"`
	DaysPresent          decimal.Decimal `json:"daysPresent"`
	ReportedDaysPresent  decimal.Decimal `json:"reportedDaysPresent"`
	HoursWorked          decimal.Decimal `json:"hoursWorked"`
	ExpectedTotalHours   decimal.Decimal `json:"expectedTotalHours"`
	AvgHoursPerDay       decimal.Decimal `json:"avgHoursPerDay"`
	CalculatedSalary     decimal.Decimal `json:"calculatedSalary"`
	AdjustedSalary       decimal.Decimal `json:"adjustedSalary"`
	AttendancePercentage decimal.Decimal `json:"attendancePercentage"`
	HoursPercentage      decimal.Decimal `json:"hoursPercentage"`
	ExceedsBaseSalary    bool            `json:"exceedsBaseSalary"`
	Details              Details         `json:"salaryBreakdown"`

	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	Err            error  `json:"-"`
}

// Engine calculates salaries.
type Engine struct {
	cfg      Config
	workdays WorkingDays
	logger   logrus.FieldLogger
}

type Option func(*Engine)

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. An invalid cfg is replaced by DefaultConfig.
func NewEngine(wd WorkingDays, cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, workdays: wd}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		e.logger.WithError(err).Warn("Invalid salary config, using defaults")
		e.cfg = DefaultConfig()
	}
	return e
}

// Config returns the constants in use.
func (e *Engine) Config() Config { return e.cfg }

// WorkingDays returns the breakdown the engine would use for monthYear.
func (e *Engine) WorkingDays(monthYear string, adminHolidayCount int) workdays.WorkingDaysInfo {
	return e.workdays.Compute(monthYear, e.cfg.ExcludeSaturdays, adminHolidayCount)
}

// Calculate computes the salary for in. It always returns a well-formed
// breakdown.
func (e *Engine) Calculate(in Input) (out SalaryBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			out = e.fallback(in, generic.Recovered(r))
		}
	}()

	if _, err := generic.ParseMonth(in.MonthYear); err != nil {
		return e.fallback(in, err)
	}

	info := e.WorkingDays(in.MonthYear, in.AdminHolidayCount)
	if info.Fallback {
		cause := info.Err
		if cause == nil {
			cause = errors.New(info.FallbackReason)
		}
		return e.fallback(in, cause)
	}
	if info.RequiredWorkingDays <= 0 {
		return e.fallback(in, fmt.Errorf("%w: %s", generic.ErrNoRequiredDays, in.MonthYear))
	}

	base := in.BaseSalary
	required := decimal.NewFromInt(int64(info.RequiredWorkingDays))
	effective := in.HoursWorked.Div(e.cfg.HoursPerDay)

	method := e.selectMethod(in.Method, base)
	dailyWage := e.dailyWage(in, info.TotalDays)

	var salary decimal.Decimal
	var formula string
	switch method {
	case MethodProportional:
		ratio := generic.MinDecimal(effective.Div(required), decimal.NewFromInt(1))
		salary = generic.RoundWhole(base.Mul(ratio))
		formula = fmt.Sprintf("%s × min(%s / %d days, 1) = %s",
			base.StringFixed(0), generic.Round(effective, 2).StringFixed(2), info.RequiredWorkingDays, salary.StringFixed(0))
	default:
		salary = generic.RoundWhole(effective.Mul(dailyWage))
		formula = fmt.Sprintf("%s hrs ÷ %s = %s days × %s/day = %s",
			in.HoursWorked.StringFixed(2), e.cfg.HoursPerDay.String(), generic.Round(effective, 2).StringFixed(2),
			dailyWage.StringFixed(0), salary.StringFixed(0))
	}
	salary = generic.MaxZero(salary)

	exceeds := salary.GreaterThan(base)
	if exceeds && method == MethodDailyWage && e.cfg.ClampDailyWage {
		salary = base
		formula += fmt.Sprintf(" (capped at %s)", base.StringFixed(0))
	}

	out = e.breakdown(in, method, info.RequiredWorkingDays, dailyWage, effective, salary)
	out.ExceedsBaseSalary = exceeds
	out.Details = Details{
		DailyRate:          dailyWage,
		CalculationFormula: formula,
		Holidays:           info.Holidays,
		NonWorkingDays:     info.NonWorkingDays,
		WorkingDays:        info.WorkingDays,
		HolidayCount:       info.HolidayCount,
		TotalDays:          info.TotalDays,
	}

	if exceeds {
		e.logger.WithFields(logrus.Fields{
			"month":  in.MonthYear,
			"salary": salary.String(),
			"base":   base.String(),
		}).Warn("Calculated salary exceeds base salary")
	}
	return out
}

func (e *Engine) selectMethod(m Method, base decimal.Decimal) Method {
	switch m {
	case MethodProportional, MethodDailyWage:
		return m
	}
	if base.GreaterThan(e.cfg.ProportionalThreshold) {
		return MethodProportional
	}
	return MethodDailyWage
}

func (e *Engine) dailyWage(in Input, days int) decimal.Decimal {
	if in.DailyWage.IsPositive() {
		return in.DailyWage
	}
	if days <= 0 {
		return decimal.Zero
	}
	return generic.RoundWhole(in.BaseSalary.Div(decimal.NewFromInt(int64(days))))
}

// breakdown fills the fields shared by normal and fallback results.
func (e *Engine) breakdown(in Input, method Method, requiredDays int, dailyWage, effective, salary decimal.Decimal) SalaryBreakdown {
	required := decimal.NewFromInt(int64(requiredDays))
	expectedHours := required.Mul(e.cfg.HoursPerDay)

	avg := decimal.Zero
	if !effective.IsZero() {
		avg = generic.Round(in.HoursWorked.Div(effective), 2)
	}

	return SalaryBreakdown{
		MonthYear:            in.MonthYear,
		BaseSalary:           in.BaseSalary,
		DailyWage:            dailyWage,
		CalculationMethod:    method,
		RequiredDays:         requiredDays,
		DaysPresent:          generic.Round(effective, 2),
		ReportedDaysPresent:  in.DaysPresent,
		HoursWorked:          in.HoursWorked,
		ExpectedTotalHours:   expectedHours,
		AvgHoursPerDay:       avg,
		CalculatedSalary:     salary,
		AdjustedSalary:       salary,
		AttendancePercentage: generic.Percent(effective, required),
		HoursPercentage:      generic.Percent(in.HoursWorked, expectedHours),
	}
}

func (e *Engine) fallback(in Input, cause error) (out SalaryBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			out = SalaryBreakdown{MonthYear: in.MonthYear, CalculationMethod: MethodDailyWage, Fallback: true}
		}
	}()

	err := &generic.FallbackError{Component: "salary", Cause: cause}
	e.logger.WithError(cause).WithField("month", in.MonthYear).Warn("Salary calculation failed, using fallback")

	days := e.cfg.FallbackRequiredDays
	dailyWage := e.dailyWage(in, days)
	effective := in.HoursWorked.Div(e.cfg.HoursPerDay)
	salary := generic.MaxZero(generic.RoundWhole(effective.Mul(dailyWage)))

	out = e.breakdown(in, MethodDailyWage, days, dailyWage, effective, salary)
	out.ExceedsBaseSalary = salary.GreaterThan(in.BaseSalary)
	out.Details = Details{
		DailyRate: dailyWage,
		CalculationFormula: fmt.Sprintf("fallback: %s days × %s/day = %s (%d-day basis)",
			generic.Round(effective, 2).StringFixed(2), dailyWage.StringFixed(0), salary.StringFixed(0), days),
		Holidays:       []calendar.Holiday{},
		NonWorkingDays: []workdays.NonWorkingDay{},
	}
	out.Fallback = true
	out.FallbackReason = cause.Error()
	out.Err = err
	return out
}
