/*
Package workdays derives the working-day baseline of a month.

PURPOSE:
  Every salary calculation divides by a number of days. This package
  computes that number from the holiday calendar and the weekend rule:

    totalDays           = days in the month
    workingDays         = totalDays - Sundays - [Saturdays] - holidays - adminHolidays
    requiredWorkingDays = min(workingDays, 26)

CLASSIFICATION:
  Each date is classified once, first match wins:
    1. Sunday   (always non-working)
    2. Saturday (non-working only when excludeSaturdays is set)
    3. Holiday  (calendar holiday on an otherwise working day)
    4. Working

ADMIN HOLIDAYS:
  Company-declared holidays arrive as a plain count. They are subtracted from
  workingDays (floored at zero) and added to holidayCount before the cap.
  This is the only place they are applied; callers must not subtract them
  again.

FAILURE POLICY:
  Compute never panics and never returns an error. A malformed month or an
  internal failure yields the fixed fallback shape (30 days, 22 working) with
  Fallback set and the cause recorded.
*/
package workdays

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
)

// DefaultRequiredDaysCap is the maximum number of payable days per month.
const DefaultRequiredDaysCap = 26

// Reasons recorded for non-working days that are not holidays.
const (
	ReasonSunday   = "Sunday"
	ReasonSaturday = "Saturday"
)

// HolidaySource is the part of the holiday calendar the calculator needs.
type HolidaySource interface {
	HolidaysForMonth(month generic.Month) []calendar.Holiday
}

// NonWorkingDay is a date excluded from the working days, with the reason.
type NonWorkingDay struct {
	Date   generic.TimePoint `json:"date"`
	Reason string            `json:"reason"`
}

// WorkingDaysInfo is the working-day breakdown of one month.
type WorkingDaysInfo struct {
	MonthYear           string              `json:"monthYear"`
	TotalDays           int                 `json:"totalDays"`
	WorkingDays         int                 `json:"workingDays"`
	RequiredWorkingDays int                 `json:"requiredWorkingDays"`
	SundayCount         int                 `json:"sundayCount"`
	SaturdayCount       int                 `json:"saturdayCount"`
	Weekends            int                 `json:"weekends"`
	HolidayCount        int                 `json:"holidayCount"`
	AdminHolidayCount   int                 `json:"adminHolidayCount"`
	ExcludeSaturdays    bool                `json:"excludeSaturdays"`
	Holidays            []calendar.Holiday  `json:"holidays"`
	WorkingDaysList     []generic.TimePoint `json:"workingDaysList"`
	NonWorkingDays      []NonWorkingDay     `json:"nonWorkingDays"`

	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	Err            error  `json:"-"`
}

// Calculator computes WorkingDaysInfo from a holiday source.
type Calculator struct {
	holidays HolidaySource
	cap      int
	logger   logrus.FieldLogger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithCap overrides the required-days cap.
func WithCap(n int) Option {
	return func(c *Calculator) { c.cap = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Calculator) { c.logger = l }
}

// NewCalculator creates a calculator reading holidays from src.
func NewCalculator(src HolidaySource, opts ...Option) *Calculator {
	c := &Calculator{holidays: src, cap: DefaultRequiredDaysCap}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

// Cap returns the required-days cap in use.
func (c *Calculator) Cap() int { return c.cap }

// Compute returns the working-day breakdown of monthYear ("YYYY-MM").
func (c *Calculator) Compute(monthYear string, excludeSaturdays bool, adminHolidayCount int) (info WorkingDaysInfo) {
	defer func() {
		if r := recover(); r != nil {
			info = c.fallback(monthYear, generic.Recovered(r))
		}
	}()

	month, err := generic.ParseMonth(monthYear)
	if err != nil {
		return c.fallback(monthYear, err)
	}
	return c.ComputeMonth(month, excludeSaturdays, adminHolidayCount)
}

// ComputeMonth is Compute for an already parsed month.
func (c *Calculator) ComputeMonth(month generic.Month, excludeSaturdays bool, adminHolidayCount int) WorkingDaysInfo {
	info := WorkingDaysInfo{
		MonthYear:        month.String(),
		TotalDays:        month.Days(),
		ExcludeSaturdays: excludeSaturdays,
		Holidays:         []calendar.Holiday{},
		WorkingDaysList:  []generic.TimePoint{},
		NonWorkingDays:   []NonWorkingDay{},
	}

	holidayOn := make(map[string]string)
	if c.holidays != nil {
		info.Holidays = c.holidays.HolidaysForMonth(month)
	}
	for _, h := range info.Holidays {
		if _, ok := holidayOn[h.Date.String()]; !ok {
			holidayOn[h.Date.String()] = h.Name
		}
	}

	for _, day := range month.Period().Days() {
		switch {
		case day.IsSunday():
			info.SundayCount++
			info.NonWorkingDays = append(info.NonWorkingDays, NonWorkingDay{Date: day, Reason: ReasonSunday})
		case day.IsSaturday() && excludeSaturdays:
			info.SaturdayCount++
			info.NonWorkingDays = append(info.NonWorkingDays, NonWorkingDay{Date: day, Reason: ReasonSaturday})
		case holidayOn[day.String()] != "":
			if day.IsSaturday() {
				info.SaturdayCount++
			}
			info.HolidayCount++
			info.NonWorkingDays = append(info.NonWorkingDays, NonWorkingDay{Date: day, Reason: holidayOn[day.String()]})
		default:
			if day.IsSaturday() {
				info.SaturdayCount++
			}
			info.WorkingDaysList = append(info.WorkingDaysList, day)
		}
	}
	info.Weekends = info.SundayCount + info.SaturdayCount
	info.WorkingDays = len(info.WorkingDaysList)

	if adminHolidayCount > 0 {
		info.AdminHolidayCount = adminHolidayCount
		info.WorkingDays = max(0, info.WorkingDays-adminHolidayCount)
		info.HolidayCount += adminHolidayCount
	}

	info.RequiredWorkingDays = min(info.WorkingDays, c.cap)
	return info
}

func (c *Calculator) fallback(monthYear string, cause error) WorkingDaysInfo {
	err := &generic.FallbackError{Component: "workdays", Cause: cause}
	c.logger.WithError(cause).WithField("month", monthYear).Warn("Working days calculation failed, using fallback")

	return WorkingDaysInfo{
		MonthYear:           monthYear,
		TotalDays:           30,
		WorkingDays:         22,
		RequiredWorkingDays: 22,
		SundayCount:         4,
		SaturdayCount:       4,
		Weekends:            8,
		Holidays:            []calendar.Holiday{},
		WorkingDaysList:     []generic.TimePoint{},
		NonWorkingDays:      []NonWorkingDay{},
		Fallback:            true,
		FallbackReason:      cause.Error(),
		Err:                 err,
	}
}

// Summary renders a one-line description for logs and the formula string.
func (i WorkingDaysInfo) Summary() string {
	return fmt.Sprintf("%s: %d days, %d working (%d required), %d Sundays, %d holidays",
		i.MonthYear, i.TotalDays, i.WorkingDays, i.RequiredWorkingDays, i.SundayCount, i.HolidayCount)
}
