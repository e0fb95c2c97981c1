package workdays_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/workdays"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixedHolidays []calendar.Holiday

func (f fixedHolidays) HolidaysForMonth(m generic.Month) []calendar.Holiday {
	out := []calendar.Holiday{}
	for _, h := range f {
		if m.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out
}

type panickingSource struct{}

func (panickingSource) HolidaysForMonth(generic.Month) []calendar.Holiday { panic("corrupt table") }

func newCalculator(src workdays.HolidaySource) *workdays.Calculator {
	logger, _ := test.NewNullLogger()
	return workdays.NewCalculator(src, workdays.WithLogger(logger))
}

func on(y int, m time.Month, d int, name string) calendar.Holiday {
	return calendar.Holiday{Date: generic.NewTimePoint(y, m, d), Name: name, Type: calendar.TypePublic}
}

// =============================================================================
// COMPUTE TESTS
// =============================================================================

func TestCompute_August2025_NoHolidays(t *testing.T) {
	info := newCalculator(fixedHolidays{}).Compute("2025-08", false, 0)

	assert.False(t, info.Fallback)
	assert.Equal(t, "2025-08", info.MonthYear)
	assert.Equal(t, 31, info.TotalDays)
	assert.Equal(t, 5, info.SundayCount)
	assert.Equal(t, 5, info.SaturdayCount)
	assert.Equal(t, 10, info.Weekends)
	assert.Equal(t, 26, info.WorkingDays)
	assert.Equal(t, 26, info.RequiredWorkingDays)
	assert.Len(t, info.WorkingDaysList, 26)
	assert.Len(t, info.NonWorkingDays, 5)
}

func TestCompute_CapsRequiredDays(t *testing.T) {
	// October 2025 has 31 days and only 4 Sundays.
	info := newCalculator(fixedHolidays{}).Compute("2025-10", false, 0)

	assert.Equal(t, 27, info.WorkingDays)
	assert.Equal(t, 26, info.RequiredWorkingDays)
}

func TestCompute_CustomCap(t *testing.T) {
	logger, _ := test.NewNullLogger()
	calc := workdays.NewCalculator(fixedHolidays{}, workdays.WithCap(22), workdays.WithLogger(logger))

	assert.Equal(t, 22, calc.Cap())
	assert.Equal(t, 22, calc.Compute("2025-10", false, 0).RequiredWorkingDays)
}

func TestCompute_CalendarHolidays(t *testing.T) {
	src := fixedHolidays{
		on(2025, time.August, 15, "Independence Day"),
		on(2025, time.August, 15, "Parsi New Year"),
		on(2025, time.August, 31, "Sunday Festival"),
	}
	info := newCalculator(src).Compute("2025-08", false, 0)

	// Aug 15 is a Friday, Aug 31 a Sunday: only the Friday removes a working day.
	assert.Equal(t, 1, info.HolidayCount)
	assert.Equal(t, 25, info.WorkingDays)
	assert.Equal(t, 25, info.RequiredWorkingDays)
	assert.Len(t, info.Holidays, 3)

	reasons := map[string]string{}
	for _, d := range info.NonWorkingDays {
		reasons[d.Date.String()] = d.Reason
	}
	assert.Equal(t, "Independence Day", reasons["2025-08-15"])
	assert.Equal(t, workdays.ReasonSunday, reasons["2025-08-31"])
}

func TestCompute_ExcludeSaturdays(t *testing.T) {
	info := newCalculator(fixedHolidays{}).Compute("2025-08", true, 0)

	assert.True(t, info.ExcludeSaturdays)
	assert.Equal(t, 21, info.WorkingDays)
	assert.Equal(t, 21, info.RequiredWorkingDays)
	assert.Len(t, info.NonWorkingDays, 10)
}

func TestCompute_AdminHolidays(t *testing.T) {
	// GIVEN: August 2025 with 26 working days
	calc := newCalculator(fixedHolidays{})

	// WHEN: The admin declares 3 company holidays
	info := calc.Compute("2025-08", false, 3)

	// THEN: They are applied once, before the cap
	assert.Equal(t, 23, info.WorkingDays)
	assert.Equal(t, 3, info.HolidayCount)
	assert.Equal(t, 3, info.AdminHolidayCount)
	assert.Equal(t, 23, info.RequiredWorkingDays)

	// Admin holidays are floored at zero working days
	info = calc.Compute("2025-08", false, 100)
	assert.Equal(t, 0, info.WorkingDays)
	assert.Equal(t, 0, info.RequiredWorkingDays)

	// Negative counts are ignored
	info = calc.Compute("2025-08", false, -4)
	assert.Equal(t, 26, info.WorkingDays)
	assert.Equal(t, 0, info.HolidayCount)
}

func TestCompute_InvariantsHoldForEveryMonth(t *testing.T) {
	src := fixedHolidays{
		on(2025, time.January, 26, "Republic Day"),
		on(2026, time.May, 1, "Labour Day"),
	}
	calc := newCalculator(src)

	for year := 2020; year <= 2030; year++ {
		for m := time.January; m <= time.December; m++ {
			month := generic.Month{Year: year, Month: m}
			for _, excludeSat := range []bool{false, true} {
				info := calc.Compute(month.String(), excludeSat, 2)

				assert.Equal(t, month.Days(), info.TotalDays, month.String())
				assert.LessOrEqual(t, info.RequiredWorkingDays, info.WorkingDays, month.String())
				assert.LessOrEqual(t, info.WorkingDays, info.TotalDays, month.String())
				assert.LessOrEqual(t, info.RequiredWorkingDays, workdays.DefaultRequiredDaysCap)
				assert.Equal(t, info.TotalDays, len(info.WorkingDaysList)+len(info.NonWorkingDays))
			}
		}
	}
}

// =============================================================================
// FALLBACK TESTS
// =============================================================================

func TestCompute_InvalidMonthFallsBack(t *testing.T) {
	for _, bad := range []string{"not-a-month", "", "2025-13", "08-2025"} {
		info := newCalculator(fixedHolidays{}).Compute(bad, false, 0)

		assert.True(t, info.Fallback, bad)
		assert.Equal(t, bad, info.MonthYear)
		assert.Equal(t, 30, info.TotalDays)
		assert.Equal(t, 22, info.WorkingDays)
		assert.Equal(t, 22, info.RequiredWorkingDays)
		assert.Equal(t, 4, info.SundayCount)
		assert.Equal(t, 8, info.Weekends)
		assert.NotEmpty(t, info.FallbackReason)

		var fbErr *generic.FallbackError
		require.ErrorAs(t, info.Err, &fbErr)
		assert.Equal(t, "workdays", fbErr.Component)
		assert.ErrorIs(t, info.Err, generic.ErrInvalidMonth)
	}
}

func TestCompute_PanicFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()
	calc := workdays.NewCalculator(panickingSource{}, workdays.WithLogger(logger))

	var info workdays.WorkingDaysInfo
	require.NotPanics(t, func() { info = calc.Compute("2025-08", false, 0) })

	assert.True(t, info.Fallback)
	assert.ErrorIs(t, info.Err, generic.ErrCalculationPanic)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestCompute_NilSource(t *testing.T) {
	info := newCalculator(nil).Compute("2025-02", false, 0)

	assert.False(t, info.Fallback)
	assert.Equal(t, 28, info.TotalDays)
	assert.Equal(t, 24, info.WorkingDays)
}

func TestCompute_WithCalendar(t *testing.T) {
	cal := calendar.New(calendar.NewStaticProvider(), calendar.NewLocation("IN", ""))
	info := workdays.NewCalculator(cal).Compute("2025-08", false, 0)

	// Independence Day falls on Friday Aug 15.
	assert.Equal(t, 25, info.WorkingDays)
	assert.Contains(t, info.Summary(), "2025-08: 31 days, 25 working")
}
