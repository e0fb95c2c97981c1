package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STATIC PROVIDER - Built-in fixed and rule-based holiday tables
// =============================================================================

// fixedRule is a holiday on the same month/day every year.
type fixedRule struct {
	Month time.Month
	Day   int
	Name  string
	Type  HolidayType
}

// weekdayRule is the Nth weekday of a month. N = -1 means the last one.
type weekdayRule struct {
	Month   time.Month
	Weekday time.Weekday
	N       int
	Name    string
	Type    HolidayType
}

type countryTable struct {
	fixed   []fixedRule
	weekday []weekdayRule
	states  map[string][]fixedRule
}

// StaticProvider serves holidays computed from built-in tables. Lunar and
// religious holidays that move every year are not included; declare those
// through a FileProvider or the admin holiday store.
type StaticProvider struct {
	tables map[string]countryTable
}

// NewStaticProvider returns the provider with the built-in IN and US tables.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{tables: map[string]countryTable{
		"IN": indiaTable,
		"US": usTable,
	}}
}

func (p *StaticProvider) HolidaysForYear(country, state string, year int) ([]Holiday, error) {
	table, ok := p.tables[strings.ToUpper(country)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", generic.ErrUnsupportedLocation, country)
	}

	var holidays []Holiday
	for _, r := range table.fixed {
		holidays = append(holidays, Holiday{
			Date: generic.NewTimePoint(year, r.Month, r.Day),
			Name: r.Name,
			Type: r.Type,
		})
	}
	for _, r := range table.weekday {
		holidays = append(holidays, Holiday{
			Date: nthWeekday(year, r.Month, r.Weekday, r.N),
			Name: r.Name,
			Type: r.Type,
		})
	}
	for _, r := range table.states[strings.ToUpper(state)] {
		holidays = append(holidays, Holiday{
			Date: generic.NewTimePoint(year, r.Month, r.Day),
			Name: r.Name,
			Type: r.Type,
		})
	}
	sortHolidays(holidays)
	return holidays, nil
}

// nthWeekday returns the nth weekday of a month; n = -1 selects the last.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) generic.TimePoint {
	if n < 0 {
		last := generic.NewTimePoint(year, month+1, 0)
		offset := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDays(-offset)
	}
	first := generic.NewTimePoint(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + 7*(n-1))
}

var indiaTable = countryTable{
	fixed: []fixedRule{
		{time.January, 26, "Republic Day", TypePublic},
		{time.April, 14, "Dr. Ambedkar Jayanti", TypePublic},
		{time.May, 1, "Labour Day", TypeObservance},
		{time.August, 15, "Independence Day", TypePublic},
		{time.October, 2, "Gandhi Jayanti", TypePublic},
		{time.December, 25, "Christmas Day", TypePublic},
	},
	states: map[string][]fixedRule{
		"MH": {
			{time.February, 19, "Chhatrapati Shivaji Maharaj Jayanti", TypeState},
			{time.May, 1, "Maharashtra Day", TypeState},
		},
		"KA": {
			{time.November, 1, "Kannada Rajyotsava", TypeState},
		},
		"KL": {
			{time.November, 1, "Kerala Piravi", TypeState},
		},
		"TN": {
			{time.April, 14, "Tamil New Year", TypeState},
		},
		"GJ": {
			{time.May, 1, "Gujarat Day", TypeState},
		},
		"WB": {
			{time.January, 23, "Netaji Subhas Chandra Bose Jayanti", TypeState},
		},
		"PB": {
			{time.March, 23, "Shaheed Bhagat Singh Martyrdom Day", TypeState},
		},
	},
}

var usTable = countryTable{
	fixed: []fixedRule{
		{time.January, 1, "New Year's Day", TypePublic},
		{time.June, 19, "Juneteenth", TypePublic},
		{time.July, 4, "Independence Day", TypePublic},
		{time.November, 11, "Veterans Day", TypePublic},
		{time.December, 25, "Christmas Day", TypePublic},
	},
	weekday: []weekdayRule{
		{time.January, time.Monday, 3, "Martin Luther King Jr. Day", TypePublic},
		{time.February, time.Monday, 3, "Presidents' Day", TypePublic},
		{time.May, time.Monday, -1, "Memorial Day", TypePublic},
		{time.September, time.Monday, 1, "Labor Day", TypePublic},
		{time.October, time.Monday, 2, "Columbus Day", TypeObservance},
		{time.November, time.Thursday, 4, "Thanksgiving Day", TypePublic},
	},
	states: map[string][]fixedRule{
		"CA": {
			{time.March, 31, "Cesar Chavez Day", TypeState},
		},
		"TX": {
			{time.March, 2, "Texas Independence Day", TypeState},
		},
	},
}
