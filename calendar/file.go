package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// FILE PROVIDER - Holidays from a JSON calendar document
// =============================================================================

// CalendarFile is the JSON document read by FileProvider:
//
//	{
//	  "calendars": [
//	    {
//	      "country": "IN", "state": "KA", "year": 2025,
//	      "holidays": [{"date": "2025-10-20", "name": "Diwali", "type": "public"}],
//	      "months":   [{"month": 3, "days": "14,31+"}]
//	    }
//	  ]
//	}
//
// "months" is the compact form: a comma separated day list per month,
// trailing "+" or "*" markers are ignored. An empty state applies to every
// state of the country.
type CalendarFile struct {
	Calendars []FileCalendar `json:"calendars"`
}

type FileCalendar struct {
	Country  string        `json:"country"`
	State    string        `json:"state"`
	Year     int           `json:"year"`
	Holidays []FileHoliday `json:"holidays"`
	Months   []MonthDays   `json:"months"`
}

type FileHoliday struct {
	Date string      `json:"date"`
	Name string      `json:"name"`
	Type HolidayType `json:"type"`
}

type MonthDays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// FileProvider serves holidays parsed once from a CalendarFile.
type FileProvider struct {
	byKey map[CacheKey][]Holiday
	years map[int]bool
}

// NewFileProvider reads and parses the calendar file at path.
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}
	return ParseCalendarFile(data)
}

// ParseCalendarFile parses a CalendarFile document.
func ParseCalendarFile(data []byte) (*FileProvider, error) {
	var doc CalendarFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holiday file: %w", err)
	}

	p := &FileProvider{byKey: make(map[CacheKey][]Holiday), years: make(map[int]bool)}
	for _, cal := range doc.Calendars {
		loc := NewLocation(cal.Country, cal.State)
		key := CacheKey{Country: loc.Country, State: loc.State, Year: cal.Year}

		for _, fh := range cal.Holidays {
			date, err := generic.ParseDate(fh.Date)
			if err != nil {
				return nil, fmt.Errorf("calendar %s/%d: %w", loc, cal.Year, err)
			}
			if date.Year() != cal.Year {
				return nil, fmt.Errorf("calendar %s/%d: holiday %s outside year", loc, cal.Year, fh.Date)
			}
			typ := fh.Type
			if typ == "" {
				typ = TypePublic
			}
			p.byKey[key] = append(p.byKey[key], Holiday{Date: date, Name: fh.Name, Type: typ})
		}

		for _, md := range cal.Months {
			days, err := parseDayList(cal.Year, md)
			if err != nil {
				return nil, fmt.Errorf("calendar %s/%d: %w", loc, cal.Year, err)
			}
			for _, d := range days {
				p.byKey[key] = append(p.byKey[key], Holiday{Date: d, Name: "Non-working day", Type: TypeCompany})
			}
		}
		p.years[cal.Year] = true
	}
	return p, nil
}

func (p *FileProvider) HolidaysForYear(country, state string, year int) ([]Holiday, error) {
	loc := NewLocation(country, state)
	var out []Holiday
	out = append(out, p.byKey[CacheKey{Country: loc.Country, Year: year}]...)
	if loc.State != "" {
		out = append(out, p.byKey[CacheKey{Country: loc.Country, State: loc.State, Year: year}]...)
	}
	sortHolidays(out)
	return out, nil
}

// Covers reports whether the file declares any calendar for year.
func (p *FileProvider) Covers(year int) bool { return p.years[year] }

func parseDayList(year int, md MonthDays) ([]generic.TimePoint, error) {
	if md.Month < 1 || md.Month > 12 {
		return nil, fmt.Errorf("invalid month %d", md.Month)
	}
	month := generic.Month{Year: year, Month: time.Month(md.Month)}

	var days []generic.TimePoint
	for _, part := range strings.Split(md.Days, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(part, "+")
		part = strings.TrimSuffix(part, "*")
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", part, md.Month, err)
		}
		if day < 1 || day > month.Days() {
			return nil, fmt.Errorf("day %d out of range for %s", day, month)
		}
		days = append(days, generic.NewTimePoint(year, month.Month, day))
	}
	return days, nil
}
