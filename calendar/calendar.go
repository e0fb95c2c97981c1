/*
Package calendar answers holiday and weekend questions for a configured
country/state.

PURPOSE:
  Wraps a holiday table behind a small lookup API used by the working-days
  calculator and the salary engine:
    - which holidays fall in a year or month
    - is a given date a holiday, a Sunday or a weekend day
    - how many Sundays/weekends/holidays/working days a month has

FAILURE POLICY:
  Holiday lookup is best-effort. HolidaysForYear never fails: when the
  provider errors (or panics) the year is treated as having no holidays and
  the failure is logged. FetchYear is the strict variant for callers that
  need to surface provider errors (admin endpoints).

CACHING:
  Results are memoized per (country, state, year) in an injectable Cache.
  Failed lookups are not cached. SetLocation and ClearCache drop every
  entry; entries are never updated in place.

CONCURRENCY:
  Calendar is safe for concurrent use without locks: the provider/location
  pair is swapped atomically and MemoryCache is copy-on-write.

SEE ALSO:
  - cache.go: Cache interface and MemoryCache
  - static.go, file.go, chain.go: Provider implementations
  - store/sqlite: admin-managed holidays (also a Provider)
*/
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// TYPES
// =============================================================================

// HolidayType tags where a holiday comes from.
type HolidayType string

const (
	TypePublic     HolidayType = "public"
	TypeState      HolidayType = "state"
	TypeObservance HolidayType = "observance"
	TypeCompany    HolidayType = "company"
)

// Holiday is one non-working calendar date. Immutable once fetched.
type Holiday struct {
	ID   string            `json:"id,omitempty"`
	Date generic.TimePoint `json:"date"`
	Name string            `json:"name"`
	Type HolidayType       `json:"type"`
}

// Location selects the holiday table.
type Location struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// NewLocation normalizes country and state codes to upper case.
func NewLocation(country, state string) Location {
	return Location{
		Country: strings.ToUpper(strings.TrimSpace(country)),
		State:   strings.ToUpper(strings.TrimSpace(state)),
	}
}

func (l Location) String() string {
	if l.State == "" {
		return l.Country
	}
	return l.Country + "-" + l.State
}

// Provider returns the holidays of one year for a country/state pair.
// The calendar treats it as a black box.
type Provider interface {
	HolidaysForYear(country, state string, year int) ([]Holiday, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(country, state string, year int) ([]Holiday, error)

func (f ProviderFunc) HolidaysForYear(country, state string, year int) ([]Holiday, error) {
	return f(country, state, year)
}

// =============================================================================
// CALENDAR
// =============================================================================

type source struct {
	provider Provider
	location Location
}

// Calendar is the HolidayCalendar of the payroll engine.
type Calendar struct {
	src    atomic.Pointer[source]
	cache  Cache
	logger logrus.FieldLogger
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithCache injects the cache used for memoization.
func WithCache(c Cache) Option {
	return func(cal *Calendar) { cal.cache = c }
}

// WithLogger sets the logger used for provider failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cal *Calendar) { cal.logger = l }
}

// New creates a calendar reading from provider for loc.
func New(provider Provider, loc Location, opts ...Option) *Calendar {
	c := &Calendar{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewMemoryCache()
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	c.src.Store(&source{provider: provider, location: NewLocation(loc.Country, loc.State)})
	return c
}

// Location returns the configured country/state.
func (c *Calendar) Location() Location {
	return c.src.Load().location
}

// SetLocation switches the country/state and invalidates the cache.
func (c *Calendar) SetLocation(country, state string) {
	current := c.src.Load()
	c.src.Store(&source{provider: current.provider, location: NewLocation(country, state)})
	c.cache.Clear()
	c.logger.WithFields(logrus.Fields{
		"country": country,
		"state":   state,
	}).Info("Holiday location changed, cache cleared")
}

// ClearCache drops every memoized year.
func (c *Calendar) ClearCache() {
	c.cache.Clear()
	c.logger.Debug("Holiday cache cleared")
}

// FetchYear returns the holidays of year sorted by date, or the provider error.
func (c *Calendar) FetchYear(year int) (holidays []Holiday, err error) {
	src := c.src.Load()
	key := CacheKey{Country: src.location.Country, State: src.location.State, Year: year}
	if cached, ok := c.cache.Get(key); ok {
		return cloneHolidays(cached), nil
	}
	if src.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", generic.ErrProviderUnavailable)
	}

	defer func() {
		if r := recover(); r != nil {
			holidays = nil
			err = fmt.Errorf("%w: %w", generic.ErrProviderUnavailable, generic.Recovered(r))
		}
	}()

	fetched, err := src.provider.HolidaysForYear(key.Country, key.State, year)
	if err != nil {
		return nil, err
	}

	result := make([]Holiday, 0, len(fetched))
	for _, h := range fetched {
		if h.Date.Year() == year {
			result = append(result, h)
		}
	}
	sortHolidays(result)
	c.cache.Set(key, result)
	return cloneHolidays(result), nil
}

// HolidaysForYear returns the holidays of year. On any failure it returns an
// empty slice and logs the cause.
func (c *Calendar) HolidaysForYear(year int) []Holiday {
	holidays, err := c.FetchYear(year)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"location": c.Location().String(),
			"year":     year,
		}).Warn("Holiday lookup failed, treating year as holiday-free")
		return []Holiday{}
	}
	return holidays
}

// HolidaysForMonth returns the holidays falling inside month.
func (c *Calendar) HolidaysForMonth(month generic.Month) []Holiday {
	result := []Holiday{}
	for _, h := range c.HolidaysForYear(month.Year) {
		if month.Contains(h.Date) {
			result = append(result, h)
		}
	}
	return result
}

// IsHoliday returns the first holiday on date, if any.
func (c *Calendar) IsHoliday(date generic.TimePoint) (Holiday, bool) {
	for _, h := range c.HolidaysForYear(date.Year()) {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return Holiday{}, false
}

// IsSunday reports whether date is a Sunday.
func (c *Calendar) IsSunday(date generic.TimePoint) bool { return date.IsSunday() }

// IsWeekend reports whether date is a Saturday or Sunday.
func (c *Calendar) IsWeekend(date generic.TimePoint) bool { return date.IsWeekend() }

// SundaysInMonth lists every Sunday of month.
func (c *Calendar) SundaysInMonth(month generic.Month) []generic.TimePoint {
	return month.Period().Filter(generic.TimePoint.IsSunday)
}

// SaturdaysInMonth lists every Saturday of month.
func (c *Calendar) SaturdaysInMonth(month generic.Month) []generic.TimePoint {
	return month.Period().Filter(generic.TimePoint.IsSaturday)
}

// WeekendsInMonth lists every Saturday and Sunday of month.
func (c *Calendar) WeekendsInMonth(month generic.Month) []generic.TimePoint {
	return month.Period().Filter(generic.TimePoint.IsWeekend)
}

// HolidayCountInMonth counts distinct holiday dates in month.
func (c *Calendar) HolidayCountInMonth(month generic.Month) int {
	seen := make(map[string]bool)
	for _, h := range c.HolidaysForMonth(month) {
		seen[h.Date.String()] = true
	}
	return len(seen)
}

// SundayCountInMonth counts the Sundays of month.
func (c *Calendar) SundayCountInMonth(month generic.Month) int {
	return len(c.SundaysInMonth(month))
}

// WorkingDayCountInMonth counts days that are neither Sundays, holidays nor,
// when excludeSaturdays is set, Saturdays.
func (c *Calendar) WorkingDayCountInMonth(month generic.Month, excludeSaturdays bool) int {
	holidays := make(map[string]bool)
	for _, h := range c.HolidaysForMonth(month) {
		holidays[h.Date.String()] = true
	}
	count := 0
	for _, d := range month.Period().Days() {
		if d.IsSunday() || (excludeSaturdays && d.IsSaturday()) || holidays[d.String()] {
			continue
		}
		count++
	}
	return count
}

// Warm loads the given years into the cache and reports provider failures.
func (c *Calendar) Warm(years ...int) error {
	var errs []error
	for _, y := range years {
		if _, err := c.FetchYear(y); err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", y, err))
		}
	}
	return joinErrors(errs)
}

// =============================================================================
// HELPERS
// =============================================================================

func sortHolidays(hs []Holiday) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].Date.Equal(hs[j].Date) {
			return hs[i].Name < hs[j].Name
		}
		return hs[i].Date.Before(hs[j].Date)
	})
}

func cloneHolidays(hs []Holiday) []Holiday {
	out := make([]Holiday, len(hs))
	copy(out, hs)
	return out
}
