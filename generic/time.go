package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// DateLayout is the wire format for every date identifier.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for every month identifier.
const MonthLayout = "2006-01"

// TimePoint is a calendar day normalized to midnight UTC.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint returns the day year-month-day. Out of range values are
// normalized the way time.Date normalizes them.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD identifier.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsSaturday() bool      { return tp.Weekday() == time.Saturday }
func (tp TimePoint) IsWeekend() bool       { return tp.IsSaturday() || tp.IsSunday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(DateLayout) }

// MarshalText renders the day as YYYY-MM-DD so TimePoint can be used in JSON.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// MONTH - The unit every payroll calculation is keyed by
// =============================================================================

// Month identifies a calendar month, written YYYY-MM on the wire.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM identifier.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing tp.
func MonthOf(tp TimePoint) Month { return Month{Year: tp.Year(), Month: tp.Month()} }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// First returns the first day of the month.
func (m Month) First() TimePoint { return NewTimePoint(m.Year, m.Month, 1) }

// Last returns the last day of the month.
func (m Month) Last() TimePoint { return NewTimePoint(m.Year, m.Month+1, 0) }

// Days returns the number of days in the month.
func (m Month) Days() int { return m.Last().Day() }

// Period returns [first day, last day].
func (m Month) Period() Period { return Period{Start: m.First(), End: m.Last()} }

// Contains reports whether tp falls inside the month.
func (m Month) Contains(tp TimePoint) bool {
	return tp.Year() == m.Year && tp.Month() == m.Month
}

func (m Month) Next() Month     { return MonthOf(m.First().AddMonths(1)) }
func (m Month) Previous() Month { return MonthOf(m.First().AddMonths(-1)) }
