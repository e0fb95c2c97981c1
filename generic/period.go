package generic

// =============================================================================
// PERIOD - A closed range of days
// =============================================================================

// Period is the closed day range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Filter returns the days of the period for which keep returns true.
func (p Period) Filter(keep func(TimePoint) bool) []TimePoint {
	var days []TimePoint
	for _, d := range p.Days() {
		if keep(d) {
			days = append(days, d)
		}
	}
	return days
}

// Len returns the number of days in the period, 0 when End is before Start.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// Validate returns ErrInvalidPeriod when End is before Start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
