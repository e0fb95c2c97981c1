package attendance

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the attendance classification of one day.
type Status string

const (
	StatusPresent Status = "Present"
	StatusHalfDay Status = "HalfDay"
	StatusAbsent  Status = "Absent"
)

var halfDay = decimal.NewFromFloat(0.5)

// Rank orders statuses for the upgrade-only merge.
func (s Status) Rank() int {
	switch s {
	case StatusPresent:
		return 2
	case StatusHalfDay:
		return 1
	default:
		return 0
	}
}

// DayValue is the contribution of the status to days present.
func (s Status) DayValue() decimal.Decimal {
	switch s {
	case StatusPresent:
		return decimal.NewFromInt(1)
	case StatusHalfDay:
		return halfDay
	default:
		return decimal.Zero
	}
}

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusHalfDay || s == StatusAbsent
}

// =============================================================================
// RECORDS
// =============================================================================

// Row is one raw attendance cell with the identity it belongs to.
type Row struct {
	EmployeeID generic.EmployeeID
	Name       string
	Dept       string
	Date       generic.TimePoint
	Raw        string
}

// DailyRecord is the normalized attendance of one employee on one date.
type DailyRecord struct {
	Date        generic.TimePoint `json:"date"`
	CheckIn     string            `json:"checkIn,omitempty"`
	CheckOut    string            `json:"checkOut,omitempty"`
	HoursWorked decimal.Decimal   `json:"hoursWorked"`
	Status      Status            `json:"status"`
}

// Totals is the running attendance of one employee in one upload.
// TotalDaysPresent and TotalHoursWorked are maintained additively by Merge.
type Totals struct {
	EmployeeID       generic.EmployeeID `json:"employeeId"`
	Name             string             `json:"name"`
	Dept             string             `json:"dept"`
	Details          []DailyRecord      `json:"attendanceDetails"`
	TotalDaysPresent decimal.Decimal    `json:"totalDaysPresent"`
	TotalHoursWorked decimal.Decimal    `json:"totalHoursWorked"`

	byDate map[string]int
}

func NewTotals(id generic.EmployeeID, name, dept string) *Totals {
	return &Totals{
		EmployeeID:       id,
		Name:             name,
		Dept:             dept,
		Details:          []DailyRecord{},
		TotalDaysPresent: decimal.Zero,
		TotalHoursWorked: decimal.Zero,
		byDate:           make(map[string]int),
	}
}

// Merge folds the fragment for date into the totals. A repeated date only
// replaces the stored record when the new status ranks higher; the old
// contribution is subtracted before the new one is added. Returns whether
// anything changed.
func (t *Totals) Merge(date generic.TimePoint, f Fragment) bool {
	if t.byDate == nil {
		t.byDate = make(map[string]int)
	}
	key := date.String()
	rec := DailyRecord{
		Date:        date,
		CheckIn:     f.CheckIn,
		CheckOut:    f.CheckOut,
		HoursWorked: f.HoursWorked,
		Status:      f.Status,
	}

	idx, exists := t.byDate[key]
	if !exists {
		t.byDate[key] = len(t.Details)
		t.Details = append(t.Details, rec)
		t.add(rec)
		return true
	}

	old := t.Details[idx]
	if rec.Status.Rank() <= old.Status.Rank() {
		return false
	}
	t.subtract(old)
	t.Details[idx] = rec
	t.add(rec)
	return true
}

// MergeRecord folds an already normalized record.
func (t *Totals) MergeRecord(r DailyRecord) bool {
	return t.Merge(r.Date, Fragment{
		CheckIn:     r.CheckIn,
		CheckOut:    r.CheckOut,
		HoursWorked: r.HoursWorked,
		Status:      r.Status,
	})
}

// Record returns the stored record for date.
func (t *Totals) Record(date generic.TimePoint) (DailyRecord, bool) {
	idx, ok := t.byDate[date.String()]
	if !ok {
		return DailyRecord{}, false
	}
	return t.Details[idx], true
}

// SortByDate orders Details chronologically. Totals are unaffected.
func (t *Totals) SortByDate() {
	sort.SliceStable(t.Details, func(i, j int) bool {
		return t.Details[i].Date.Before(t.Details[j].Date)
	})
	for i, d := range t.Details {
		t.byDate[d.Date.String()] = i
	}
}

func (t *Totals) add(r DailyRecord) {
	t.TotalDaysPresent = t.TotalDaysPresent.Add(r.Status.DayValue())
	t.TotalHoursWorked = t.TotalHoursWorked.Add(r.HoursWorked)
}

func (t *Totals) subtract(r DailyRecord) {
	t.TotalDaysPresent = t.TotalDaysPresent.Sub(r.Status.DayValue())
	t.TotalHoursWorked = t.TotalHoursWorked.Sub(r.HoursWorked)
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate parses every row and folds it into per-employee totals, in the
// order employees first appear. Rows without an employee ID are skipped.
func Aggregate(p *Parser, rows []Row) []*Totals {
	var (
		order []*Totals
		byID  = make(map[generic.EmployeeID]*Totals)
	)
	for _, row := range rows {
		if row.EmployeeID == "" {
			continue
		}
		t, ok := byID[row.EmployeeID]
		if !ok {
			t = NewTotals(row.EmployeeID, row.Name, row.Dept)
			byID[row.EmployeeID] = t
			order = append(order, t)
		}
		if t.Name == "" {
			t.Name = row.Name
		}
		if t.Dept == "" {
			t.Dept = row.Dept
		}
		t.Merge(row.Date, p.Parse(row.Raw))
	}
	for _, t := range order {
		t.SortByDate()
	}
	return order
}

// FromRecords rebuilds totals from stored daily records.
func FromRecords(id generic.EmployeeID, name, dept string, records []DailyRecord) *Totals {
	t := NewTotals(id, name, dept)
	for _, r := range records {
		t.MergeRecord(r)
	}
	t.SortByDate()
	return t
}
