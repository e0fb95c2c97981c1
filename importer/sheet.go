/*
sheet.go - Attendance sheet layout detection

PURPOSE:
  Converts a grid of cells into attendance rows
  (employeeId, name, dept, date, raw value). Two layouts are recognized
  from the header row:

  WIDE   Employee ID | Name | Dept | 1 | 2 | ... | 31
         one row per employee, one column per day. Day headers may be a day
         number, a date (2025-08-01, 01/08/2025, 1-Aug) or an Excel serial.

  LONG   Employee ID | Name | Dept | Date | Status
         one row per employee and day.

  The header row is the first row within the first ten that names an
  employee ID column. Dates outside the target month are skipped, as are
  rows without an employee ID. Repeated day columns are kept; the
  aggregator merges them.
*/
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/xuri/excelize/v2"
)

// Layout is the detected sheet shape.
type Layout string

const (
	LayoutWide Layout = "wide"
	LayoutLong Layout = "long"
)

const headerSearchRows = 10

var (
	idHeaders    = []string{"employee id", "employeeid", "emp id", "empid", "employee code", "emp code", "code", "id", "emp no", "employee no"}
	nameHeaders  = []string{"employee name", "name", "employee", "full name"}
	deptHeaders  = []string{"department", "dept", "division", "team"}
	dateHeaders  = []string{"date", "day", "attendance date"}
	valueHeaders = []string{"status", "attendance", "value", "hours", "time", "in/out", "punch"}
)

// Sheet is the result of parsing one uploaded grid.
type Sheet struct {
	Layout      Layout
	Rows        []attendance.Row
	SkippedRows int
	DayColumns  int
}

type columns struct {
	id, name, dept int
	date, value    int
	days           map[int]generic.TimePoint
}

// ParseSheet extracts the attendance rows of month from rows.
func ParseSheet(rows [][]string, month generic.Month) (Sheet, error) {
	headerIdx, cols, err := findHeader(rows, month)
	if err != nil {
		return Sheet{}, err
	}

	sheet := Sheet{Layout: LayoutWide, DayColumns: len(cols.days)}
	if cols.date >= 0 && cols.value >= 0 {
		sheet.Layout = LayoutLong
	} else if len(cols.days) == 0 {
		return Sheet{}, fmt.Errorf("%w: no day columns for %s and no date/status columns", generic.ErrInvalidSheet, month)
	}

	for _, row := range rows[headerIdx+1:] {
		id := cell(row, cols.id)
		if id == "" {
			sheet.SkippedRows++
			continue
		}
		base := attendance.Row{
			EmployeeID: generic.EmployeeID(id),
			Name:       cell(row, cols.name),
			Dept:       cell(row, cols.dept),
		}

		if sheet.Layout == LayoutLong {
			date, ok := parseDayHeader(cell(row, cols.date), month)
			if !ok || !month.Contains(date) {
				sheet.SkippedRows++
				continue
			}
			base.Date = date
			base.Raw = cell(row, cols.value)
			sheet.Rows = append(sheet.Rows, base)
			continue
		}

		for idx := 0; idx < len(row); idx++ {
			date, ok := cols.days[idx]
			if !ok {
				continue
			}
			r := base
			r.Date = date
			r.Raw = cell(row, idx)
			sheet.Rows = append(sheet.Rows, r)
		}
		// Short rows still produce an (absent) entry for every day column.
		for idx, date := range cols.days {
			if idx >= len(row) {
				r := base
				r.Date = date
				sheet.Rows = append(sheet.Rows, r)
			}
		}
	}

	if len(sheet.Rows) == 0 {
		return Sheet{}, fmt.Errorf("%w: no rows for %s", generic.ErrEmptySheet, month)
	}
	return sheet, nil
}

func findHeader(rows [][]string, month generic.Month) (int, columns, error) {
	limit := min(len(rows), headerSearchRows)
	for i := 0; i < limit; i++ {
		cols := columns{id: -1, name: -1, dept: -1, date: -1, value: -1, days: map[int]generic.TimePoint{}}
		for idx, raw := range rows[i] {
			h := normalizeHeader(raw)
			switch {
			case cols.id < 0 && matches(h, idHeaders):
				cols.id = idx
			case cols.name < 0 && matches(h, nameHeaders):
				cols.name = idx
			case cols.dept < 0 && matches(h, deptHeaders):
				cols.dept = idx
			case cols.date < 0 && matches(h, dateHeaders):
				cols.date = idx
			case cols.value < 0 && matches(h, valueHeaders):
				cols.value = idx
			default:
				if date, ok := parseDayHeader(raw, month); ok && month.Contains(date) {
					cols.days[idx] = date
				}
			}
		}
		if cols.id >= 0 {
			return i, cols, nil
		}
	}
	return 0, columns{}, fmt.Errorf("%w: no employee id column in the first %d rows", generic.ErrInvalidSheet, headerSearchRows)
}

// parseDayHeader reads a day number or a date as a date of month.
func parseDayHeader(raw string, month generic.Month) (generic.TimePoint, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToLower(s), "day")
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= month.Days() {
		return generic.NewTimePoint(month.Year, month.Month, n), true
	}
	return parseDateCell(raw, month)
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
}

var dayMonthFormats = []string{"2-Jan", "02-Jan", "2 Jan", "Jan 2"}

// parseDateCell reads a date cell. Day-first numeric formats are assumed.
func parseDateCell(raw string, month generic.Month) (generic.TimePoint, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return generic.TimePoint{}, false
	}

	// Excel numeric date serial.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return generic.FromTime(t), true
			}
		}
		return generic.TimePoint{}, false
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return generic.FromTime(t), true
		}
	}
	for _, layout := range dayMonthFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return generic.NewTimePoint(month.Year, t.Month(), t.Day()), true
		}
	}
	return generic.TimePoint{}, false
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer("_", " ", ".", "", "#", "").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func matches(h string, names []string) bool {
	for _, n := range names {
		if h == n {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
