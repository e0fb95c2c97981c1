package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	require.NoError(t, store.SaveEmployee(context.Background(), sqlite.Employee{
		ID:         id,
		Name:       "Employee " + id,
		BaseSalary: decimal.NewFromInt(8000),
	}))
}

func day(d int) generic.TimePoint {
	return generic.NewTimePoint(2025, time.August, d)
}

func attendanceFor(days ...int) []sqlite.AttendanceRecord {
	var out []sqlite.AttendanceRecord
	for _, d := range days {
		out = append(out, sqlite.AttendanceRecord{
			Date:        day(d),
			CheckIn:     "09:00",
			CheckOut:    "17:00",
			HoursWorked: decimal.NewFromInt(8),
			Status:      "Present",
		})
	}
	return out
}

func salaryRecord(amount int64) sqlite.SalaryRecord {
	return sqlite.SalaryRecord{
		BaseSalary:       decimal.NewFromInt(8000),
		DailyWage:        decimal.NewFromInt(258),
		Method:           "daily_wage",
		RequiredDays:     26,
		DaysPresent:      decimal.NewFromInt(3),
		HoursWorked:      decimal.NewFromInt(24),
		ExpectedHours:    decimal.NewFromInt(208),
		CalculatedSalary: decimal.NewFromInt(amount),
		AdjustedSalary:   decimal.NewFromInt(amount),
		AttendancePct:    decimal.RequireFromString("11.54"),
		HoursPct:         decimal.RequireFromString("11.54"),
		BreakdownJSON:    `{"monthYear":"2025-08"}`,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "E1", Name: "Asha", Dept: "Ops",
		BaseSalary: decimal.NewFromInt(25000), SalaryMethod: "proportional",
	}))

	emp, err := store.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", emp.Name)
	assert.Equal(t, "25000", emp.BaseSalary.String())
	assert.Equal(t, "proportional", emp.SalaryMethod)
	assert.False(t, emp.CreatedAt.IsZero())

	emp.Name = "Asha K"
	require.NoError(t, store.SaveEmployee(ctx, *emp))
	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Asha K", all[0].Name)

	require.NoError(t, store.DeleteEmployee(ctx, "E1"))
	_, err = store.GetEmployee(ctx, "E1")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	assert.ErrorIs(t, store.DeleteEmployee(ctx, "E1"), generic.ErrEmployeeNotFound)
}

func TestEnsureEmployee_KeepsSalarySetup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: An employee configured by an admin, without a department
	require.NoError(t, store.SaveEmployee(ctx, sqlite.Employee{
		ID: "E1", Name: "Asha", BaseSalary: decimal.NewFromInt(30000), SalaryMethod: "proportional",
	}))

	// WHEN: An upload mentions the employee with a department
	emp, err := store.EnsureEmployee(ctx, sqlite.Employee{ID: "E1", Name: "Someone Else", Dept: "Ops"})
	require.NoError(t, err)

	// THEN: Only the missing department is filled in
	assert.Equal(t, "Asha", emp.Name)
	assert.Equal(t, "Ops", emp.Dept)
	assert.Equal(t, "30000", emp.BaseSalary.String())
	assert.Equal(t, "proportional", emp.SalaryMethod)

	created, err := store.EnsureEmployee(ctx, sqlite.Employee{ID: "E2", Name: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "auto", created.SalaryMethod)
	assert.True(t, created.BaseSalary.IsZero())
}

// =============================================================================
// ATTENDANCE AND SALARY
// =============================================================================

func TestReplaceEmployeeMonth_Supersedes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")

	// GIVEN: A first upload with three days
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", attendanceFor(3, 1, 2), salaryRecord(774)))

	records, err := store.ListAttendance(ctx, "E1", "2025-08")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2025-08-01", records[0].Date.String(), "ordered by date")
	assert.Equal(t, "8", records[0].HoursWorked.String())

	// WHEN: A second upload for the same month arrives
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", attendanceFor(5), salaryRecord(258)))

	// THEN: The previous month is replaced wholesale
	records, err = store.ListAttendance(ctx, "E1", "2025-08")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-08-05", records[0].Date.String())

	rec, err := store.GetSalaryRecord(ctx, "E1", "2025-08")
	require.NoError(t, err)
	assert.Equal(t, "258", rec.CalculatedSalary.String())
	assert.Equal(t, "11.54", rec.AttendancePct.String())
	assert.Equal(t, `{"monthYear":"2025-08"}`, rec.BreakdownJSON)
}

func TestReplaceEmployeeMonth_RollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", attendanceFor(1), salaryRecord(258)))

	// Duplicate dates violate UNIQUE(employee_id, date).
	err := store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", attendanceFor(2, 2), salaryRecord(516))
	require.Error(t, err)

	records, err := store.ListAttendance(ctx, "E1", "2025-08")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-08-01", records[0].Date.String())
}

func TestReplaceEmployeeMonth_UnknownEmployee(t *testing.T) {
	store := newTestStore(t)

	err := store.ReplaceEmployeeMonth(context.Background(), "ghost", "2025-08", attendanceFor(1), salaryRecord(258))
	assert.Error(t, err, "foreign key enforced")
}

func TestSalaryRecords_AdjustAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")
	seedEmployee(t, store, "E2")
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E2", "2025-08", nil, salaryRecord(100)))
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", nil, salaryRecord(200)))
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-09", nil, salaryRecord(300)))

	require.NoError(t, store.SetAdjustedSalary(ctx, "E1", "2025-08", decimal.NewFromInt(250)))

	list, err := store.ListSalaryRecords(ctx, "2025-08")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "E1", list[0].EmployeeID)
	assert.Equal(t, "250", list[0].AdjustedSalary.String())
	assert.Equal(t, "200", list[0].CalculatedSalary.String())
	assert.True(t, list[0].AdjustedManually)
	assert.False(t, list[1].AdjustedManually)

	err = store.SetAdjustedSalary(ctx, "E1", "2024-01", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)

	_, err = store.GetSalaryRecord(ctx, "E9", "2025-08")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestSaveSalaryRecord_Upserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")

	rec := salaryRecord(100)
	rec.EmployeeID, rec.Month = "E1", "2025-08"
	require.NoError(t, store.SaveSalaryRecord(ctx, rec))
	rec.CalculatedSalary = decimal.NewFromInt(150)
	rec.Fallback = true
	require.NoError(t, store.SaveSalaryRecord(ctx, rec))

	got, err := store.GetSalaryRecord(ctx, "E1", "2025-08")
	require.NoError(t, err)
	assert.Equal(t, "150", got.CalculatedSalary.String())
	assert.True(t, got.Fallback)
}

func TestDeleteEmployee_CascadesRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")
	require.NoError(t, store.ReplaceEmployeeMonth(ctx, "E1", "2025-08", attendanceFor(1), salaryRecord(258)))

	require.NoError(t, store.DeleteEmployee(ctx, "E1"))

	records, err := store.ListAttendance(ctx, "E1", "2025-08")
	require.NoError(t, err)
	assert.Empty(t, records)
	_, err = store.GetSalaryRecord(ctx, "E1", "2025-08")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestConcurrentReplace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := string(rune('A' + i))
		seedEmployee(t, store, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.ReplaceEmployeeMonth(ctx, id, "2025-08", attendanceFor(1, 2), salaryRecord(516)))
		}()
	}
	wg.Wait()

	list, err := store.ListSalaryRecords(ctx, "2025-08")
	require.NoError(t, err)
	assert.Len(t, list, 8)
}

// =============================================================================
// HOLIDAYS, SETTINGS, UPLOADS
// =============================================================================

func TestHolidays_Provider(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveHoliday(ctx, sqlite.HolidayRecord{Country: "in", Date: day(15), Name: "Founders Day"})
	require.NoError(t, err)
	_, err = store.SaveHoliday(ctx, sqlite.HolidayRecord{Country: "IN", State: "KA", Date: day(20), Name: "Local Fair"})
	require.NoError(t, err)
	_, err = store.SaveHoliday(ctx, sqlite.HolidayRecord{
		Date: generic.NewTimePoint(2020, time.December, 31), Name: "Year End", Recurring: true,
	})
	require.NoError(t, err)
	_, err = store.SaveHoliday(ctx, sqlite.HolidayRecord{Country: "US", Date: day(4), Name: "Offsite"})
	require.NoError(t, err)

	var provider calendar.Provider = store
	hs, err := provider.HolidaysForYear("IN", "", 2025)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "Founders Day", hs[0].Name)
	assert.Equal(t, calendar.TypeCompany, hs[0].Type)
	assert.Equal(t, "2025-12-31", hs[1].Date.String(), "recurring holiday moved into the year")

	hs, err = provider.HolidaysForYear("IN", "KA", 2025)
	require.NoError(t, err)
	assert.Len(t, hs, 3)

	hs, err = provider.HolidaysForYear("IN", "", 2024)
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}

func TestHolidays_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveHoliday(ctx, sqlite.HolidayRecord{Country: "IN", Date: day(15), Name: "Founders Day"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = store.SaveHoliday(ctx, sqlite.HolidayRecord{Country: "US", Date: day(4), Name: "Offsite"})
	require.NoError(t, err)

	all, err := store.ListHolidays(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	india, err := store.ListHolidays(ctx, "in")
	require.NoError(t, err)
	require.Len(t, india, 1)
	assert.Equal(t, "IN", india[0].Country)

	require.NoError(t, store.DeleteHoliday(ctx, id))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, id), generic.ErrRecordNotFound)
}

func TestMonthSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.AdminHolidayCount(ctx, "2025-08")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.SaveMonthSetting(ctx, sqlite.MonthSetting{Month: "2025-08", AdminHolidayCount: 2, Note: "offsite"}))
	ms, err := store.GetMonthSetting(ctx, "2025-08")
	require.NoError(t, err)
	assert.Equal(t, 2, ms.AdminHolidayCount)
	assert.Equal(t, "offsite", ms.Note)
}

func TestHolidayLocation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.HolidayLocation(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveHolidayLocation(ctx, calendar.NewLocation("us", "ca")))
	loc, ok, err := store.HolidayLocation(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, calendar.Location{Country: "US", State: "CA"}, loc)
}

func TestUploads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveUpload(ctx, sqlite.Upload{
		ID: "u1", Filename: "aug.xlsx", Month: "2025-08", Status: sqlite.UploadPending, CreatedAt: created,
	}))

	done := created.Add(time.Minute)
	require.NoError(t, store.SaveUpload(ctx, sqlite.Upload{
		ID: "u1", Filename: "aug.xlsx", Month: "2025-08", Status: sqlite.UploadDone,
		Employees: 3, Rows: 93, Fallbacks: 1, CreatedAt: created, CompletedAt: &done,
	}))

	u, err := store.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sqlite.UploadDone, u.Status)
	assert.Equal(t, 93, u.Rows)
	require.NotNil(t, u.CompletedAt)
	assert.True(t, done.Equal(*u.CompletedAt))

	require.NoError(t, store.SaveUpload(ctx, sqlite.Upload{
		ID: "u2", Filename: "sep.csv", Month: "2025-09", Status: sqlite.UploadFailed,
		Error: "no rows", CreatedAt: created.Add(time.Hour),
	}))
	list, err := store.ListUploads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].ID)
	assert.Nil(t, list[0].CompletedAt)

	_, err = store.GetUpload(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "E1")

	require.NoError(t, store.Reset(ctx))

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
