/*
handlers_test.go - Tests for the HTTP API

Tests for:
- Employee CRUD and error mapping
- Upload -> salaries -> attendance -> adjustment -> recalculation
- Working days, holidays, location and month settings
- Stateless calculation and parser preview
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/salary"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/workdays"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router  http.Handler
	handler *Handler
	store   *sqlite.Store
	cal     *calendar.Calendar
}

// newTestServer wires the API over the built-in IN calendar plus admin
// holidays. August 2025 has 25 working days (Independence Day on a Friday).
func newTestServer(t *testing.T) *testServer {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, _ := test.NewNullLogger()
	provider := calendar.NewChainProvider(calendar.NewStaticProvider(), store)
	cal := calendar.New(provider, calendar.NewLocation("IN", ""), calendar.WithLogger(logger))
	wd := workdays.NewCalculator(cal, workdays.WithLogger(logger))
	engine := salary.NewEngine(wd, salary.DefaultConfig(), salary.WithLogger(logger))
	svc := payroll.NewService(store, engine, nil, payroll.WithLogger(logger))

	h := NewHandler(store, svc, cal, wd, logger)
	return &testServer{
		router:  NewRouter(h, RouterOptions{Logger: logger}),
		handler: h,
		store:   store,
		cal:     cal,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, month, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if month != "" {
		require.NoError(t, mw.WriteField("month", month))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const augustSheet = "Employee ID,Name,Department,1,2,4\nE1,Asha,Ops,P,P,A\nE2,Ravi,Sales,P,half,09:00-17:00\n"

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/employees", EmployeeRequest{
		ID: "E1", Name: "Asha", Dept: "Ops", BaseSalary: 25000, SalaryMethod: "proportional",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[EmployeeDTO](t, rec)
	assert.Equal(t, 25000.0, created.BaseSalary)
	assert.Equal(t, "proportional", created.SalaryMethod)

	rec = s.do(t, http.MethodPut, "/api/employees/E1", EmployeeRequest{Name: "Asha K", BaseSalary: 30000})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[EmployeeDTO](t, rec)
	assert.Equal(t, "E1", updated.ID)
	assert.Equal(t, "auto", updated.SalaryMethod)

	rec = s.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]EmployeeDTO](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/employees/E1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/employees/E1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Failed to get employee", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodDelete, "/api/employees/E1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployees_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing id", EmployeeRequest{Name: "Asha"}},
		{"bad method", EmployeeRequest{ID: "E1", SalaryMethod: "hourly"}},
		{"negative salary", EmployeeRequest{ID: "E1", BaseSalary: -1}},
		{"not json", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/employees", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := s.do(t, http.MethodPut, "/api/employees/ghost", EmployeeRequest{Name: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// UPLOADS AND SALARIES
// =============================================================================

func TestUpload_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: An August sheet for two employees
	rec := s.upload(t, "2025-08", "aug.csv", augustSheet)

	// THEN: Both salaries are calculated against 25 required days
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[UploadResultDTO](t, rec)
	require.Len(t, res.Salaries, 2)
	assert.Equal(t, "E1", res.Salaries[0].EmployeeID)
	assert.Equal(t, 25, res.Salaries[0].RequiredDays)
	assert.Equal(t, 516.0, res.Salaries[0].CalculatedSalary)
	assert.Equal(t, 2.0, res.Employees[0].TotalDaysPresent)
	assert.Equal(t, 2.5, res.Employees[1].TotalDaysPresent)
	// 8 + 4 + 8 hours at 258/day
	assert.Equal(t, 645.0, res.Salaries[1].CalculatedSalary)

	// AND: The stored month can be read back
	rec = s.do(t, http.MethodGet, "/api/salaries?month=2025-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SalaryDTO](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/employees/E1/attendance/2025-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	att := decode[AttendanceDTO](t, rec)
	assert.Equal(t, "Asha", att.Name)
	assert.Len(t, att.Details, 3)
	assert.Equal(t, 16.0, att.TotalHoursWorked)

	rec = s.do(t, http.MethodGet, "/api/employees/E1/salaries/2025-08", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[SalaryDTO](t, rec)
	assert.Equal(t, 516.0, stored.AdjustedSalary)
	assert.Contains(t, stored.Details.CalculationFormula, "258/day")
	assert.Len(t, stored.Details.Holidays, 1)

	rec = s.do(t, http.MethodGet, "/api/uploads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	uploads := decode[[]UploadDTO](t, rec)
	require.Len(t, uploads, 1)
	assert.Equal(t, "done", uploads[0].Status)
	assert.Equal(t, 2, uploads[0].Employees)

	rec = s.do(t, http.MethodGet, "/api/uploads/"+res.UploadID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSalary_AdjustAndRecalculate(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.upload(t, "2025-08", "aug.csv", augustSheet).Code)

	rec := s.do(t, http.MethodPut, "/api/employees/E1/salaries/2025-08/adjusted", AdjustSalaryRequest{AdjustedSalary: 600})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	adjusted := decode[SalaryDTO](t, rec)
	assert.Equal(t, 600.0, adjusted.AdjustedSalary)
	assert.Equal(t, 516.0, adjusted.CalculatedSalary)
	assert.True(t, adjusted.AdjustedManually)

	// Two admin holidays lower the required days; the manual payout stays.
	rec = s.do(t, http.MethodPut, "/api/admin/months/2025-08/holidays", MonthHolidaysDTO{AdminHolidayCount: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/E1/salaries/2025-08/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recalculated := decode[SalaryDTO](t, rec)
	assert.Equal(t, 23, recalculated.RequiredDays)
	assert.Equal(t, 600.0, recalculated.AdjustedSalary)

	rec = s.do(t, http.MethodPut, "/api/employees/E1/salaries/2025-08/adjusted", AdjustSalaryRequest{AdjustedSalary: -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/employees/E1/salaries/2024-01/adjusted", AdjustSalaryRequest{AdjustedSalary: 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/employees/ghost/salaries/2025-08/recalculate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/employees/E1/salaries/2025-8", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name, month, file, content string
	}{
		{"bad month", "August", "aug.csv", augustSheet},
		{"missing file", "2025-08", "", ""},
		{"not a workbook", "2025-08", "aug.xlsx", "plain text"},
		{"no identity header", "2025-08", "aug.csv", "a,b\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.upload(t, tt.month, tt.file, tt.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	s := newTestServer(t)
	s.handler.MaxUploadBytes = 64

	rec := s.upload(t, "2025-08", "aug.csv", augustSheet+strings.Repeat("E9,Big,Ops,P,P,P\n", 20))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateSalary(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/salary/calculate", CalculateSalaryRequest{
		MonthYear: "2025-08", HoursWorked: 200, BaseSalary: 8000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[SalaryDTO](t, rec)
	assert.Equal(t, 25, b.RequiredDays)
	assert.Equal(t, 258.0, b.DailyWage)
	assert.Equal(t, 6450.0, b.CalculatedSalary)
	assert.Equal(t, "daily_wage", b.CalculationMethod)

	rec = s.do(t, http.MethodPost, "/api/salary/calculate", CalculateSalaryRequest{
		MonthYear: "2025-08", HoursWorked: 100, BaseSalary: 20000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	b = decode[SalaryDTO](t, rec)
	assert.Equal(t, "proportional", b.CalculationMethod)
	// 20000 × 12.5/25
	assert.Equal(t, 10000.0, b.CalculatedSalary)

	for _, body := range []CalculateSalaryRequest{
		{MonthYear: "2025-13", HoursWorked: 8},
		{MonthYear: "2025-08", HoursWorked: -8},
		{MonthYear: "2025-08", Method: "weekly"},
	} {
		rec = s.do(t, http.MethodPost, "/api/salary/calculate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

// =============================================================================
// CALENDAR AND ADMIN
// =============================================================================

func TestWorkingDays(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		query       string
		working     int
		required    int
		holidays    int
		excludeSats bool
	}{
		{"month=2025-08", 25, 25, 1, false},
		{"month=2025-08&excludeSaturdays=true", 20, 20, 1, true},
		{"month=2025-08&adminHolidays=2", 23, 23, 3, false},
		{"month=2025-10", 26, 26, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/working-days?"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			info := decode[WorkingDaysDTO](t, rec)
			assert.Equal(t, tt.working, info.WorkingDays)
			assert.Equal(t, tt.required, info.RequiredWorkingDays)
			assert.Equal(t, tt.holidays, info.HolidayCount)
			assert.Equal(t, tt.excludeSats, info.ExcludeSaturdays)
			assert.False(t, info.Fallback)
		})
	}

	for _, q := range []string{"month=08-2025", "month=2025-08&excludeSaturdays=maybe", "month=2025-08&adminHolidays=-1"} {
		rec := s.do(t, http.MethodGet, "/api/working-days?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHolidays_AdminLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Independence Day")

	// GIVEN: A company holiday on a Wednesday in August
	rec = s.do(t, http.MethodPost, "/api/holidays", HolidayRequest{Date: "2025-08-20", Name: "Company Offsite", Country: "in"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[HolidayDTO](t, rec)
	assert.Equal(t, "IN", created.Country)
	assert.Equal(t, "company", created.Type)

	// THEN: It takes effect immediately
	info := decode[WorkingDaysDTO](t, s.do(t, http.MethodGet, "/api/working-days?month=2025-08", nil))
	assert.Equal(t, 24, info.WorkingDays)

	rec = s.do(t, http.MethodGet, "/api/holidays/custom", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]HolidayDTO](t, rec), 1)

	// WHEN: It is deleted
	rec = s.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	info = decode[WorkingDaysDTO](t, s.do(t, http.MethodGet, "/api/working-days?month=2025-08", nil))
	assert.Equal(t, 25, info.WorkingDays)

	rec = s.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/holidays", HolidayRequest{Date: "20-08-2025", Name: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/holidays", HolidayRequest{Date: "2025-08-20"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/holidays?year=twenty", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/admin/location", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LocationDTO{Country: "IN"}, decode[LocationDTO](t, rec))

	rec = s.do(t, http.MethodPut, "/api/admin/location", LocationDTO{Country: "us", State: "ca"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, calendar.Location{Country: "US", State: "CA"}, s.cal.Location())

	loc, ok, err := s.store.HolidayLocation(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "US", loc.Country)

	// August 2025 in the US has no holidays.
	info := decode[WorkingDaysDTO](t, s.do(t, http.MethodGet, "/api/working-days?month=2025-08", nil))
	assert.Equal(t, 26, info.WorkingDays)

	rec = s.do(t, http.MethodPut, "/api/admin/location", LocationDTO{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthHolidays(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/admin/months/2025-08/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[MonthHolidaysDTO](t, rec).AdminHolidayCount)

	rec = s.do(t, http.MethodPut, "/api/admin/months/2025-08/holidays", MonthHolidaysDTO{AdminHolidayCount: 3, Note: "floods"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/months/2025-08/holidays", nil)
	got := decode[MonthHolidaysDTO](t, rec)
	assert.Equal(t, 3, got.AdminHolidayCount)
	assert.Equal(t, "floods", got.Note)

	info := decode[WorkingDaysDTO](t, s.do(t, http.MethodGet, "/api/working-days?month=2025-08", nil))
	assert.Equal(t, 22, info.WorkingDays)

	rec = s.do(t, http.MethodPut, "/api/admin/months/2025-08/holidays", MonthHolidaysDTO{AdminHolidayCount: 40})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/months/bad/holidays", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHolidayCacheAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/holidays/cache/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}

// =============================================================================
// PARSER PREVIEW
// =============================================================================

func TestParseAttendance(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/attendance/parse", map[string]any{
		"values": []any{"P", "09:00-13:00", 7.5, nil, "xyz"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cells := decode[[]ParsedCellDTO](t, rec)
	require.Len(t, cells, 5)

	assert.Equal(t, "Present", cells[0].Status)
	assert.Equal(t, 8.0, cells[0].HoursWorked)
	assert.Equal(t, "HalfDay", cells[1].Status)
	assert.Equal(t, "13:00", cells[1].CheckOut)
	assert.Equal(t, "Present", cells[2].Status)
	assert.Equal(t, 7.5, cells[2].HoursWorked)
	assert.Equal(t, "Absent", cells[3].Status)
	assert.Equal(t, "Absent", cells[4].Status)
	assert.Equal(t, "unrecognized", cells[4].Rule)
}
