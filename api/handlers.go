/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization and input validation, and delegates to the payroll
  service, the salary engine and the store.

ENDPOINTS:
  Employees:
    GET    /api/employees                                   List employees
    POST   /api/employees                                   Create employee
    GET    /api/employees/{id}                              Get employee
    PUT    /api/employees/{id}                              Update salary setup
    DELETE /api/employees/{id}                              Delete employee and records
    GET    /api/employees/{id}/attendance/{month}           Daily attendance
    GET    /api/employees/{id}/salaries/{month}             Stored salary breakdown
    POST   /api/employees/{id}/salaries/{month}/recalculate Recompute from stored attendance
    PUT    /api/employees/{id}/salaries/{month}/adjusted    Manual payout override

  Uploads:
    POST   /api/uploads              Multipart "file" + "month"
    GET    /api/uploads              Upload log
    GET    /api/uploads/{id}         One upload

  Salaries:
    GET    /api/salaries?month=      All salaries of a month
    POST   /api/salary/calculate     Calculate without storing

  Calendar:
    GET    /api/working-days?month=&excludeSaturdays=&adminHolidays=
    GET    /api/holidays?year=       Effective holidays at the configured location
    GET    /api/holidays/custom      Admin holidays
    POST   /api/holidays             Create admin holiday
    DELETE /api/holidays/{id}        Delete admin holiday

  Admin:
    POST   /api/admin/holidays/cache/clear
    GET    /api/admin/location
    PUT    /api/admin/location
    GET    /api/admin/months/{month}/holidays
    PUT    /api/admin/months/{month}/holidays

  Attendance:
    POST   /api/attendance/parse     Preview cell classification

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"} with status:
  - 400: Validation errors (bad month/date, unreadable sheet, unknown location)
  - 404: Employee or record not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/service.go: Upload processing
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/salary"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/workdays"
)

// DefaultMaxUploadBytes bounds uploaded attendance files.
const DefaultMaxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Service  *payroll.Service
	Calendar *calendar.Calendar
	Workdays *workdays.Calculator

	MaxUploadBytes int64
	Logger         logrus.FieldLogger
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, service *payroll.Service, cal *calendar.Calendar, wd *workdays.Calculator, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		Store:          store,
		Service:        service,
		Calendar:       cal,
		Workdays:       wd,
		MaxUploadBytes: DefaultMaxUploadBytes,
		Logger:         logger,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "Employee id is required", nil)
		return
	}
	h.saveEmployee(w, r, req, http.StatusCreated)
}

// UpdateEmployee replaces the employee's identity and salary setup.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeServiceError(w, "Failed to get employee", err)
		return
	}

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = id
	h.saveEmployee(w, r, req, http.StatusOK)
}

func (h *Handler) saveEmployee(w http.ResponseWriter, r *http.Request, req EmployeeRequest, status int) {
	method := salary.MethodAuto
	if req.SalaryMethod != "" {
		m, err := salary.ParseMethod(req.SalaryMethod)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary calculation method", err)
			return
		}
		method = m
	}
	if req.BaseSalary < 0 || req.DailyWage < 0 {
		writeError(w, http.StatusBadRequest, "Salary amounts must not be negative", nil)
		return
	}

	emp := sqlite.Employee{
		ID:           strings.TrimSpace(req.ID),
		Name:         req.Name,
		Email:        req.Email,
		Dept:         req.Dept,
		BaseSalary:   decimal.NewFromFloat(req.BaseSalary),
		DailyWage:    decimal.NewFromFloat(req.DailyWage),
		SalaryMethod: string(method),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	saved, err := h.Store.GetEmployee(r.Context(), emp.ID)
	if err != nil {
		writeServiceError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, status, toEmployeeDTO(*saved))
}

// DeleteEmployee deletes an employee with its attendance and salary records.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAttendance returns an employee's daily attendance for a month.
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}
	emp, err := h.Store.GetEmployee(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get employee", err)
		return
	}

	stored, err := h.Store.ListAttendance(ctx, emp.ID, month.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance", err)
		return
	}
	records := make([]attendance.DailyRecord, len(stored))
	for i, s := range stored {
		records[i] = attendance.DailyRecord{
			Date:        s.Date,
			CheckIn:     s.CheckIn,
			CheckOut:    s.CheckOut,
			HoursWorked: s.HoursWorked,
			Status:      attendance.Status(s.Status),
		}
	}
	totals := attendance.FromRecords(generic.EmployeeID(emp.ID), emp.Name, emp.Dept, records)
	writeJSON(w, http.StatusOK, toAttendanceDTO(month.String(), totals))
}

// =============================================================================
// SALARY HANDLERS
// =============================================================================

// GetSalary returns the stored salary breakdown of an employee's month.
func (h *Handler) GetSalary(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}
	rec, err := h.Store.GetSalaryRecord(r.Context(), chi.URLParam(r, "id"), month.String())
	if err != nil {
		writeServiceError(w, "Failed to get salary", err)
		return
	}
	dto, err := salaryRecordDTO(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode salary", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListSalaries returns every stored salary of a month.
func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r.URL.Query().Get("month"))
	if !ok {
		return
	}
	records, err := h.Store.ListSalaryRecords(r.Context(), month.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list salaries", err)
		return
	}

	dtos := make([]SalaryDTO, 0, len(records))
	for i := range records {
		dto, err := salaryRecordDTO(&records[i])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to decode salary", err)
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecalculateSalary recomputes an employee's month from stored attendance.
func (h *Handler) RecalculateSalary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Service.Recalculate(r.Context(), id, chi.URLParam(r, "month"))
	if err != nil {
		writeServiceError(w, "Failed to recalculate salary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(id, *b))
}

// AdjustSalary overrides the payout of an employee's month.
func (h *Handler) AdjustSalary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}

	var req AdjustSalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AdjustedSalary < 0 {
		writeError(w, http.StatusBadRequest, "Adjusted salary must not be negative", nil)
		return
	}

	amount := generic.RoundWhole(decimal.NewFromFloat(req.AdjustedSalary))
	if err := h.Store.SetAdjustedSalary(ctx, id, month.String(), amount); err != nil {
		writeServiceError(w, "Failed to adjust salary", err)
		return
	}

	rec, err := h.Store.GetSalaryRecord(ctx, id, month.String())
	if err != nil {
		writeServiceError(w, "Failed to get salary", err)
		return
	}
	dto, err := salaryRecordDTO(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode salary", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CalculateSalary runs the salary engine on the request without storing.
func (h *Handler) CalculateSalary(w http.ResponseWriter, r *http.Request) {
	var req CalculateSalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := monthParam(w, req.MonthYear); !ok {
		return
	}
	if req.HoursWorked < 0 || req.BaseSalary < 0 || req.DailyWage < 0 || req.DaysPresent < 0 {
		writeError(w, http.StatusBadRequest, "Amounts must not be negative", nil)
		return
	}

	method := salary.MethodAuto
	if req.Method != "" {
		m, err := salary.ParseMethod(req.Method)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary calculation method", err)
			return
		}
		method = m
	}

	engine := h.Service.Engine()
	cfg := salary.EmployeeConfig{
		BaseSalary: decimal.NewFromFloat(req.BaseSalary),
		DailyWage:  decimal.NewFromFloat(req.DailyWage),
		Method:     method,
	}.Resolve(engine.Config())

	b := engine.Calculate(cfg.Input(
		req.MonthYear,
		decimal.NewFromFloat(req.HoursWorked),
		decimal.NewFromFloat(req.DaysPresent),
		req.AdminHolidayCount,
	))
	writeJSON(w, http.StatusOK, toSalaryDTO("", b))
}

func salaryRecordDTO(rec *sqlite.SalaryRecord) (SalaryDTO, error) {
	b, err := payroll.Breakdown(rec)
	if err != nil {
		return SalaryDTO{}, err
	}
	dto := toSalaryDTO(rec.EmployeeID, b)
	dto.AdjustedManually = rec.AdjustedManually
	return dto, nil
}

// =============================================================================
// UPLOAD HANDLERS
// =============================================================================

// Upload processes a multipart attendance file for a month.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	month := r.FormValue("month")
	if _, ok := monthParam(w, month); !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	res, err := h.Service.ProcessFile(r.Context(), file, header.Filename, month)
	if err != nil {
		writeServiceError(w, "Failed to process upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUploadResultDTO(res))
}

// ListUploads returns the upload log, newest first.
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	uploads, err := h.Store.ListUploads(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list uploads", err)
		return
	}
	dtos := make([]UploadDTO, len(uploads))
	for i, u := range uploads {
		dtos[i] = toUploadDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUpload returns one upload.
func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get upload", err)
		return
	}
	writeJSON(w, http.StatusOK, toUploadDTO(*u))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetWorkingDays returns the working-day breakdown of a month.
func (h *Handler) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, ok := monthParam(w, q.Get("month"))
	if !ok {
		return
	}

	excludeSaturdays := h.Service.Engine().Config().ExcludeSaturdays
	if v := q.Get("excludeSaturdays"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid excludeSaturdays", err)
			return
		}
		excludeSaturdays = b
	}

	admin, err := h.Store.AdminHolidayCount(r.Context(), month.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get month settings", err)
		return
	}
	if v := q.Get("adminHolidays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid adminHolidays", err)
			return
		}
		admin = n
	}

	info := h.Workdays.ComputeMonth(month, excludeSaturdays, admin)
	writeJSON(w, http.StatusOK, toWorkingDaysDTO(info))
}

// ListHolidays returns the effective holidays of a year at the configured
// location (built-in, file and admin holidays merged).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays, err := h.Calendar.FetchYear(year)
	if err != nil {
		writeServiceError(w, "Failed to get holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"location": h.Calendar.Location(),
		"holidays": toHolidayDTOs(holidays),
	})
}

// ListCustomHolidays returns the admin-managed holidays.
func (h *Handler) ListCustomHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayRecordDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates an admin holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Holiday name is required", nil)
		return
	}

	rec := sqlite.HolidayRecord{
		Country:   req.Country,
		State:     req.State,
		Date:      date,
		Name:      strings.TrimSpace(req.Name),
		Type:      req.Type,
		Recurring: req.Recurring,
	}
	id, err := h.Store.SaveHoliday(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	h.Calendar.ClearCache()

	rec.ID = id
	rec.Country = strings.ToUpper(rec.Country)
	rec.State = strings.ToUpper(rec.State)
	if rec.Type == "" {
		rec.Type = string(calendar.TypeCompany)
	}
	writeJSON(w, http.StatusCreated, toHolidayRecordDTO(rec))
}

// DeleteHoliday deletes an admin holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete holiday", err)
		return
	}
	h.Calendar.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ClearHolidayCache drops every cached holiday year.
func (h *Handler) ClearHolidayCache(w http.ResponseWriter, r *http.Request) {
	h.Calendar.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetLocation returns the holiday location.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc := h.Calendar.Location()
	writeJSON(w, http.StatusOK, LocationDTO{Country: loc.Country, State: loc.State})
}

// SetLocation changes and persists the holiday location. The location is
// rejected when no provider knows it.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	loc := calendar.NewLocation(req.Country, req.State)
	if loc.Country == "" {
		writeError(w, http.StatusBadRequest, "Country is required", nil)
		return
	}

	previous := h.Calendar.Location()
	h.Calendar.SetLocation(loc.Country, loc.State)
	if err := h.Calendar.Warm(time.Now().Year()); err != nil {
		h.Calendar.SetLocation(previous.Country, previous.State)
		writeServiceError(w, "Failed to load holidays for location", err)
		return
	}
	if err := h.Store.SaveHolidayLocation(r.Context(), loc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save location", err)
		return
	}

	h.Logger.WithField("location", loc.String()).Info("Holiday location changed")
	writeJSON(w, http.StatusOK, LocationDTO{Country: loc.Country, State: loc.State})
}

// GetMonthHolidays returns the admin holiday count of a month.
func (h *Handler) GetMonthHolidays(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}
	ms, err := h.Store.GetMonthSetting(r.Context(), month.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get month settings", err)
		return
	}
	writeJSON(w, http.StatusOK, MonthHolidaysDTO{Month: month.String(), AdminHolidayCount: ms.AdminHolidayCount, Note: ms.Note})
}

// SetMonthHolidays sets the admin holiday count of a month. Stored salaries
// pick it up on recalculation or the next upload.
func (h *Handler) SetMonthHolidays(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}
	var req MonthHolidaysDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AdminHolidayCount < 0 || req.AdminHolidayCount > month.Days() {
		writeError(w, http.StatusBadRequest, "Admin holiday count out of range", nil)
		return
	}

	ms := sqlite.MonthSetting{Month: month.String(), AdminHolidayCount: req.AdminHolidayCount, Note: req.Note}
	if err := h.Store.SaveMonthSetting(r.Context(), ms); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save month settings", err)
		return
	}
	writeJSON(w, http.StatusOK, MonthHolidaysDTO{Month: ms.Month, AdminHolidayCount: ms.AdminHolidayCount, Note: ms.Note})
}

// =============================================================================
// ATTENDANCE PREVIEW
// =============================================================================

// ParseAttendance classifies raw cell values without storing anything.
func (h *Handler) ParseAttendance(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	parser := h.Service.Parser()
	out := make([]ParsedCellDTO, len(req.Values))
	for i, v := range req.Values {
		f := parser.ParseValue(v)
		out[i] = ParsedCellDTO{
			Value:       v,
			CheckIn:     f.CheckIn,
			CheckOut:    f.CheckOut,
			HoursWorked: generic.Float(f.HoursWorked),
			Status:      string(f.Status),
			Rule:        string(f.Rule),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case generic.IsClientError(err), errors.As(err, &maxBytes):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// monthParam parses a YYYY-MM value, writing a 400 when it is invalid.
func monthParam(w http.ResponseWriter, raw string) (generic.Month, bool) {
	month, err := generic.ParseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month format (use YYYY-MM)", err)
		return generic.Month{}, false
	}
	return month, true
}

func strPtr(s string) *string {
	return &s
}
