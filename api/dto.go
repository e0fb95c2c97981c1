/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts leave the API as
  JSON numbers (decimal values converted at the edge); inside the engine they
  stay decimal.Decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:   EmployeeDTO, EmployeeRequest
  Salary:     SalaryDTO, SalaryDetailsDTO, CalculateSalaryRequest, AdjustSalaryRequest
  Attendance: AttendanceDTO, DailyRecordDTO, ParseRequest, ParsedCellDTO
  Uploads:    UploadDTO, UploadResultDTO
  Calendar:   WorkingDaysDTO, HolidayDTO, HolidayRequest, LocationDTO, MonthHolidaysDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - salary/engine.go: SalaryBreakdown
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/salary"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/workdays"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Dept         string  `json:"dept"`
	BaseSalary   float64 `json:"baseSalary"`
	DailyWage    float64 `json:"dailyWage"`
	SalaryMethod string  `json:"salaryCalculationMethod"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// EmployeeRequest creates or updates an employee.
type EmployeeRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Dept         string  `json:"dept"`
	BaseSalary   float64 `json:"baseSalary"`
	DailyWage    float64 `json:"dailyWage"`
	SalaryMethod string  `json:"salaryCalculationMethod"`
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Dept:         e.Dept,
		BaseSalary:   generic.Float(e.BaseSalary),
		DailyWage:    generic.Float(e.DailyWage),
		SalaryMethod: e.SalaryMethod,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SALARY
// =============================================================================

// SalaryDTO is a salary breakdown in API responses.
type SalaryDTO struct {
	EmployeeID           string           `json:"employeeId,omitempty"`
	MonthYear            string           `json:"monthYear"`
	BaseSalary           float64          `json:"baseSalary"`
	DailyWage            float64          `json:"dailyWage"`
	CalculationMethod    string           `json:"calculationMethod"`
	RequiredDays         int              `json:"requiredDays"`
	DaysPresent          float64          `json:"daysPresent"`
	ReportedDaysPresent  float64          `json:"reportedDaysPresent"`
	HoursWorked          float64          `json:"hoursWorked"`
	ExpectedTotalHours   float64          `json:"expectedTotalHours"`
	AvgHoursPerDay       float64          `json:"avgHoursPerDay"`
	CalculatedSalary     float64          `json:"calculatedSalary"`
	AdjustedSalary       float64          `json:"adjustedSalary"`
	AdjustedManually     bool             `json:"adjustedManually"`
	AttendancePercentage float64          `json:"attendancePercentage"`
	HoursPercentage      float64          `json:"hoursPercentage"`
	ExceedsBaseSalary    bool             `json:"exceedsBaseSalary"`
	Fallback             bool             `json:"fallback"`
	FallbackReason       string           `json:"fallbackReason,omitempty"`
	Details              SalaryDetailsDTO `json:"salaryBreakdown"`
}

// SalaryDetailsDTO explains how a salary was derived.
type SalaryDetailsDTO struct {
	DailyRate          float64                  `json:"dailyRate"`
	CalculationFormula string                   `json:"calculationFormula"`
	WorkingDays        int                      `json:"workingDays"`
	HolidayCount       int                      `json:"holidayCount"`
	TotalDays          int                      `json:"totalDays"`
	Holidays           []HolidayDTO             `json:"holidays"`
	NonWorkingDays     []workdays.NonWorkingDay `json:"nonWorkingDays"`
}

func toSalaryDTO(employeeID string, b salary.SalaryBreakdown) SalaryDTO {
	nonWorking := b.Details.NonWorkingDays
	if nonWorking == nil {
		nonWorking = []workdays.NonWorkingDay{}
	}
	return SalaryDTO{
		EmployeeID:           employeeID,
		MonthYear:            b.MonthYear,
		BaseSalary:           generic.Float(b.BaseSalary),
		DailyWage:            generic.Float(b.DailyWage),
		CalculationMethod:    string(b.CalculationMethod),
		RequiredDays:         b.RequiredDays,
		DaysPresent:          generic.Float(b.DaysPresent),
		ReportedDaysPresent:  generic.Float(b.ReportedDaysPresent),
		HoursWorked:          generic.Float(b.HoursWorked),
		ExpectedTotalHours:   generic.Float(b.ExpectedTotalHours),
		AvgHoursPerDay:       generic.Float(b.AvgHoursPerDay),
		CalculatedSalary:     generic.Float(b.CalculatedSalary),
		AdjustedSalary:       generic.Float(b.AdjustedSalary),
		AttendancePercentage: generic.Float(b.AttendancePercentage),
		HoursPercentage:      generic.Float(b.HoursPercentage),
		ExceedsBaseSalary:    b.ExceedsBaseSalary,
		Fallback:             b.Fallback,
		FallbackReason:       b.FallbackReason,
		Details: SalaryDetailsDTO{
			DailyRate:          generic.Float(b.Details.DailyRate),
			CalculationFormula: b.Details.CalculationFormula,
			WorkingDays:        b.Details.WorkingDays,
			HolidayCount:       b.Details.HolidayCount,
			TotalDays:          b.Details.TotalDays,
			Holidays:           toHolidayDTOs(b.Details.Holidays),
			NonWorkingDays:     nonWorking,
		},
	}
}

// CalculateSalaryRequest calculates a salary without storing it.
type CalculateSalaryRequest struct {
	MonthYear         string  `json:"monthYear"`
	HoursWorked       float64 `json:"hoursWorked"`
	DaysPresent       float64 `json:"daysPresent"`
	BaseSalary        float64 `json:"baseSalary"`
	DailyWage         float64 `json:"dailyWage"`
	Method            string  `json:"salaryCalculationMethod"`
	AdminHolidayCount int     `json:"adminHolidayCount"`
}

// AdjustSalaryRequest overrides the payout of one month.
type AdjustSalaryRequest struct {
	AdjustedSalary float64 `json:"adjustedSalary"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// DailyRecordDTO is one day of attendance.
type DailyRecordDTO struct {
	Date        string  `json:"date"`
	CheckIn     string  `json:"checkIn,omitempty"`
	CheckOut    string  `json:"checkOut,omitempty"`
	HoursWorked float64 `json:"hoursWorked"`
	Status      string  `json:"status"`
}

// AttendanceDTO is an employee's attendance for one month.
type AttendanceDTO struct {
	EmployeeID       string           `json:"employeeId"`
	Name             string           `json:"name"`
	Dept             string           `json:"dept"`
	Month            string           `json:"month"`
	TotalDaysPresent float64          `json:"totalDaysPresent"`
	TotalHoursWorked float64          `json:"totalHoursWorked"`
	Details          []DailyRecordDTO `json:"attendanceDetails"`
}

func toAttendanceDTO(month string, t *attendance.Totals) AttendanceDTO {
	details := make([]DailyRecordDTO, len(t.Details))
	for i, d := range t.Details {
		details[i] = DailyRecordDTO{
			Date:        d.Date.String(),
			CheckIn:     d.CheckIn,
			CheckOut:    d.CheckOut,
			HoursWorked: generic.Float(d.HoursWorked),
			Status:      string(d.Status),
		}
	}
	return AttendanceDTO{
		EmployeeID:       string(t.EmployeeID),
		Name:             t.Name,
		Dept:             t.Dept,
		Month:            month,
		TotalDaysPresent: generic.Float(t.TotalDaysPresent),
		TotalHoursWorked: generic.Float(t.TotalHoursWorked),
		Details:          details,
	}
}

// ParseRequest previews how raw cell values are classified.
type ParseRequest struct {
	Values []any `json:"values"`
}

// ParsedCellDTO is the classification of one cell.
type ParsedCellDTO struct {
	Value       any     `json:"value"`
	CheckIn     string  `json:"checkIn,omitempty"`
	CheckOut    string  `json:"checkOut,omitempty"`
	HoursWorked float64 `json:"hoursWorked"`
	Status      string  `json:"status"`
	Rule        string  `json:"rule"`
}

// =============================================================================
// UPLOADS
// =============================================================================

// UploadDTO is an entry of the upload log.
type UploadDTO struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename"`
	Month       string  `json:"month"`
	Status      string  `json:"status"`
	Employees   int     `json:"employees"`
	Rows        int     `json:"rows"`
	Fallbacks   int     `json:"fallbacks"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

func toUploadDTO(u sqlite.Upload) UploadDTO {
	dto := UploadDTO{
		ID:        u.ID,
		Filename:  u.Filename,
		Month:     u.Month,
		Status:    u.Status,
		Employees: u.Employees,
		Rows:      u.Rows,
		Fallbacks: u.Fallbacks,
		Error:     u.Error,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.CompletedAt != nil {
		dto.CompletedAt = strPtr(u.CompletedAt.Format(time.RFC3339))
	}
	return dto
}

// UploadResultDTO is the response of a processed upload.
type UploadResultDTO struct {
	UploadID    string          `json:"uploadId"`
	Month       string          `json:"month"`
	Rows        int             `json:"rows"`
	SkippedRows int             `json:"skippedRows"`
	Fallbacks   int             `json:"fallbacks"`
	Employees   []AttendanceDTO `json:"employees"`
	Salaries    []SalaryDTO     `json:"salaries"`
}

func toUploadResultDTO(res *payroll.Result) UploadResultDTO {
	dto := UploadResultDTO{
		UploadID:    res.UploadID,
		Month:       res.Month,
		Rows:        res.Rows,
		SkippedRows: res.SkippedRows,
		Fallbacks:   res.Fallbacks,
		Employees:   make([]AttendanceDTO, len(res.Employees)),
		Salaries:    make([]SalaryDTO, len(res.Employees)),
	}
	for i, e := range res.Employees {
		dto.Employees[i] = toAttendanceDTO(res.Month, e.Attendance)
		dto.Employees[i].Name = e.Name
		dto.Employees[i].Dept = e.Dept
		dto.Salaries[i] = toSalaryDTO(e.EmployeeID, e.Salary)
	}
	return dto
}

// =============================================================================
// CALENDAR
// =============================================================================

// HolidayDTO is a holiday in API responses.
type HolidayDTO struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Country   string `json:"country,omitempty"`
	State     string `json:"state,omitempty"`
	Recurring bool   `json:"recurring,omitempty"`
}

func toHolidayDTOs(hs []calendar.Holiday) []HolidayDTO {
	out := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		out[i] = HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Type: string(h.Type)}
	}
	return out
}

func toHolidayRecordDTO(h sqlite.HolidayRecord) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Type:      h.Type,
		Country:   h.Country,
		State:     h.State,
		Recurring: h.Recurring,
	}
}

// HolidayRequest creates an admin holiday.
type HolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Country   string `json:"country"`
	State     string `json:"state"`
	Recurring bool   `json:"recurring"`
}

// LocationDTO selects the holiday table.
type LocationDTO struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// MonthHolidaysDTO is the admin holiday count of a month.
type MonthHolidaysDTO struct {
	Month             string `json:"month"`
	AdminHolidayCount int    `json:"adminHolidayCount"`
	Note              string `json:"note,omitempty"`
}

// WorkingDaysDTO is the working-day breakdown of a month.
type WorkingDaysDTO struct {
	MonthYear           string                   `json:"monthYear"`
	TotalDays           int                      `json:"totalDays"`
	WorkingDays         int                      `json:"workingDays"`
	RequiredWorkingDays int                      `json:"requiredWorkingDays"`
	SundayCount         int                      `json:"sundayCount"`
	SaturdayCount       int                      `json:"saturdayCount"`
	HolidayCount        int                      `json:"holidayCount"`
	AdminHolidayCount   int                      `json:"adminHolidayCount"`
	ExcludeSaturdays    bool                     `json:"excludeSaturdays"`
	Holidays            []HolidayDTO             `json:"holidays"`
	NonWorkingDays      []workdays.NonWorkingDay `json:"nonWorkingDays"`
	Summary             string                   `json:"summary"`
	Fallback            bool                     `json:"fallback"`
	FallbackReason      string                   `json:"fallbackReason,omitempty"`
}

func toWorkingDaysDTO(info workdays.WorkingDaysInfo) WorkingDaysDTO {
	nonWorking := info.NonWorkingDays
	if nonWorking == nil {
		nonWorking = []workdays.NonWorkingDay{}
	}
	return WorkingDaysDTO{
		MonthYear:           info.MonthYear,
		TotalDays:           info.TotalDays,
		WorkingDays:         info.WorkingDays,
		RequiredWorkingDays: info.RequiredWorkingDays,
		SundayCount:         info.SundayCount,
		SaturdayCount:       info.SaturdayCount,
		HolidayCount:        info.HolidayCount,
		AdminHolidayCount:   info.AdminHolidayCount,
		ExcludeSaturdays:    info.ExcludeSaturdays,
		Holidays:            toHolidayDTOs(info.Holidays),
		NonWorkingDays:      nonWorking,
		Summary:             info.Summary(),
		Fallback:            info.Fallback,
		FallbackReason:      info.FallbackReason,
	}
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
