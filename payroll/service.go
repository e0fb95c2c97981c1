/*
service.go - Upload batch orchestration

PURPOSE:
  Turns one uploaded attendance sheet into stored salary records. This is the
  only place where the calculation core meets persistence.

FLOW:
  rows -> attendance.Aggregate -> per employee:
      EnsureEmployee -> EmployeeConfig.Resolve -> AdminHolidayCount
      -> salary.Engine.Calculate -> ReplaceEmployeeMonth

  Employees are processed in parallel, bounded by the worker limit. Each
  employee's month is replaced atomically; a failing employee fails the
  upload but leaves the other employees' committed months in place.

UPLOAD LIFECYCLE:
  pending -> processing -> done | failed

SUPERSEDE SEMANTICS:
  A new upload replaces an employee's month wholesale, including any manual
  adjusted salary. Recalculate keeps a manual adjustment.

SEE ALSO:
  - attendance/aggregate.go: per-employee totals
  - salary/engine.go: the calculation
  - store/sqlite/sqlite.go: ReplaceEmployeeMonth
*/
package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/importer"
	"github.com/warp/payroll-engine/salary"
	"github.com/warp/payroll-engine/store/sqlite"
)

// DefaultWorkers is the number of employees calculated in parallel.
const DefaultWorkers = 4

// Store is the persistence the service needs.
type Store interface {
	EnsureEmployee(ctx context.Context, emp sqlite.Employee) (*sqlite.Employee, error)
	GetEmployee(ctx context.Context, id string) (*sqlite.Employee, error)
	AdminHolidayCount(ctx context.Context, month string) (int, error)
	ReplaceEmployeeMonth(ctx context.Context, employeeID, month string, records []sqlite.AttendanceRecord, rec sqlite.SalaryRecord) error
	ListAttendance(ctx context.Context, employeeID, month string) ([]sqlite.AttendanceRecord, error)
	GetSalaryRecord(ctx context.Context, employeeID, month string) (*sqlite.SalaryRecord, error)
	SaveSalaryRecord(ctx context.Context, rec sqlite.SalaryRecord) error
	SaveUpload(ctx context.Context, u sqlite.Upload) error
}

// Upload is one batch of attendance rows for a month.
type Upload struct {
	ID       string // generated when empty
	Month    string
	Filename string
	Rows     []attendance.Row
}

// EmployeeResult is the outcome for one employee of an upload.
type EmployeeResult struct {
	EmployeeID string                 `json:"employeeId"`
	Name       string                 `json:"name"`
	Dept       string                 `json:"dept"`
	Attendance *attendance.Totals     `json:"attendance"`
	Salary     salary.SalaryBreakdown `json:"salary"`
}

// Result summarizes a processed upload.
type Result struct {
	UploadID    string           `json:"uploadId"`
	Month       string           `json:"month"`
	Rows        int              `json:"rows"`
	SkippedRows int              `json:"skippedRows"`
	Fallbacks   int              `json:"fallbacks"`
	Employees   []EmployeeResult `json:"employees"`
}

// Service runs uploads and recalculations.
type Service struct {
	store   Store
	engine  *salary.Engine
	parser  *attendance.Parser
	workers int
	logger  logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds the number of employees calculated in parallel.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service. A nil parser logs through the service logger.
func NewService(store Store, engine *salary.Engine, parser *attendance.Parser, opts ...Option) *Service {
	s := &Service{
		store:   store,
		engine:  engine,
		workers: DefaultWorkers,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if parser == nil {
		parser = attendance.NewParser(s.logger)
	}
	s.parser = parser
	return s
}

// Engine returns the salary engine in use.
func (s *Service) Engine() *salary.Engine { return s.engine }

// Parser returns the attendance parser in use.
func (s *Service) Parser() *attendance.Parser { return s.parser }

// =============================================================================
// UPLOADS
// =============================================================================

// ProcessFile reads a spreadsheet, extracts the month's rows and processes them.
func (s *Service) ProcessFile(ctx context.Context, r io.Reader, filename, month string) (*Result, error) {
	m, err := generic.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	rows, err := importer.ReadRows(r, filename)
	if err != nil {
		return nil, err
	}
	sheet, err := importer.ParseSheet(rows, m)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":    filename,
		"layout":  sheet.Layout,
		"rows":    len(sheet.Rows),
		"skipped": sheet.SkippedRows,
	}).Info("Attendance sheet parsed")

	res, err := s.ProcessUpload(ctx, Upload{Month: month, Filename: filename, Rows: sheet.Rows})
	if res != nil {
		res.SkippedRows += sheet.SkippedRows
	}
	return res, err
}

// ProcessUpload calculates and stores the salaries of every employee in u.
func (s *Service) ProcessUpload(ctx context.Context, u Upload) (*Result, error) {
	month, err := generic.ParseMonth(u.Month)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	record := sqlite.Upload{
		ID:        u.ID,
		Filename:  u.Filename,
		Month:     month.String(),
		Status:    sqlite.UploadPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveUpload(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{"upload": u.ID, "month": month.String()})

	var rows []attendance.Row
	skipped := 0
	for _, row := range u.Rows {
		if !month.Contains(row.Date) {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	totals := attendance.Aggregate(s.parser, rows)
	if len(totals) == 0 {
		return nil, s.fail(ctx, record, generic.ErrEmptySheet)
	}

	record.Status = sqlite.UploadProcessing
	record.Rows = len(rows)
	record.Employees = len(totals)
	if err := s.store.SaveUpload(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	log.WithField("employees", len(totals)).Info("Processing upload")

	results := make([]EmployeeResult, len(totals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range totals {
		i, t := i, t
		g.Go(func() error {
			res, err := s.processEmployee(gctx, u.ID, month, t)
			if err != nil {
				return fmt.Errorf("employee %s: %w", t.EmployeeID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, record, err)
	}

	fallbacks := 0
	for _, r := range results {
		if r.Salary.Fallback {
			fallbacks++
		}
	}

	completed := s.now().UTC()
	record.Status = sqlite.UploadDone
	record.Fallbacks = fallbacks
	record.CompletedAt = &completed
	if err := s.store.SaveUpload(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	log.WithFields(logrus.Fields{
		"employees": len(results),
		"fallbacks": fallbacks,
		"skipped":   skipped,
	}).Info("Upload processed")

	return &Result{
		UploadID:    u.ID,
		Month:       month.String(),
		Rows:        len(rows),
		SkippedRows: skipped,
		Fallbacks:   fallbacks,
		Employees:   results,
	}, nil
}

func (s *Service) processEmployee(ctx context.Context, uploadID string, month generic.Month, t *attendance.Totals) (EmployeeResult, error) {
	emp, err := s.store.EnsureEmployee(ctx, sqlite.Employee{
		ID:   string(t.EmployeeID),
		Name: t.Name,
		Dept: t.Dept,
	})
	if err != nil {
		return EmployeeResult{}, err
	}

	b, err := s.calculate(ctx, emp, month, t)
	if err != nil {
		return EmployeeResult{}, err
	}

	rec, err := salaryRecord(b)
	if err != nil {
		return EmployeeResult{}, err
	}
	rec.UploadID = uploadID

	if err := s.store.ReplaceEmployeeMonth(ctx, emp.ID, month.String(), attendanceRecords(t, uploadID), rec); err != nil {
		return EmployeeResult{}, err
	}

	return EmployeeResult{
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Dept:       emp.Dept,
		Attendance: t,
		Salary:     b,
	}, nil
}

func (s *Service) fail(ctx context.Context, record sqlite.Upload, cause error) error {
	completed := s.now().UTC()
	record.Status = sqlite.UploadFailed
	record.Error = cause.Error()
	record.CompletedAt = &completed
	if err := s.store.SaveUpload(context.WithoutCancel(ctx), record); err != nil {
		s.logger.WithError(err).WithField("upload", record.ID).Error("Failed to record upload failure")
	}
	s.logger.WithError(cause).WithField("upload", record.ID).Warn("Upload failed")
	return cause
}

// =============================================================================
// RECALCULATION
// =============================================================================

// Recalculate recomputes an employee's month from stored attendance, e.g.
// after the salary setup or the month's holidays changed. A manual adjusted
// salary is kept.
func (s *Service) Recalculate(ctx context.Context, employeeID, month string) (*salary.SalaryBreakdown, error) {
	m, err := generic.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.ListAttendance(ctx, emp.ID, m.String())
	if err != nil {
		return nil, err
	}
	records := make([]attendance.DailyRecord, 0, len(stored))
	for _, r := range stored {
		records = append(records, attendance.DailyRecord{
			Date:        r.Date,
			CheckIn:     r.CheckIn,
			CheckOut:    r.CheckOut,
			HoursWorked: r.HoursWorked,
			Status:      attendance.Status(r.Status),
		})
	}
	t := attendance.FromRecords(generic.EmployeeID(emp.ID), emp.Name, emp.Dept, records)

	b, err := s.calculate(ctx, emp, m, t)
	if err != nil {
		return nil, err
	}
	rec, err := salaryRecord(b)
	if err != nil {
		return nil, err
	}
	rec.EmployeeID = emp.ID

	previous, err := s.store.GetSalaryRecord(ctx, emp.ID, m.String())
	switch {
	case err == nil:
		rec.UploadID = previous.UploadID
		if previous.AdjustedManually {
			rec.AdjustedSalary = previous.AdjustedSalary
			rec.AdjustedManually = true
			b.AdjustedSalary = previous.AdjustedSalary
		}
	case !errors.Is(err, generic.ErrRecordNotFound):
		return nil, err
	}

	if err := s.store.SaveSalaryRecord(ctx, rec); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) calculate(ctx context.Context, emp *sqlite.Employee, month generic.Month, t *attendance.Totals) (salary.SalaryBreakdown, error) {
	admin, err := s.store.AdminHolidayCount(ctx, month.String())
	if err != nil {
		return salary.SalaryBreakdown{}, err
	}

	cfg := EmployeeConfig(emp).Resolve(s.engine.Config())
	b := s.engine.Calculate(cfg.Input(month.String(), t.TotalHoursWorked, t.TotalDaysPresent, admin))
	b.MonthYear = month.String()

	if b.Fallback {
		s.logger.WithFields(logrus.Fields{
			"employee": emp.ID,
			"month":    month.String(),
			"reason":   b.FallbackReason,
		}).Warn("Salary calculated with fallback")
	}
	return b, nil
}

// EmployeeConfig converts a stored employee into its salary setup. An
// unknown method falls back to auto.
func EmployeeConfig(emp *sqlite.Employee) salary.EmployeeConfig {
	method, err := salary.ParseMethod(emp.SalaryMethod)
	if err != nil {
		method = salary.MethodAuto
	}
	return salary.EmployeeConfig{
		BaseSalary: emp.BaseSalary,
		DailyWage:  emp.DailyWage,
		Method:     method,
	}
}

// =============================================================================
// CONVERSION
// =============================================================================

func attendanceRecords(t *attendance.Totals, uploadID string) []sqlite.AttendanceRecord {
	out := make([]sqlite.AttendanceRecord, 0, len(t.Details))
	for _, d := range t.Details {
		out = append(out, sqlite.AttendanceRecord{
			EmployeeID:  string(t.EmployeeID),
			Date:        d.Date,
			CheckIn:     d.CheckIn,
			CheckOut:    d.CheckOut,
			HoursWorked: d.HoursWorked,
			Status:      string(d.Status),
			UploadID:    uploadID,
		})
	}
	return out
}

func salaryRecord(b salary.SalaryBreakdown) (sqlite.SalaryRecord, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return sqlite.SalaryRecord{}, fmt.Errorf("failed to encode breakdown: %w", err)
	}
	return sqlite.SalaryRecord{
		Month:            b.MonthYear,
		BaseSalary:       b.BaseSalary,
		DailyWage:        b.DailyWage,
		Method:           string(b.CalculationMethod),
		RequiredDays:     b.RequiredDays,
		DaysPresent:      b.DaysPresent,
		HoursWorked:      b.HoursWorked,
		ExpectedHours:    b.ExpectedTotalHours,
		CalculatedSalary: b.CalculatedSalary,
		AdjustedSalary:   b.AdjustedSalary,
		AttendancePct:    b.AttendancePercentage,
		HoursPct:         b.HoursPercentage,
		Fallback:         b.Fallback,
		BreakdownJSON:    string(raw),
	}, nil
}

// Breakdown decodes the breakdown stored with rec.
func Breakdown(rec *sqlite.SalaryRecord) (salary.SalaryBreakdown, error) {
	var b salary.SalaryBreakdown
	if err := json.Unmarshal([]byte(rec.BreakdownJSON), &b); err != nil {
		return b, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	b.AdjustedSalary = rec.AdjustedSalary
	if b.MonthYear == "" {
		b.MonthYear = rec.Month
	}
	return b, nil
}
