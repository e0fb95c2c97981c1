/*
Package sqlite provides the SQLite-backed persistence of the payroll engine.

PURPOSE:
  Stores what the calculation core consumes and produces:
  employees with their salary setup, the normalized daily attendance of each
  upload, one salary record per employee and month, admin-managed holidays,
  per-month admin holiday counts, settings and the upload log.

KEY TABLES:
  employees:          Employee identity and salary setup
  attendance_records: One row per (employee, date), UNIQUE
  salary_records:     One row per (employee, month), UNIQUE; flattened
                      breakdown plus breakdown_json and adjusted_salary
  holidays:           Admin holidays scoped by country/state ('' = everywhere)
  month_settings:     Admin holiday count per month
  settings:           Key/value settings (holiday location)
  uploads:            Upload lifecycle (pending -> processing -> done|failed)

SUPERSEDE SEMANTICS:
  A new upload replaces an employee's month wholesale: ReplaceEmployeeMonth
  deletes the month's attendance and salary rows and inserts the new ones in
  a single SQL transaction. Records are never merged across uploads.

AMOUNTS:
  Decimal values are stored as TEXT and parsed with shopspring/decimal to
  avoid float drift.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In-memory databases are limited to one
  connection so every goroutine sees the same database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - admin.go: holidays, settings, month settings, uploads
  - payroll/service.go: the writer of attendance and salary records
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Store implements payroll persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		dept TEXT NOT NULL DEFAULT '',
		base_salary TEXT NOT NULL DEFAULT '0',
		daily_wage TEXT NOT NULL DEFAULT '0',
		salary_method TEXT NOT NULL DEFAULT 'auto',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Daily attendance (superseded per employee and month by each upload)
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		month TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT NOT NULL DEFAULT '',
		check_out TEXT NOT NULL DEFAULT '',
		hours_worked TEXT NOT NULL,
		status TEXT NOT NULL,
		upload_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_month
		ON attendance_records(employee_id, month);

	-- Salary records (one per employee and month)
	CREATE TABLE IF NOT EXISTS salary_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		month TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		daily_wage TEXT NOT NULL,
		method TEXT NOT NULL,
		required_days INTEGER NOT NULL,
		days_present TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		expected_hours TEXT NOT NULL,
		calculated_salary TEXT NOT NULL,
		adjusted_salary TEXT NOT NULL,
		adjusted_manually BOOLEAN NOT NULL DEFAULT FALSE,
		attendance_pct TEXT NOT NULL,
		hours_pct TEXT NOT NULL,
		fallback BOOLEAN NOT NULL DEFAULT FALSE,
		breakdown_json TEXT NOT NULL DEFAULT '{}',
		upload_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, month)
	);

	CREATE INDEX IF NOT EXISTS idx_salary_month
		ON salary_records(month);

	-- Holidays (admin managed, '' country/state applies everywhere)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'company',
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_location_date
		ON holidays(country, state, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(country, state, date, name);

	-- Admin holiday count per month
	CREATE TABLE IF NOT EXISTS month_settings (
		month TEXT PRIMARY KEY,
		admin_holiday_count INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	-- Key/value settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Upload log
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		month TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		employees INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		fallbacks INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_created
		ON uploads(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee represents an employee in storage.
type Employee struct {
	ID           string
	Name         string
	Email        string
	Dept         string
	BaseSalary   decimal.Decimal
	DailyWage    decimal.Decimal
	SalaryMethod string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaveEmployee creates or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, email, dept, base_salary, daily_wage, salary_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			dept = excluded.dept,
			base_salary = excluded.base_salary,
			daily_wage = excluded.daily_wage,
			salary_method = excluded.salary_method,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email, emp.Dept,
		emp.BaseSalary.String(), emp.DailyWage.String(), methodOrAuto(emp.SalaryMethod),
		now, now,
	)
	return err
}

// EnsureEmployee inserts the employee if it does not exist yet and fills a
// missing name or department from emp. The stored salary setup is never
// touched. Returns the stored employee.
func (s *Store) EnsureEmployee(ctx context.Context, emp Employee) (*Employee, error) {
	s.mu.Lock()
	query := `
		INSERT INTO employees (id, name, email, dept, base_salary, daily_wage, salary_method, created_at, updated_at)
		VALUES (?, ?, '', ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN employees.name = '' THEN excluded.name ELSE employees.name END,
			dept = CASE WHEN employees.dept = '' THEN excluded.dept ELSE employees.dept END
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Dept,
		emp.BaseSalary.String(), emp.DailyWage.String(), methodOrAuto(emp.SalaryMethod),
		now, now,
	)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.GetEmployee(ctx, emp.ID)
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, dept, base_salary, daily_wage, salary_method, created_at, updated_at
		FROM employees WHERE id = ?`, id)

	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, dept, base_salary, daily_wage, salary_method, created_at, updated_at
		FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee deletes an employee with its attendance and salary records.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (Employee, error) {
	var emp Employee
	var base, wage, createdAt, updatedAt string
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Dept, &base, &wage,
		&emp.SalaryMethod, &createdAt, &updatedAt); err != nil {
		return Employee{}, err
	}
	emp.BaseSalary = parseDecimal(base)
	emp.DailyWage = parseDecimal(wage)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	emp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return emp, nil
}

// =============================================================================
// ATTENDANCE AND SALARY RECORDS
// =============================================================================

// AttendanceRecord is one normalized day of attendance.
type AttendanceRecord struct {
	ID          string
	EmployeeID  string
	Month       string
	Date        generic.TimePoint
	CheckIn     string
	CheckOut    string
	HoursWorked decimal.Decimal
	Status      string
	UploadID    string
}

// SalaryRecord is the persisted salary breakdown of one employee and month.
// AdjustedSalary is the authoritative payout and can be edited separately.
type SalaryRecord struct {
	ID               string
	EmployeeID       string
	Month            string
	BaseSalary       decimal.Decimal
	DailyWage        decimal.Decimal
	Method           string
	RequiredDays     int
	DaysPresent      decimal.Decimal
	HoursWorked      decimal.Decimal
	ExpectedHours    decimal.Decimal
	CalculatedSalary decimal.Decimal
	AdjustedSalary   decimal.Decimal
	AdjustedManually bool
	AttendancePct    decimal.Decimal
	HoursPct         decimal.Decimal
	Fallback         bool
	BreakdownJSON    string
	UploadID         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReplaceEmployeeMonth replaces the attendance and salary of one employee
// for one month in a single transaction.
func (s *Store) ReplaceEmployeeMonth(ctx context.Context, employeeID, month string, records []AttendanceRecord, rec SalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM attendance_records WHERE employee_id = ? AND month = ?", employeeID, month); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM salary_records WHERE employee_id = ? AND month = ?", employeeID, month); err != nil {
		return fmt.Errorf("failed to delete salary record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, month, date, check_in, check_out,
			hours_worked, status, upload_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, employeeID, month, r.Date.String(), r.CheckIn, r.CheckOut,
			r.HoursWorked.String(), r.Status, r.UploadID, now,
		); err != nil {
			return fmt.Errorf("failed to insert attendance for %s: %w", r.Date, err)
		}
	}

	rec.EmployeeID = employeeID
	rec.Month = month
	if err := upsertSalary(ctx, tx, rec); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveSalaryRecord creates or replaces the salary record of rec's employee and month.
func (s *Store) SaveSalaryRecord(ctx context.Context, rec SalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertSalary(ctx, s.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSalary(ctx context.Context, db execer, rec SalaryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.BreakdownJSON == "" {
		rec.BreakdownJSON = "{}"
	}
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO salary_records (id, employee_id, month, base_salary, daily_wage, method,
			required_days, days_present, hours_worked, expected_hours, calculated_salary,
			adjusted_salary, adjusted_manually, attendance_pct, hours_pct, fallback,
			breakdown_json, upload_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			base_salary = excluded.base_salary,
			daily_wage = excluded.daily_wage,
			method = excluded.method,
			required_days = excluded.required_days,
			days_present = excluded.days_present,
			hours_worked = excluded.hours_worked,
			expected_hours = excluded.expected_hours,
			calculated_salary = excluded.calculated_salary,
			adjusted_salary = excluded.adjusted_salary,
			adjusted_manually = excluded.adjusted_manually,
			attendance_pct = excluded.attendance_pct,
			hours_pct = excluded.hours_pct,
			fallback = excluded.fallback,
			breakdown_json = excluded.breakdown_json,
			upload_id = excluded.upload_id,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.Month,
		rec.BaseSalary.String(), rec.DailyWage.String(), rec.Method,
		rec.RequiredDays, rec.DaysPresent.String(), rec.HoursWorked.String(), rec.ExpectedHours.String(),
		rec.CalculatedSalary.String(), rec.AdjustedSalary.String(), rec.AdjustedManually,
		rec.AttendancePct.String(), rec.HoursPct.String(), rec.Fallback,
		rec.BreakdownJSON, rec.UploadID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save salary record: %w", err)
	}
	return nil
}

// ListAttendance returns the attendance of one employee for one month, by date.
func (s *Store) ListAttendance(ctx context.Context, employeeID, month string) ([]AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, month, date, check_in, check_out, hours_worked, status, upload_id
		FROM attendance_records
		WHERE employee_id = ? AND month = ?
		ORDER BY date ASC`, employeeID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []AttendanceRecord{}
	for rows.Next() {
		var r AttendanceRecord
		var date, hours string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Month, &date, &r.CheckIn, &r.CheckOut,
			&hours, &r.Status, &r.UploadID); err != nil {
			return nil, err
		}
		r.Date, _ = generic.ParseDate(date)
		r.HoursWorked = parseDecimal(hours)
		records = append(records, r)
	}
	return records, rows.Err()
}

const salaryColumns = `id, employee_id, month, base_salary, daily_wage, method, required_days,
	days_present, hours_worked, expected_hours, calculated_salary, adjusted_salary,
	adjusted_manually, attendance_pct, hours_pct, fallback, breakdown_json, upload_id,
	created_at, updated_at`

// GetSalaryRecord returns the salary record of one employee for one month.
func (s *Store) GetSalaryRecord(ctx context.Context, employeeID, month string) (*SalaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+salaryColumns+" FROM salary_records WHERE employee_id = ? AND month = ?",
		employeeID, month)
	rec, err := scanSalary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: salary %s/%s", generic.ErrRecordNotFound, employeeID, month)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSalaryRecords returns every salary record of month, ordered by employee.
func (s *Store) ListSalaryRecords(ctx context.Context, month string) ([]SalaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+salaryColumns+" FROM salary_records WHERE month = ? ORDER BY employee_id", month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []SalaryRecord{}
	for rows.Next() {
		rec, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetAdjustedSalary records a manual override of the payout.
func (s *Store) SetAdjustedSalary(ctx context.Context, employeeID, month string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE salary_records
		SET adjusted_salary = ?, adjusted_manually = TRUE, updated_at = ?
		WHERE employee_id = ? AND month = ?`,
		amount.String(), time.Now().UTC().Format(time.RFC3339), employeeID, month)
	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: salary %s/%s", generic.ErrRecordNotFound, employeeID, month))
}

func scanSalary(row scanner) (SalaryRecord, error) {
	var rec SalaryRecord
	var base, wage, days, hours, expected, calculated, adjusted, attPct, hrsPct, createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Month, &base, &wage, &rec.Method, &rec.RequiredDays,
		&days, &hours, &expected, &calculated, &adjusted, &rec.AdjustedManually, &attPct, &hrsPct,
		&rec.Fallback, &rec.BreakdownJSON, &rec.UploadID, &createdAt, &updatedAt); err != nil {
		return SalaryRecord{}, err
	}
	rec.BaseSalary = parseDecimal(base)
	rec.DailyWage = parseDecimal(wage)
	rec.DaysPresent = parseDecimal(days)
	rec.HoursWorked = parseDecimal(hours)
	rec.ExpectedHours = parseDecimal(expected)
	rec.CalculatedSalary = parseDecimal(calculated)
	rec.AdjustedSalary = parseDecimal(adjusted)
	rec.AttendancePct = parseDecimal(attPct)
	rec.HoursPct = parseDecimal(hrsPct)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rec, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"attendance_records", "salary_records", "employees", "holidays", "month_settings", "settings", "uploads"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func methodOrAuto(m string) string {
	if m == "" {
		return "auto"
	}
	return m
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
