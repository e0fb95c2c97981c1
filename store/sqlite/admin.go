package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// HOLIDAYS (calendar.Provider)
// =============================================================================

// HolidayRecord is an admin-managed holiday. Empty Country/State apply to
// every location; recurring holidays repeat on the same month and day.
type HolidayRecord struct {
	ID        string
	Country   string
	State     string
	Date      generic.TimePoint
	Name      string
	Type      string
	Recurring bool
	CreatedAt time.Time
}

// SaveHoliday saves a holiday. A missing ID is generated and returned.
func (s *Store) SaveHoliday(ctx context.Context, h HolidayRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Type == "" {
		h.Type = string(calendar.TypeCompany)
	}

	query := `
		INSERT INTO holidays (id, country, state, date, name, type, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(country, state, date, name) DO UPDATE SET
			type = excluded.type,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		strings.ToUpper(h.Country),
		strings.ToUpper(h.State),
		h.Date.String(),
		h.Name,
		h.Type,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", err
	}
	return h.ID, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: holiday %s", generic.ErrRecordNotFound, id))
}

// HolidaysForYear returns the admin holidays that apply to country/state in
// year, with recurring holidays moved into year.
func (s *Store) HolidaysForYear(country, state string, year int) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, country, state, date, name, type, recurring, created_at
		FROM holidays
		WHERE (country = ? OR country = '')
		  AND (state = ? OR state = '')
		  AND (
			(recurring = FALSE AND strftime('%Y', date) = ?)
			OR recurring = TRUE
		  )
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, strings.ToUpper(country), strings.ToUpper(state), fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := []calendar.Holiday{}
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		date := h.Date
		if h.Recurring {
			date = generic.NewTimePoint(year, h.Date.Month(), h.Date.Day())
			if date.Month() != h.Date.Month() {
				// Feb 29 in a common year.
				continue
			}
		}
		holidays = append(holidays, calendar.Holiday{
			ID:   h.ID,
			Date: date,
			Name: h.Name,
			Type: calendar.HolidayType(h.Type),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays, nil
}

// ListHolidays returns all admin holidays (for the admin UI). An empty
// country lists every location.
func (s *Store) ListHolidays(ctx context.Context, country string) ([]HolidayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, country, state, date, name, type, recurring, created_at
		FROM holidays
		WHERE ? = '' OR country = ? OR country = ''
		ORDER BY date ASC, name ASC
	`

	c := strings.ToUpper(country)
	rows, err := s.db.QueryContext(ctx, query, c, c)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := []HolidayRecord{}
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func scanHoliday(row scanner) (HolidayRecord, error) {
	var h HolidayRecord
	var date, createdAt string
	if err := row.Scan(&h.ID, &h.Country, &h.State, &date, &h.Name, &h.Type, &h.Recurring, &createdAt); err != nil {
		return HolidayRecord{}, err
	}
	h.Date, _ = generic.ParseDate(date)
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return h, nil
}

// =============================================================================
// MONTH SETTINGS
// =============================================================================

// MonthSetting holds the admin-declared holiday count of one month.
type MonthSetting struct {
	Month             string
	AdminHolidayCount int
	Note              string
	UpdatedAt         time.Time
}

// GetMonthSetting returns the setting of month, or a zero setting when none
// was saved.
func (s *Store) GetMonthSetting(ctx context.Context, month string) (MonthSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ms := MonthSetting{Month: month}
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT admin_holiday_count, note, updated_at FROM month_settings WHERE month = ?", month,
	).Scan(&ms.AdminHolidayCount, &ms.Note, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ms, nil
	}
	if err != nil {
		return MonthSetting{}, err
	}
	ms.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return ms, nil
}

// AdminHolidayCount returns the admin holiday count of month (0 if unset).
func (s *Store) AdminHolidayCount(ctx context.Context, month string) (int, error) {
	ms, err := s.GetMonthSetting(ctx, month)
	if err != nil {
		return 0, err
	}
	return ms.AdminHolidayCount, nil
}

// SaveMonthSetting creates or updates the setting of a month.
func (s *Store) SaveMonthSetting(ctx context.Context, ms MonthSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO month_settings (month, admin_holiday_count, note, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			admin_holiday_count = excluded.admin_holiday_count,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		ms.Month, ms.AdminHolidayCount, ms.Note, time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// SETTINGS
// =============================================================================

// Setting keys.
const (
	SettingHolidayCountry = "holiday_country"
	SettingHolidayState   = "holiday_state"
)

// GetSetting returns the value of key and whether it is set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores value under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// HolidayLocation returns the persisted holiday location, if any.
func (s *Store) HolidayLocation(ctx context.Context) (calendar.Location, bool, error) {
	country, ok, err := s.GetSetting(ctx, SettingHolidayCountry)
	if err != nil || !ok {
		return calendar.Location{}, false, err
	}
	state, _, err := s.GetSetting(ctx, SettingHolidayState)
	if err != nil {
		return calendar.Location{}, false, err
	}
	return calendar.NewLocation(country, state), true, nil
}

// SaveHolidayLocation persists the holiday location.
func (s *Store) SaveHolidayLocation(ctx context.Context, loc calendar.Location) error {
	if err := s.SetSetting(ctx, SettingHolidayCountry, loc.Country); err != nil {
		return err
	}
	return s.SetSetting(ctx, SettingHolidayState, loc.State)
}

// =============================================================================
// UPLOADS
// =============================================================================

// Upload statuses.
const (
	UploadPending    = "pending"
	UploadProcessing = "processing"
	UploadDone       = "done"
	UploadFailed     = "failed"
)

// Upload is one processed attendance file.
type Upload struct {
	ID          string
	Filename    string
	Month       string
	Status      string
	Employees   int
	Rows        int
	Fallbacks   int
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// SaveUpload creates or updates an upload.
func (s *Store) SaveUpload(ctx context.Context, u Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	var completedAt *string
	if u.CompletedAt != nil {
		c := u.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &c
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, month, status, employees, row_count, fallbacks, error, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			employees = excluded.employees,
			row_count = excluded.row_count,
			fallbacks = excluded.fallbacks,
			error = excluded.error,
			completed_at = excluded.completed_at`,
		u.ID, u.Filename, u.Month, u.Status, u.Employees, u.Rows, u.Fallbacks, u.Error,
		u.CreatedAt.UTC().Format(time.RFC3339), completedAt)
	return err
}

// GetUpload returns an upload by ID.
func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, month, status, employees, row_count, fallbacks, error, created_at, completed_at
		FROM uploads WHERE id = ?`, id)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: upload %s", generic.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUploads returns the most recent uploads first.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, month, status, employees, row_count, fallbacks, error, created_at, completed_at
		FROM uploads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

func scanUpload(row scanner) (Upload, error) {
	var u Upload
	var createdAt string
	var completedAt sql.NullString
	if err := row.Scan(&u.ID, &u.Filename, &u.Month, &u.Status, &u.Employees, &u.Rows,
		&u.Fallbacks, &u.Error, &createdAt, &completedAt); err != nil {
		return Upload{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		u.CompletedAt = &t
	}
	return u, nil
}
