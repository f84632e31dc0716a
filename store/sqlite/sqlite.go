/*
Package sqlite provides the SQLite-backed implementation of the leave
engine's storage interfaces.

PURPOSE:
  Implements EmployeeStore, RequestStore, BalanceStore, HolidayStore and
  SettingsStore over a single SQLite database. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:       Employee records with reporting line
  balances:        Per-(employee, leave_type) counters, decimal as TEXT
  leave_requests:  Requests; ranges and the frozen calculation as JSON
  holidays:        Holiday calendar, one row per date (PRIMARY KEY)
  settings:        Single-row workweek and policy flags

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Counter serialization is the
  Ledger's job; the store only guarantees individual statements don't
  interleave badly on the shared connection.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/leave.db")  // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loomhr/leave-engine/leave"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Interface checks
var (
	_ leave.EmployeeStore = (*Store)(nil)
	_ leave.RequestStore  = (*Store)(nil)
	_ leave.BalanceStore  = (*Store)(nil)
	_ leave.HolidayStore  = (*Store)(nil)
	_ leave.SettingsStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT NOT NULL,
		manager_id TEXT,
		role TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		total TEXT NOT NULL,
		used TEXT NOT NULL,
		pending TEXT NOT NULL,
		PRIMARY KEY (employee_id, leave_type)
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		ranges_json TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		calculation_json TEXT,
		submitted_at TEXT,
		approver_id TEXT,
		approved_at TEXT,
		manager_comments TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		start_day INTEGER NOT NULL,
		end_day INTEGER NOT NULL,
		exclude_holidays INTEGER NOT NULL,
		weekend_bridging INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, department, manager_id, role FROM employees WHERE id = ?`, string(id))
	return scanEmployee(row)
}

func (s *Store) SaveEmployee(ctx context.Context, e *leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var managerID sql.NullString
	if e.ManagerID != nil {
		managerID = sql.NullString{String: string(*e.ManagerID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, department, manager_id, role)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			manager_id = excluded.manager_id,
			role = excluded.role`,
		string(e.ID), e.Name, e.Department, managerID, string(e.Role))
	return err
}

func (s *Store) ListEmployees(ctx context.Context) ([]*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department, manager_id, role FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*leave.Employee, error) {
	var (
		id, name, department, role string
		managerID                  sql.NullString
	)
	if err := row.Scan(&id, &name, &department, &managerID, &role); err != nil {
		if err == sql.ErrNoRows {
			return nil, leave.ErrUnknownEmployee
		}
		return nil, err
	}
	e := &leave.Employee{
		ID:         leave.EmployeeID(id),
		Name:       name,
		Department: department,
		Role:       leave.Role(role),
	}
	if managerID.Valid {
		mid := leave.EmployeeID(managerID.String)
		e.ManagerID = &mid
	}
	return e, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, key leave.BalanceKey) (leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, used, pending string
	err := s.db.QueryRowContext(ctx,
		`SELECT total, used, pending FROM balances WHERE employee_id = ? AND leave_type = ?`,
		string(key.EmployeeID), string(key.LeaveType)).Scan(&total, &used, &pending)
	if err == sql.ErrNoRows {
		// Distinguish a missing employee from a missing bucket.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM employees WHERE id = ?`, string(key.EmployeeID)).Scan(&exists); err != nil {
			return leave.LeaveBalance{}, err
		}
		if exists == 0 {
			return leave.LeaveBalance{}, leave.ErrUnknownEmployee
		}
		return leave.LeaveBalance{}, leave.ErrUnknownLeaveType
	}
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return parseBalance(total, used, pending)
}

func (s *Store) SaveBalance(ctx context.Context, key leave.BalanceKey, b leave.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM employees WHERE id = ?`, string(key.EmployeeID)).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return leave.ErrUnknownEmployee
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (employee_id, leave_type, total, used, pending)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, leave_type) DO UPDATE SET
			total = excluded.total,
			used = excluded.used,
			pending = excluded.pending`,
		string(key.EmployeeID), string(key.LeaveType),
		b.Total.String(), b.Used.String(), b.Pending.String())
	return err
}

func (s *Store) ListBalances(ctx context.Context, id leave.EmployeeID) (map[leave.LeaveType]leave.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM employees WHERE id = ?`, string(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, leave.ErrUnknownEmployee
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT leave_type, total, used, pending FROM balances WHERE employee_id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[leave.LeaveType]leave.LeaveBalance)
	for rows.Next() {
		var leaveType, total, used, pending string
		if err := rows.Scan(&leaveType, &total, &used, &pending); err != nil {
			return nil, err
		}
		b, err := parseBalance(total, used, pending)
		if err != nil {
			return nil, err
		}
		out[leave.LeaveType(leaveType)] = b
	}
	return out, rows.Err()
}

func parseBalance(total, used, pending string) (leave.LeaveBalance, error) {
	t, err := leave.ParseDays(total)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("corrupt total %q: %w", total, err)
	}
	u, err := leave.ParseDays(used)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("corrupt used %q: %w", used, err)
	}
	p, err := leave.ParseDays(pending)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("corrupt pending %q: %w", pending, err)
	}
	return leave.LeaveBalance{Total: t, Used: u, Pending: p}, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_type, ranges_json, reason, status,
	calculation_json, submitted_at, approver_id, approved_at, manager_comments,
	created_at, updated_at`

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, string(id))
	return scanRequest(row)
}

func (s *Store) SaveRequest(ctx context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rangesJSON, err := json.Marshal(r.Ranges)
	if err != nil {
		return fmt.Errorf("failed to encode ranges: %w", err)
	}

	var calcJSON sql.NullString
	if r.Calculation != nil {
		b, err := json.Marshal(r.Calculation)
		if err != nil {
			return fmt.Errorf("failed to encode calculation: %w", err)
		}
		calcJSON = sql.NullString{String: string(b), Valid: true}
	}

	var approverID sql.NullString
	if r.ApproverID != nil {
		approverID = sql.NullString{String: string(*r.ApproverID), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ranges_json = excluded.ranges_json,
			reason = excluded.reason,
			status = excluded.status,
			calculation_json = excluded.calculation_json,
			submitted_at = excluded.submitted_at,
			approver_id = excluded.approver_id,
			approved_at = excluded.approved_at,
			manager_comments = excluded.manager_comments,
			updated_at = excluded.updated_at`,
		string(r.ID), string(r.EmployeeID), string(r.LeaveType),
		string(rangesJSON), r.Reason, string(r.Status),
		calcJSON, encodeTime(r.SubmittedAt), approverID, encodeTime(r.ApprovedAt),
		r.ManagerComments, r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListByEmployee(ctx context.Context, id leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE employee_id = ? ORDER BY created_at DESC`, string(id))
}

func (s *Store) ListPendingForManager(ctx context.Context, managerID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx, `
		SELECT r.id, r.employee_id, r.leave_type, r.ranges_json, r.reason, r.status,
			r.calculation_json, r.submitted_at, r.approver_id, r.approved_at,
			r.manager_comments, r.created_at, r.updated_at
		FROM leave_requests r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.status = 'pending' AND e.manager_id = ?
		ORDER BY r.created_at ASC`, string(managerID))
}

func (s *Store) ListApprovedForManager(ctx context.Context, managerID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx, `
		SELECT r.id, r.employee_id, r.leave_type, r.ranges_json, r.reason, r.status,
			r.calculation_json, r.submitted_at, r.approver_id, r.approved_at,
			r.manager_comments, r.created_at, r.updated_at
		FROM leave_requests r
		JOIN employees e ON e.id = r.employee_id
		WHERE r.status = 'approved' AND e.manager_id = ?
		ORDER BY r.created_at DESC`, string(managerID))
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var (
		id, employeeID, leaveType, rangesJSON, reason, status string
		managerComments, createdAt, updatedAt                 string
		calcJSON, submittedAt, approverID, approvedAt         sql.NullString
	)
	err := row.Scan(&id, &employeeID, &leaveType, &rangesJSON, &reason, &status,
		&calcJSON, &submittedAt, &approverID, &approvedAt, &managerComments,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, leave.ErrRequestNotFound
		}
		return nil, err
	}

	r := &leave.LeaveRequest{
		ID:              leave.RequestID(id),
		EmployeeID:      leave.EmployeeID(employeeID),
		LeaveType:       leave.LeaveType(leaveType),
		Reason:          reason,
		Status:          leave.RequestStatus(status),
		ManagerComments: managerComments,
	}

	if err := json.Unmarshal([]byte(rangesJSON), &r.Ranges); err != nil {
		return nil, fmt.Errorf("corrupt ranges for request %s: %w", id, err)
	}
	if calcJSON.Valid {
		var calc leave.DaysCalculation
		if err := json.Unmarshal([]byte(calcJSON.String), &calc); err != nil {
			return nil, fmt.Errorf("corrupt calculation for request %s: %w", id, err)
		}
		r.Calculation = &calc
	}
	if approverID.Valid {
		aid := leave.EmployeeID(approverID.String)
		r.ApproverID = &aid
	}
	if r.SubmittedAt, err = decodeTime(submittedAt); err != nil {
		return nil, err
	}
	if r.ApprovedAt, err = decodeTime(approvedAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for request %s: %w", id, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for request %s: %w", id, err)
	}
	return r, nil
}

func encodeTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func decodeTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) ListHolidays(ctx context.Context) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, name, category FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var date, name, category string
		if err := rows.Scan(&date, &name, &category); err != nil {
			return nil, err
		}
		d, err := leave.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("corrupt holiday date %q: %w", date, err)
		}
		out = append(out, leave.Holiday{
			Date:     d,
			Name:     name,
			Category: leave.HolidayCategory(category),
		})
	}
	return out, rows.Err()
}

func (s *Store) AddHoliday(ctx context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM holidays WHERE date = ?`, h.Date.String()).Scan(&existing)
	if err == nil {
		return &leave.DuplicateHolidayError{Date: h.Date, Existing: existing}
	}
	if err != sql.ErrNoRows {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO holidays (date, name, category) VALUES (?, ?, ?)`,
		h.Date.String(), h.Name, string(h.Category))
	return err
}

func (s *Store) RemoveHoliday(ctx context.Context, d leave.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = ?`, d.String())
	return err
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSettings(ctx context.Context) (leave.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var startDay, endDay, excludeHolidays, weekendBridging int
	err := s.db.QueryRowContext(ctx,
		`SELECT start_day, end_day, exclude_holidays, weekend_bridging FROM settings WHERE id = 1`).
		Scan(&startDay, &endDay, &excludeHolidays, &weekendBridging)
	if err == sql.ErrNoRows {
		return leave.Settings{}, leave.ErrSettingsNotFound
	}
	if err != nil {
		return leave.Settings{}, err
	}
	return leave.Settings{
		Workweek: leave.WorkweekConfig{
			StartDay: time.Weekday(startDay),
			EndDay:   time.Weekday(endDay),
		},
		Flags: leave.Flags{
			ExcludeHolidays: excludeHolidays != 0,
			WeekendBridging: weekendBridging != 0,
		},
	}, nil
}

func (s *Store) SaveSettings(ctx context.Context, cfg leave.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, start_day, end_day, exclude_holidays, weekend_bridging)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_day = excluded.start_day,
			end_day = excluded.end_day,
			exclude_holidays = excluded.exclude_holidays,
			weekend_bridging = excluded.weekend_bridging`,
		int(cfg.Workweek.StartDay), int(cfg.Workweek.EndDay),
		boolToInt(cfg.Flags.ExcludeHolidays), boolToInt(cfg.Flags.WeekendBridging))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
