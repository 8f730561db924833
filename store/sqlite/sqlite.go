/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (hcm.Store, payroll.RunStore)
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  hcm.EmployeeStore:   Employee records
  hcm.PositionStore:   Compensation templates
  hcm.AttendanceStore: One record per employee-day
  hcm.LoanStore:       Loan requests and balances
  hcm.HolidayStore:    Company holiday calendar
  payroll.RunStore:    Computed payroll runs

KEY TABLES:
  employees:     Person records with shift, allowances, leave balances
  positions:     Compensation templates
  attendance:    One row per employee-day, uniqueness enforced by index
  loans:         Cash advances and their repayment state
  holidays:      Company holidays (one-off and recurring)
  payroll_runs:  One row per computed month, line items as JSON

MONEY REPRESENTATION:
  Monetary columns are TEXT holding decimal strings, never REAL. Floats
  would silently lose precision on amounts like 60000/26.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hcm/store.go: Interface definitions
  - hcm/store/memory.go: In-memory implementation for testing
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
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements the storage interfaces using SQLite.
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
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		position_id TEXT NOT NULL,
		shift_json TEXT NOT NULL,
		join_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		allowances_json TEXT NOT NULL,
		pf_pct TEXT NOT NULL DEFAULT '0',
		leave_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_position
		ON employees(position_id);
	CREATE INDEX IF NOT EXISTS idx_employees_active
		ON employees(is_active);

	-- Positions (compensation templates)
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		salary_cap TEXT,
		emp_type TEXT NOT NULL,
		level TEXT,
		tax_percentage TEXT NOT NULL DEFAULT '0',
		overtime_rate TEXT NOT NULL DEFAULT '0',
		allowances_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Attendance (one row per employee-day)
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		worked_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		short_leave BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one record per employee-day. Clock-out events
	-- update the existing row; re-punches never create a second one.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_employee_day
		ON attendance(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance(date);

	-- Loans
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		monthly_deduction TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		request_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_employee
		ON loans(employee_id);
	CREATE INDEX IF NOT EXISTS idx_loans_status
		ON loans(status);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- Payroll runs (one per month)
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		month TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		working_days INTEGER NOT NULL,
		items_json TEXT NOT NULL,
		diagnostics_json TEXT,
		created_at TEXT NOT NULL,
		approved_at TEXT,
		approved_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status
		ON payroll_runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp hcm.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shiftJSON, err := json.Marshal(emp.Shift)
	if err != nil {
		return fmt.Errorf("failed to marshal shift: %w", err)
	}
	allowancesJSON, err := json.Marshal(emp.Allowances)
	if err != nil {
		return fmt.Errorf("failed to marshal allowances: %w", err)
	}
	leaveJSON, err := json.Marshal(emp.Leave)
	if err != nil {
		return fmt.Errorf("failed to marshal leave balance: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees
			(id, first_name, last_name, email, position_id, shift_json,
			 join_date, is_active, allowances_json, pf_pct, leave_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			position_id = excluded.position_id,
			shift_json = excluded.shift_json,
			join_date = excluded.join_date,
			is_active = excluded.is_active,
			allowances_json = excluded.allowances_json,
			pf_pct = excluded.pf_pct,
			leave_json = excluded.leave_json`,
		string(emp.ID), emp.FirstName, emp.LastName, emp.Email, string(emp.PositionID),
		string(shiftJSON), emp.JoinDate.String(), emp.IsActive,
		string(allowancesJSON), emp.ProvidentFundPct.String(), string(leaveJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

const employeeColumns = `id, first_name, last_name, email, position_id, shift_json,
	join_date, is_active, allowances_json, pf_pct, leave_json`

func (s *Store) GetEmployee(ctx context.Context, id hcm.EmployeeID) (hcm.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, string(id))
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return hcm.Employee{}, fmt.Errorf("employee %s: %w", id, hcm.ErrEmployeeNotFound)
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]hcm.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var result []hcm.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, emp)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (hcm.Employee, error) {
	var emp hcm.Employee
	var id, positionID, shiftJSON, joinDate, allowancesJSON, pfPct, leaveJSON string
	var email sql.NullString

	err := row.Scan(&id, &emp.FirstName, &emp.LastName, &email, &positionID,
		&shiftJSON, &joinDate, &emp.IsActive, &allowancesJSON, &pfPct, &leaveJSON)
	if err != nil {
		return hcm.Employee{}, err
	}

	emp.ID = hcm.EmployeeID(id)
	emp.PositionID = hcm.PositionID(positionID)
	emp.Email = email.String
	if err := json.Unmarshal([]byte(shiftJSON), &emp.Shift); err != nil {
		return hcm.Employee{}, fmt.Errorf("corrupt shift for employee %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(allowancesJSON), &emp.Allowances); err != nil {
		return hcm.Employee{}, fmt.Errorf("corrupt allowances for employee %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(leaveJSON), &emp.Leave); err != nil {
		return hcm.Employee{}, fmt.Errorf("corrupt leave balance for employee %s: %w", id, err)
	}
	if emp.JoinDate, err = hcm.ParseDate(joinDate); err != nil {
		return hcm.Employee{}, err
	}
	if emp.ProvidentFundPct, err = decimal.NewFromString(pfPct); err != nil {
		return hcm.Employee{}, fmt.Errorf("corrupt pf_pct for employee %s: %w", id, err)
	}
	return emp, nil
}

// =============================================================================
// POSITIONS
// =============================================================================

func (s *Store) SavePosition(ctx context.Context, pos hcm.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowancesJSON, err := json.Marshal(pos.CustomAllowances)
	if err != nil {
		return fmt.Errorf("failed to marshal allowances: %w", err)
	}

	var salaryCap sql.NullString
	if pos.SalaryCap != nil {
		salaryCap = sql.NullString{String: pos.SalaryCap.Value.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO positions
			(id, title, base_salary, salary_cap, emp_type, level,
			 tax_percentage, overtime_rate, allowances_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			base_salary = excluded.base_salary,
			salary_cap = excluded.salary_cap,
			emp_type = excluded.emp_type,
			level = excluded.level,
			tax_percentage = excluded.tax_percentage,
			overtime_rate = excluded.overtime_rate,
			allowances_json = excluded.allowances_json`,
		string(pos.ID), pos.Title, pos.BaseSalary.Value.String(), salaryCap,
		string(pos.Type), string(pos.Level), pos.TaxPercentage.String(),
		pos.OvertimeRate.String(), string(allowancesJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save position %s: %w", pos.ID, err)
	}
	return nil
}

const positionColumns = `id, title, base_salary, salary_cap, emp_type, level,
	tax_percentage, overtime_rate, allowances_json`

func (s *Store) GetPosition(ctx context.Context, id hcm.PositionID) (hcm.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE id = ?`, string(id))
	pos, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return hcm.Position{}, &hcm.MissingPositionError{PositionID: id}
	}
	return pos, err
}

func (s *Store) ListPositions(ctx context.Context) ([]hcm.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM positions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var result []hcm.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pos)
	}
	return result, rows.Err()
}

func scanPosition(row scanner) (hcm.Position, error) {
	var pos hcm.Position
	var id, base, empType, level, taxPct, otRate string
	var salaryCap, allowancesJSON sql.NullString

	err := row.Scan(&id, &pos.Title, &base, &salaryCap, &empType, &level,
		&taxPct, &otRate, &allowancesJSON)
	if err != nil {
		return hcm.Position{}, err
	}

	pos.ID = hcm.PositionID(id)
	pos.Type = hcm.EmployeeType(empType)
	pos.Level = hcm.ManagementLevel(level)
	if pos.BaseSalary, err = parseMoney(base); err != nil {
		return hcm.Position{}, fmt.Errorf("corrupt base_salary for position %s: %w", id, err)
	}
	if salaryCap.Valid {
		capMoney, err := parseMoney(salaryCap.String)
		if err != nil {
			return hcm.Position{}, fmt.Errorf("corrupt salary_cap for position %s: %w", id, err)
		}
		pos.SalaryCap = &capMoney
	}
	if pos.TaxPercentage, err = decimal.NewFromString(taxPct); err != nil {
		return hcm.Position{}, fmt.Errorf("corrupt tax_percentage for position %s: %w", id, err)
	}
	if pos.OvertimeRate, err = decimal.NewFromString(otRate); err != nil {
		return hcm.Position{}, fmt.Errorf("corrupt overtime_rate for position %s: %w", id, err)
	}
	if allowancesJSON.Valid && allowancesJSON.String != "" {
		if err := json.Unmarshal([]byte(allowancesJSON.String), &pos.CustomAllowances); err != nil {
			return hcm.Position{}, fmt.Errorf("corrupt allowances for position %s: %w", id, err)
		}
	}
	return pos, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) CreateAttendance(ctx context.Context, rec hcm.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM attendance WHERE employee_id = ? AND date = ?`,
		string(rec.EmployeeID), rec.Date.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check attendance: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("employee %s on %s: %w", rec.EmployeeID, rec.Date, hcm.ErrDuplicateAttendance)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance
			(id, employee_id, date, status, check_in, check_out,
			 worked_hours, overtime_hours, short_leave, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.EmployeeID), rec.Date.String(), string(rec.Status),
		clockString(rec.CheckIn), clockString(rec.CheckOut),
		rec.WorkedHours.String(), rec.OvertimeHours.String(), rec.ShortLeave,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

func (s *Store) UpdateAttendance(ctx context.Context, rec hcm.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance SET
			status = ?, check_in = ?, check_out = ?,
			worked_hours = ?, overtime_hours = ?, short_leave = ?
		WHERE employee_id = ? AND date = ?`,
		string(rec.Status), clockString(rec.CheckIn), clockString(rec.CheckOut),
		rec.WorkedHours.String(), rec.OvertimeHours.String(), rec.ShortLeave,
		string(rec.EmployeeID), rec.Date.String())
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("employee %s on %s: %w", rec.EmployeeID, rec.Date, hcm.ErrAttendanceNotFound)
	}
	return nil
}

const attendanceColumns = `id, employee_id, date, status, check_in, check_out,
	worked_hours, overtime_hours, short_leave`

func (s *Store) GetAttendanceByDay(ctx context.Context, id hcm.EmployeeID, date hcm.TimePoint) (hcm.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE employee_id = ? AND date = ?`,
		string(id), date.String())
	rec, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return hcm.AttendanceRecord{}, fmt.Errorf("employee %s on %s: %w", id, date, hcm.ErrAttendanceNotFound)
	}
	return rec, err
}

func (s *Store) ListAttendanceByMonth(ctx context.Context, id hcm.EmployeeID, month hcm.Month) ([]hcm.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance
		 WHERE employee_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		string(id), month.Start().String(), month.End().String())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func (s *Store) ListAttendanceByDate(ctx context.Context, date hcm.TimePoint) ([]hcm.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE date = ? ORDER BY employee_id`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]hcm.AttendanceRecord, error) {
	var result []hcm.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanAttendance(row scanner) (hcm.AttendanceRecord, error) {
	var rec hcm.AttendanceRecord
	var employeeID, date, status, worked, ot string
	var checkIn, checkOut sql.NullString

	err := row.Scan(&rec.ID, &employeeID, &date, &status, &checkIn, &checkOut,
		&worked, &ot, &rec.ShortLeave)
	if err != nil {
		return hcm.AttendanceRecord{}, err
	}

	rec.EmployeeID = hcm.EmployeeID(employeeID)
	rec.Status = hcm.AttendanceStatus(status)
	if rec.Date, err = hcm.ParseDate(date); err != nil {
		return hcm.AttendanceRecord{}, err
	}
	if rec.CheckIn, err = parseClock(checkIn); err != nil {
		return hcm.AttendanceRecord{}, err
	}
	if rec.CheckOut, err = parseClock(checkOut); err != nil {
		return hcm.AttendanceRecord{}, err
	}
	if rec.WorkedHours, err = decimal.NewFromString(worked); err != nil {
		return hcm.AttendanceRecord{}, fmt.Errorf("corrupt worked_hours: %w", err)
	}
	if rec.OvertimeHours, err = decimal.NewFromString(ot); err != nil {
		return hcm.AttendanceRecord{}, fmt.Errorf("corrupt overtime_hours: %w", err)
	}
	return rec, nil
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Store) SaveLoan(ctx context.Context, loan hcm.LoanRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans
			(id, employee_id, principal, monthly_deduction, remaining_balance,
			 reason, status, request_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remaining_balance = excluded.remaining_balance,
			status = excluded.status`,
		string(loan.ID), string(loan.EmployeeID), loan.Principal.Value.String(),
		loan.MonthlyDeduction.Value.String(), loan.RemainingBalance.Value.String(),
		loan.Reason, string(loan.Status), loan.RequestDate.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.ID, err)
	}
	return nil
}

const loanColumns = `id, employee_id, principal, monthly_deduction,
	remaining_balance, reason, status, request_date`

func (s *Store) GetLoan(ctx context.Context, id hcm.LoanID) (hcm.LoanRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, string(id))
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return hcm.LoanRequest{}, fmt.Errorf("loan %s: %w", id, hcm.ErrLoanNotFound)
	}
	return loan, err
}

func (s *Store) ListLoansByEmployee(ctx context.Context, id hcm.EmployeeID) ([]hcm.LoanRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE employee_id = ? ORDER BY id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()
	return collectLoans(rows)
}

func (s *Store) ListLoans(ctx context.Context) ([]hcm.LoanRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()
	return collectLoans(rows)
}

func collectLoans(rows *sql.Rows) ([]hcm.LoanRequest, error) {
	var result []hcm.LoanRequest
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, loan)
	}
	return result, rows.Err()
}

func scanLoan(row scanner) (hcm.LoanRequest, error) {
	var loan hcm.LoanRequest
	var id, employeeID, principal, monthly, remaining, status, requestDate string
	var reason sql.NullString

	err := row.Scan(&id, &employeeID, &principal, &monthly, &remaining,
		&reason, &status, &requestDate)
	if err != nil {
		return hcm.LoanRequest{}, err
	}

	loan.ID = hcm.LoanID(id)
	loan.EmployeeID = hcm.EmployeeID(employeeID)
	loan.Reason = reason.String
	loan.Status = hcm.LoanStatus(status)
	if loan.Principal, err = parseMoney(principal); err != nil {
		return hcm.LoanRequest{}, fmt.Errorf("corrupt principal for loan %s: %w", id, err)
	}
	if loan.MonthlyDeduction, err = parseMoney(monthly); err != nil {
		return hcm.LoanRequest{}, fmt.Errorf("corrupt monthly_deduction for loan %s: %w", id, err)
	}
	if loan.RemainingBalance, err = parseMoney(remaining); err != nil {
		return hcm.LoanRequest{}, fmt.Errorf("corrupt remaining_balance for loan %s: %w", id, err)
	}
	if loan.RequestDate, err = hcm.ParseDate(requestDate); err != nil {
		return hcm.LoanRequest{}, err
	}
	return loan, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h hcm.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET recurring = excluded.recurring`,
		h.ID, h.Date.String(), h.Name, h.Recurring,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save holiday %s: %w", h.Name, err)
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context) ([]hcm.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, name, recurring FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var result []hcm.Holiday
	for rows.Next() {
		var h hcm.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = hcm.ParseDate(date); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run *payroll.PayrollRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(run.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}
	diagJSON, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	var approvedAt sql.NullString
	if run.ApprovedAt != nil {
		approvedAt = sql.NullString{String: run.ApprovedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payroll_runs
			(id, month, status, working_days, items_json, diagnostics_json,
			 created_at, approved_at, approved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			working_days = excluded.working_days,
			items_json = excluded.items_json,
			diagnostics_json = excluded.diagnostics_json,
			approved_at = excluded.approved_at,
			approved_by = excluded.approved_by`,
		run.ID, run.Month.String(), string(run.Status), run.WorkingDays,
		string(itemsJSON), string(diagJSON),
		run.CreatedAt.UTC().Format(time.RFC3339), approvedAt, run.ApprovedBy)
	if err != nil {
		return fmt.Errorf("failed to save payroll run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, month, status, working_days, items_json, diagnostics_json,
	created_at, approved_at, approved_by`

func (s *Store) GetRun(ctx context.Context, id string) (*payroll.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, hcm.ErrRunNotFound)
	}
	return run, err
}

func (s *Store) GetRunByMonth(ctx context.Context, month hcm.Month) (*payroll.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE month = ?`, month.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run for %s: %w", month, hcm.ErrRunNotFound)
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context) ([]*payroll.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM payroll_runs ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var result []*payroll.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

func scanRun(row scanner) (*payroll.PayrollRun, error) {
	var run payroll.PayrollRun
	var month, status, itemsJSON, createdAt string
	var diagJSON, approvedAt, approvedBy sql.NullString

	err := row.Scan(&run.ID, &month, &status, &run.WorkingDays,
		&itemsJSON, &diagJSON, &createdAt, &approvedAt, &approvedBy)
	if err != nil {
		return nil, err
	}

	run.Status = payroll.RunStatus(status)
	run.ApprovedBy = approvedBy.String
	if run.Month, err = hcm.ParseMonth(month); err != nil {
		return nil, fmt.Errorf("corrupt month for run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &run.Items); err != nil {
		return nil, fmt.Errorf("corrupt line items for run %s: %w", run.ID, err)
	}
	if diagJSON.Valid && diagJSON.String != "" {
		if err := json.Unmarshal([]byte(diagJSON.String), &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("corrupt diagnostics for run %s: %w", run.ID, err)
		}
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for run %s: %w", run.ID, err)
	}
	if approvedAt.Valid {
		at, err := time.Parse(time.RFC3339, approvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt approved_at for run %s: %w", run.ID, err)
		}
		run.ApprovedAt = &at
	}
	return &run, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoney(s string) (hcm.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return hcm.Money{}, err
	}
	return hcm.Money{Value: d}, nil
}

func clockString(c *hcm.ClockTime) any {
	if c == nil {
		return nil
	}
	return c.String()
}

func parseClock(s sql.NullString) (*hcm.ClockTime, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	c, err := hcm.ParseClockTime(s.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
