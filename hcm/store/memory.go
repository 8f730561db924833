// Package store provides in-memory Store implementations for testing
// and development.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements hcm.Store and payroll.RunStore over maps. Values are
// copied on the way in and out, so callers can never alias stored state.
type Memory struct {
	mu sync.RWMutex

	employees  map[hcm.EmployeeID]hcm.Employee
	positions  map[hcm.PositionID]hcm.Position
	attendance map[dayKey]hcm.AttendanceRecord
	loans      map[hcm.LoanID]hcm.LoanRequest
	holidays   []hcm.Holiday
	runs       map[string]payroll.PayrollRun
}

type dayKey struct {
	EmployeeID hcm.EmployeeID
	Date       string
}

func NewMemory() *Memory {
	return &Memory{
		employees:  make(map[hcm.EmployeeID]hcm.Employee),
		positions:  make(map[hcm.PositionID]hcm.Position),
		attendance: make(map[dayKey]hcm.AttendanceRecord),
		loans:      make(map[hcm.LoanID]hcm.LoanRequest),
		runs:       make(map[string]payroll.PayrollRun),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp hcm.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id hcm.EmployeeID) (hcm.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return hcm.Employee{}, fmt.Errorf("employee %s: %w", id, hcm.ErrEmployeeNotFound)
	}
	return emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]hcm.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]hcm.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// POSITIONS
// =============================================================================

func (m *Memory) SavePosition(_ context.Context, pos hcm.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.ID] = pos
	return nil
}

func (m *Memory) GetPosition(_ context.Context, id hcm.PositionID) (hcm.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[id]
	if !ok {
		return hcm.Position{}, &hcm.MissingPositionError{PositionID: id}
	}
	return pos, nil
}

func (m *Memory) ListPositions(_ context.Context) ([]hcm.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]hcm.Position, 0, len(m.positions))
	for _, pos := range m.positions {
		result = append(result, pos)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// ATTENDANCE - One record per employee-day
// =============================================================================

func (m *Memory) CreateAttendance(_ context.Context, rec hcm.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dayKey{EmployeeID: rec.EmployeeID, Date: rec.Date.String()}
	if _, exists := m.attendance[k]; exists {
		return fmt.Errorf("employee %s on %s: %w", rec.EmployeeID, rec.Date, hcm.ErrDuplicateAttendance)
	}
	m.attendance[k] = rec
	return nil
}

func (m *Memory) UpdateAttendance(_ context.Context, rec hcm.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dayKey{EmployeeID: rec.EmployeeID, Date: rec.Date.String()}
	if _, exists := m.attendance[k]; !exists {
		return fmt.Errorf("employee %s on %s: %w", rec.EmployeeID, rec.Date, hcm.ErrAttendanceNotFound)
	}
	m.attendance[k] = rec
	return nil
}

func (m *Memory) GetAttendanceByDay(_ context.Context, id hcm.EmployeeID, date hcm.TimePoint) (hcm.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.attendance[dayKey{EmployeeID: id, Date: date.String()}]
	if !ok {
		return hcm.AttendanceRecord{}, fmt.Errorf("employee %s on %s: %w", id, date, hcm.ErrAttendanceNotFound)
	}
	return rec, nil
}

func (m *Memory) ListAttendanceByMonth(_ context.Context, id hcm.EmployeeID, month hcm.Month) ([]hcm.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []hcm.AttendanceRecord
	for k, rec := range m.attendance {
		if k.EmployeeID == id && month.Contains(rec.Date) {
			result = append(result, rec)
		}
	}
	sortByDate(result)
	return result, nil
}

func (m *Memory) ListAttendanceByDate(_ context.Context, date hcm.TimePoint) ([]hcm.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := date.String()
	var result []hcm.AttendanceRecord
	for k, rec := range m.attendance {
		if k.Date == day {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func sortByDate(recs []hcm.AttendanceRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
}

// =============================================================================
// LOANS
// =============================================================================

func (m *Memory) SaveLoan(_ context.Context, loan hcm.LoanRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *Memory) GetLoan(_ context.Context, id hcm.LoanID) (hcm.LoanRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loan, ok := m.loans[id]
	if !ok {
		return hcm.LoanRequest{}, fmt.Errorf("loan %s: %w", id, hcm.ErrLoanNotFound)
	}
	return loan, nil
}

func (m *Memory) ListLoansByEmployee(_ context.Context, id hcm.EmployeeID) ([]hcm.LoanRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []hcm.LoanRequest
	for _, loan := range m.loans {
		if loan.EmployeeID == id {
			result = append(result, loan)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ListLoans(_ context.Context) ([]hcm.LoanRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]hcm.LoanRequest, 0, len(m.loans))
	for _, loan := range m.loans {
		result = append(result, loan)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h hcm.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]hcm.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]hcm.Holiday, len(m.holidays))
	copy(result, m.holidays)
	return result, nil
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run *payroll.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = copyRun(run)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, hcm.ErrRunNotFound)
	}
	out := copyRun(&run)
	return &out, nil
}

func (m *Memory) GetRunByMonth(_ context.Context, month hcm.Month) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		if run.Month == month {
			out := copyRun(&run)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("run for %s: %w", month, hcm.ErrRunNotFound)
}

func (m *Memory) ListRuns(_ context.Context) ([]*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*payroll.PayrollRun, 0, len(m.runs))
	for _, run := range m.runs {
		out := copyRun(&run)
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func copyRun(run *payroll.PayrollRun) payroll.PayrollRun {
	out := *run
	out.Items = append([]payroll.LineItem(nil), run.Items...)
	out.Diagnostics = append([]payroll.RunDiagnostic(nil), run.Diagnostics...)
	if run.ApprovedAt != nil {
		at := *run.ApprovedAt
		out.ApprovedAt = &at
	}
	return out
}
