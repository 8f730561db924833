/*
handlers.go - HTTP handlers for the payroll engine

PURPOSE:
  Implements the REST API over the domain packages: employee and position
  records, the clock endpoint that drives attendance classification, the
  loan workflow, and the payroll run lifecycle from computation to
  approval.

ERROR MAPPING:
  Domain errors translate to HTTP status codes in one place (statusFor):
    not found            -> 404
    duplicate/immutable  -> 409
    other client errors  -> 400
    configuration errors -> 500 (a malformed tax table is an operator
                            problem, not the caller's)

CLOCK SEMANTICS:
  The first IN punch of a day creates the attendance record; every later
  punch re-resolves the day (first check-in and last check-out are
  authoritative) and re-classifies it in place. A re-punch never creates
  a second record for the same day.

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Request/response shapes and validation tags
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler owns the API surface. Shifts and bracketed tax overrides come
// from the compensation configuration loaded at startup; everything else
// lives in the stores.
type Handler struct {
	store  hcm.Store
	runs   payroll.RunStore
	calc   *payroll.Calculator
	shifts map[string]hcm.Shift
	taxes  map[hcm.PositionID]payroll.TaxPolicy

	validate *validator.Validate
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewHandler(
	store hcm.Store,
	runs payroll.RunStore,
	shifts map[string]hcm.Shift,
	taxes map[hcm.PositionID]payroll.TaxPolicy,
	logger *slog.Logger,
) *Handler {
	if shifts == nil {
		shifts = make(map[string]hcm.Shift)
	}
	if taxes == nil {
		taxes = make(map[hcm.PositionID]payroll.TaxPolicy)
	}
	return &Handler{
		store:    store,
		runs:     runs,
		calc:     payroll.NewCalculator(),
		shifts:   shifts,
		taxes:    taxes,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case hcm.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, hcm.ErrDuplicateAttendance),
		errors.Is(err, hcm.ErrRunImmutable),
		errors.Is(err, hcm.ErrIllegalLoanTransition):
		return http.StatusConflict
	case hcm.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decode parses and validates a JSON request body. On failure it writes
// the 400 itself and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(emps))
	for _, emp := range emps {
		dtos = append(dtos, toEmployeeDTO(emp))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.store.GetEmployee(r.Context(), hcm.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	shift, ok := h.shifts[req.ShiftID]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown shift "+req.ShiftID)
		return
	}
	// The position must exist before anyone is hired into it.
	if _, err := h.store.GetPosition(r.Context(), hcm.PositionID(req.PositionID)); err != nil {
		h.fail(w, err)
		return
	}
	join, err := hcm.ParseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	emp := hcm.Employee{
		ID:         hcm.EmployeeID(uuid.NewString()),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		PositionID: hcm.PositionID(req.PositionID),
		Shift:      shift,
		JoinDate:   join,
		IsActive:   true,
		Allowances: hcm.StandardAllowances{
			Medical: hcm.NewMoney(req.MedicalAllowance),
			Mobile:  hcm.NewMoney(req.MobileAllowance),
			Food:    hcm.NewMoney(req.FoodAllowance),
		},
		ProvidentFundPct: decimal.NewFromFloat(req.ProvidentFundPct),
	}
	if err := h.store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

func (h *Handler) ListEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	id := hcm.EmployeeID(chi.URLParam(r, "id"))
	if _, err := h.store.GetEmployee(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	month, err := hcm.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month query parameter required as YYYY-MM")
		return
	}
	recs, err := h.store.ListAttendanceByMonth(r.Context(), id, month)
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]AttendanceDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toAttendanceDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListEmployeeLoans(w http.ResponseWriter, r *http.Request) {
	id := hcm.EmployeeID(chi.URLParam(r, "id"))
	if _, err := h.store.GetEmployee(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	loans, err := h.store.ListLoansByEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]LoanDTO, 0, len(loans))
	for _, loan := range loans {
		dtos = append(dtos, toLoanDTO(loan))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// POSITIONS
// =============================================================================

func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.store.ListPositions(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]PositionDTO, 0, len(positions))
	for _, pos := range positions {
		dtos = append(dtos, toPositionDTO(pos))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req CreatePositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos := hcm.Position{
		ID:            hcm.PositionID(req.ID),
		Title:         req.Title,
		BaseSalary:    hcm.NewMoney(req.BaseSalary),
		Type:          hcm.EmployeeType(req.Type),
		Level:         hcm.ManagementLevel(req.Level),
		TaxPercentage: decimal.NewFromFloat(req.TaxPercentage),
		OvertimeRate:  decimal.NewFromFloat(req.OvertimeRate),
	}
	if req.Type == "" {
		pos.Type = hcm.TypeLabor
	}
	if req.SalaryCap != nil {
		capAmount := hcm.NewMoney(*req.SalaryCap)
		pos.SalaryCap = &capAmount
	}
	for _, a := range req.Allowances {
		pos.CustomAllowances = append(pos.CustomAllowances, hcm.CustomAllowance{
			Name:   a.Name,
			Amount: hcm.NewMoney(a.Amount),
		})
	}

	// Reject a flat rate the tax engine would refuse at run time.
	if err := payroll.Flat(pos.TaxPercentage).Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SavePosition(r.Context(), pos); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPositionDTO(pos))
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (h *Handler) ListAttendanceByDate(w http.ResponseWriter, r *http.Request) {
	date, err := hcm.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date query parameter required as YYYY-MM-DD")
		return
	}
	recs, err := h.store.ListAttendanceByDate(r.Context(), date)
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]AttendanceDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toAttendanceDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Clock processes one punch. The day's record is created on the first
// punch and re-classified on every later one; the first check-in and the
// last check-out always win.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.store.GetEmployee(r.Context(), hcm.EmployeeID(req.EmployeeID))
	if err != nil {
		h.fail(w, err)
		return
	}
	date, err := hcm.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, err := hcm.ParseClockTime(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.store.GetAttendanceByDay(r.Context(), emp.ID, date)
	isNew := errors.Is(err, hcm.ErrAttendanceNotFound)
	if err != nil && !isNew {
		h.fail(w, err)
		return
	}

	var punches []attendance.Punch
	shortLeave := req.ShortLeave
	if !isNew {
		if existing.CheckIn != nil {
			punches = append(punches, attendance.Punch{Type: attendance.PunchIn, At: *existing.CheckIn})
		}
		if existing.CheckOut != nil {
			punches = append(punches, attendance.Punch{Type: attendance.PunchOut, At: *existing.CheckOut})
		}
		shortLeave = shortLeave || existing.ShortLeave
	}
	punches = append(punches, attendance.Punch{Type: attendance.PunchType(req.Type), At: at})

	// A short leave spends one unit of the employee's balance, once per
	// day. An exhausted balance rejects the punch up front; the spend
	// itself is persisted only after the record write succeeds, so a
	// rejected punch leaves the balance untouched.
	spendShortLeave := req.ShortLeave && (isNew || !existing.ShortLeave)
	if spendShortLeave && emp.Leave.ShortLeaves <= 0 {
		writeError(w, http.StatusBadRequest, "no short leaves remaining")
		return
	}

	day := attendance.ResolveDay(date, punches, shortLeave)
	res, err := attendance.Classify(emp.Shift, day)
	if err != nil {
		h.fail(w, err)
		return
	}

	rec := hcm.AttendanceRecord{
		ID:            existing.ID,
		EmployeeID:    emp.ID,
		Date:          date,
		Status:        res.Status,
		CheckIn:       day.CheckIn,
		CheckOut:      day.CheckOut,
		WorkedHours:   res.WorkedHours,
		OvertimeHours: res.OvertimeHours,
		ShortLeave:    shortLeave,
	}

	if isNew {
		rec.ID = uuid.NewString()
		err = h.store.CreateAttendance(r.Context(), rec)
	} else {
		err = h.store.UpdateAttendance(r.Context(), rec)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	if spendShortLeave {
		emp.Leave.ShortLeaves--
		if err := h.store.SaveEmployee(r.Context(), emp); err != nil {
			h.fail(w, err)
			return
		}
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, toAttendanceDTO(rec))
}

// =============================================================================
// LOANS
// =============================================================================

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.store.ListLoans(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]LoanDTO, 0, len(loans))
	for _, loan := range loans {
		dtos = append(dtos, toLoanDTO(loan))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.store.GetEmployee(r.Context(), hcm.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, err)
		return
	}

	principal := hcm.NewMoney(req.Principal)
	loan := hcm.LoanRequest{
		ID:               hcm.LoanID(uuid.NewString()),
		EmployeeID:       hcm.EmployeeID(req.EmployeeID),
		Principal:        principal,
		MonthlyDeduction: hcm.NewMoney(req.MonthlyDeduction),
		RemainingBalance: principal,
		Reason:           req.Reason,
		Status:           hcm.LoanPending,
		RequestDate:      hcm.TimePoint{Time: h.now()},
	}
	if err := h.store.SaveLoan(r.Context(), loan); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(loan))
}

func (h *Handler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	h.transitionLoan(w, r, hcm.LoanApproved)
}

func (h *Handler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	h.transitionLoan(w, r, hcm.LoanRejected)
}

func (h *Handler) transitionLoan(w http.ResponseWriter, r *http.Request, to hcm.LoanStatus) {
	loan, err := h.store.GetLoan(r.Context(), hcm.LoanID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, err)
		return
	}
	if !loan.CanTransition(to) {
		h.fail(w, &loanTransitionError{loan: loan, to: to})
		return
	}
	loan.Status = to
	if err := h.store.SaveLoan(r.Context(), loan); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(loan))
}

type loanTransitionError struct {
	loan hcm.LoanRequest
	to   hcm.LoanStatus
}

func (e *loanTransitionError) Error() string {
	return "loan " + string(e.loan.ID) + " cannot move from " +
		string(e.loan.Status) + " to " + string(e.to)
}

func (e *loanTransitionError) Unwrap() error { return hcm.ErrIllegalLoanTransition }

// =============================================================================
// HOLIDAYS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.store.ListHolidays(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:        hol.ID,
			Date:      hol.Date.String(),
			Name:      hol.Name,
			Recurring: hol.Recurring,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := hcm.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hol := hcm.Holiday{
		ID:        uuid.NewString(),
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if err := h.store.SaveHoliday(r.Context(), hol); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{
		ID: hol.ID, Date: hol.Date.String(), Name: hol.Name, Recurring: hol.Recurring,
	})
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRuns(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	dtos := make([]RunSummaryDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunSummaryDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// ComputeRun computes a month and persists it as a draft. Recomputing a
// month overwrites the existing draft; an approved month is immutable.
func (h *Handler) ComputeRun(w http.ResponseWriter, r *http.Request) {
	var req ComputeRunRequest
	if !h.decode(w, r, &req) {
		return
	}
	month, err := hcm.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.NewString()
	if prior, err := h.runs.GetRunByMonth(r.Context(), month); err == nil {
		if prior.Status != payroll.RunDraft {
			h.fail(w, &runImmutableError{id: prior.ID, month: month})
			return
		}
		// Recompute in place so the month stays unique.
		runID = prior.ID
	} else if !errors.Is(err, hcm.ErrRunNotFound) {
		h.fail(w, err)
		return
	}

	input, err := h.assembleRunInput(r, month, req.Incentives)
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.calc.Run(*input)
	if err != nil {
		h.fail(w, err)
		return
	}

	run := payroll.NewRun(runID, result, h.now())
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Info("payroll run computed",
		slog.String("run_id", run.ID),
		slog.String("month", run.Month.String()),
		slog.Int("employees", len(run.Items)),
		slog.Int("diagnostics", len(run.Diagnostics)))
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

type runImmutableError struct {
	id    string
	month hcm.Month
}

func (e *runImmutableError) Error() string {
	return "payroll run " + e.id + " for " + e.month.String() + " is already approved"
}

func (e *runImmutableError) Unwrap() error { return hcm.ErrRunImmutable }

// assembleRunInput snapshots everything a calculator run reads.
func (h *Handler) assembleRunInput(r *http.Request, month hcm.Month, incentives map[string]float64) (*payroll.RunInput, error) {
	ctx := r.Context()

	employees, err := h.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	positionList, err := h.store.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := h.store.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	positions := make(map[hcm.PositionID]hcm.Position, len(positionList))
	for _, pos := range positionList {
		positions[pos.ID] = pos
	}

	att := make(map[hcm.EmployeeID][]hcm.AttendanceRecord, len(employees))
	loans := make(map[hcm.EmployeeID][]hcm.LoanRequest, len(employees))
	for _, emp := range employees {
		if !emp.IsActive {
			continue
		}
		recs, err := h.store.ListAttendanceByMonth(ctx, emp.ID, month)
		if err != nil {
			return nil, err
		}
		att[emp.ID] = recs
		empLoans, err := h.store.ListLoansByEmployee(ctx, emp.ID)
		if err != nil {
			return nil, err
		}
		loans[emp.ID] = empLoans
	}

	inc := make(map[hcm.EmployeeID]hcm.Money, len(incentives))
	for id, amount := range incentives {
		inc[hcm.EmployeeID(id)] = hcm.NewMoney(amount)
	}

	return &payroll.RunInput{
		Month:        month,
		Employees:    employees,
		Positions:    positions,
		Attendance:   att,
		Loans:        loans,
		Incentives:   inc,
		TaxOverrides: h.taxes,
		Calendar:     &hcm.ListHolidayCalendar{Holidays: holidays},
	}, nil
}

// ApproveRun flips a draft to Approved and posts the loan installments
// the run deducted. Approval happens at most once per run.
func (h *Handler) ApproveRun(w http.ResponseWriter, r *http.Request) {
	var req ApproveRunRequest
	if !h.decode(w, r, &req) {
		return
	}

	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := run.Approve(req.ApprovedBy, h.now()); err != nil {
		h.fail(w, err)
		return
	}

	// The approved status is persisted before any balance moves: once the
	// run is Approved a re-approval is rejected, so the postings below can
	// never be applied twice. A posting failure surfaces as a 500 for
	// repair instead of leaving debits behind a still-approvable draft.
	if err := h.runs.SaveRun(r.Context(), run); err != nil {
		h.fail(w, err)
		return
	}

	for loanID, amount := range run.LoanPostings() {
		loan, err := h.store.GetLoan(r.Context(), loanID)
		if err != nil {
			h.fail(w, err)
			return
		}
		if err := h.store.SaveLoan(r.Context(), loan.ApplyInstallment(amount)); err != nil {
			h.fail(w, err)
			return
		}
	}

	h.logger.Info("payroll run approved",
		slog.String("run_id", run.ID),
		slog.String("month", run.Month.String()),
		slog.String("approved_by", run.ApprovedBy))
	writeJSON(w, http.StatusOK, toRunDTO(run))
}
