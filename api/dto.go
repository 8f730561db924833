/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  the shared validator before touching domain logic. Responses carry
  money as fixed two-decimal strings, never floats.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/calculator.go: LineItem, the source of PayslipDTO
*/
package api

import (
	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID               string   `json:"id"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Email            string   `json:"email,omitempty"`
	PositionID       string   `json:"position_id"`
	ShiftID          string   `json:"shift_id"`
	JoinDate         string   `json:"join_date"`
	IsActive         bool     `json:"is_active"`
	MedicalAllowance string   `json:"medical_allowance"`
	MobileAllowance  string   `json:"mobile_allowance"`
	FoodAllowance    string   `json:"food_allowance"`
	ProvidentFundPct string   `json:"provident_fund_pct"`
	Leave            LeaveDTO `json:"leave"`
}

type LeaveDTO struct {
	Casual      int `json:"casual"`
	Annual      int `json:"annual"`
	Sick        int `json:"sick"`
	HalfDays    int `json:"half_days"`
	ShortLeaves int `json:"short_leaves"`
}

type CreateEmployeeRequest struct {
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	Email            string  `json:"email" validate:"omitempty,email"`
	PositionID       string  `json:"position_id" validate:"required"`
	ShiftID          string  `json:"shift_id" validate:"required"`
	JoinDate         string  `json:"join_date" validate:"required,datetime=2006-01-02"`
	MedicalAllowance float64 `json:"medical_allowance" validate:"gte=0"`
	MobileAllowance  float64 `json:"mobile_allowance" validate:"gte=0"`
	FoodAllowance    float64 `json:"food_allowance" validate:"gte=0"`
	ProvidentFundPct float64 `json:"provident_fund_pct" validate:"gte=0,lte=100"`
}

func toEmployeeDTO(emp hcm.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               string(emp.ID),
		FirstName:        emp.FirstName,
		LastName:         emp.LastName,
		Email:            emp.Email,
		PositionID:       string(emp.PositionID),
		ShiftID:          emp.Shift.ID,
		JoinDate:         emp.JoinDate.String(),
		IsActive:         emp.IsActive,
		MedicalAllowance: emp.Allowances.Medical.String(),
		MobileAllowance:  emp.Allowances.Mobile.String(),
		FoodAllowance:    emp.Allowances.Food.String(),
		ProvidentFundPct: emp.ProvidentFundPct.String(),
		Leave: LeaveDTO{
			Casual:      emp.Leave.Casual,
			Annual:      emp.Leave.Annual,
			Sick:        emp.Leave.Sick,
			HalfDays:    emp.Leave.HalfDays,
			ShortLeaves: emp.Leave.ShortLeaves,
		},
	}
}

// =============================================================================
// POSITIONS
// =============================================================================

type PositionDTO struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	BaseSalary    string         `json:"base_salary"`
	SalaryCap     *string        `json:"salary_cap,omitempty"`
	Type          string         `json:"type"`
	Level         string         `json:"level,omitempty"`
	TaxPercentage string         `json:"tax_percentage"`
	OvertimeRate  string         `json:"overtime_rate"`
	Allowances    []AllowanceDTO `json:"custom_allowances,omitempty"`
}

type AllowanceDTO struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type CreatePositionRequest struct {
	ID            string                   `json:"id" validate:"required"`
	Title         string                   `json:"title" validate:"required"`
	BaseSalary    float64                  `json:"base_salary" validate:"gte=0"`
	SalaryCap     *float64                 `json:"salary_cap" validate:"omitempty,gte=0"`
	Type          string                   `json:"type" validate:"omitempty,oneof=Labor Management"`
	Level         string                   `json:"level"`
	TaxPercentage float64                  `json:"tax_percentage" validate:"gte=0,lte=100"`
	OvertimeRate  float64                  `json:"overtime_rate" validate:"gte=0"`
	Allowances    []CreateAllowanceRequest `json:"custom_allowances" validate:"dive"`
}

type CreateAllowanceRequest struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

func toPositionDTO(pos hcm.Position) PositionDTO {
	dto := PositionDTO{
		ID:            string(pos.ID),
		Title:         pos.Title,
		BaseSalary:    pos.BaseSalary.String(),
		Type:          string(pos.Type),
		Level:         string(pos.Level),
		TaxPercentage: pos.TaxPercentage.String(),
		OvertimeRate:  pos.OvertimeRate.String(),
	}
	if pos.SalaryCap != nil {
		s := pos.SalaryCap.String()
		dto.SalaryCap = &s
	}
	for _, a := range pos.CustomAllowances {
		dto.Allowances = append(dto.Allowances, AllowanceDTO{Name: a.Name, Amount: a.Amount.String()})
	}
	return dto
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// ClockRequest is one punch from a kiosk or terminal.
type ClockRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Type       string `json:"type" validate:"required,oneof=IN OUT"`
	Time       string `json:"time" validate:"required"`
	ShortLeave bool   `json:"short_leave"`
}

type AttendanceDTO struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	WorkedHours   string  `json:"worked_hours"`
	OvertimeHours string  `json:"overtime_hours"`
	ShortLeave    bool    `json:"short_leave"`
}

func toAttendanceDTO(rec hcm.AttendanceRecord) AttendanceDTO {
	dto := AttendanceDTO{
		ID:            rec.ID,
		EmployeeID:    string(rec.EmployeeID),
		Date:          rec.Date.String(),
		Status:        string(rec.Status),
		WorkedHours:   rec.WorkedHours.Round(2).String(),
		OvertimeHours: rec.OvertimeHours.Round(2).String(),
		ShortLeave:    rec.ShortLeave,
	}
	if rec.CheckIn != nil {
		s := rec.CheckIn.String()
		dto.CheckIn = &s
	}
	if rec.CheckOut != nil {
		s := rec.CheckOut.String()
		dto.CheckOut = &s
	}
	return dto
}

// =============================================================================
// LOANS
// =============================================================================

type LoanDTO struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee_id"`
	Principal        string `json:"principal"`
	MonthlyDeduction string `json:"monthly_deduction"`
	RemainingBalance string `json:"remaining_balance"`
	Reason           string `json:"reason,omitempty"`
	Status           string `json:"status"`
	RequestDate      string `json:"request_date"`
}

type CreateLoanRequest struct {
	EmployeeID       string  `json:"employee_id" validate:"required"`
	Principal        float64 `json:"principal" validate:"gt=0"`
	MonthlyDeduction float64 `json:"monthly_deduction" validate:"gt=0"`
	Reason           string  `json:"reason"`
}

func toLoanDTO(loan hcm.LoanRequest) LoanDTO {
	return LoanDTO{
		ID:               string(loan.ID),
		EmployeeID:       string(loan.EmployeeID),
		Principal:        loan.Principal.String(),
		MonthlyDeduction: loan.MonthlyDeduction.String(),
		RemainingBalance: loan.RemainingBalance.String(),
		Reason:           loan.Reason,
		Status:           string(loan.Status),
		RequestDate:      loan.RequestDate.String(),
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type ComputeRunRequest struct {
	Month string `json:"month" validate:"required,datetime=2006-01"`

	// Incentives are optional per-employee production incentives.
	Incentives map[string]float64 `json:"incentives" validate:"omitempty,dive,gte=0"`
}

type ApproveRunRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

type RunDTO struct {
	ID          string          `json:"id"`
	Month       string          `json:"month"`
	Status      string          `json:"status"`
	WorkingDays int             `json:"working_days"`
	TotalNet    string          `json:"total_net"`
	Payslips    []PayslipDTO    `json:"payslips"`
	Diagnostics []DiagnosticDTO `json:"diagnostics,omitempty"`
	CreatedAt   string          `json:"created_at"`
	ApprovedAt  *string         `json:"approved_at,omitempty"`
	ApprovedBy  string          `json:"approved_by,omitempty"`
}

type RunSummaryDTO struct {
	ID         string  `json:"id"`
	Month      string  `json:"month"`
	Status     string  `json:"status"`
	Employees  int     `json:"employees"`
	TotalNet   string  `json:"total_net"`
	CreatedAt  string  `json:"created_at"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	ApprovedBy string  `json:"approved_by,omitempty"`
}

type PayslipDTO struct {
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	Position      string `json:"position"`
	BaseSalary    string `json:"base_salary"`
	Allowances    string `json:"allowances"`
	Gross         string `json:"gross"`
	OvertimeHours string `json:"overtime_hours"`
	OvertimePay   string `json:"overtime_pay"`
	Incentive     string `json:"incentive"`
	Tax           string `json:"tax"`
	LateDeduction string `json:"late_deduction"`
	LoanDeduction string `json:"loan_deduction"`
	PFDeduction   string `json:"pf_deduction"`
	Net           string `json:"net"`
	BankPayable   string `json:"net_bank_payable"`
	CashPayable   string `json:"net_cash_payable"`
	PresentDays   int    `json:"present_days"`
	LateDays      int    `json:"late_days"`
	HalfDays      int    `json:"half_days"`
	AbsentDays    int    `json:"absent_days"`
	LeaveDays     int    `json:"leave_days"`
}

type DiagnosticDTO struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func toPayslipDTO(item payroll.LineItem) PayslipDTO {
	return PayslipDTO{
		EmployeeID:    string(item.EmployeeID),
		EmployeeName:  item.EmployeeName,
		Position:      item.Position,
		BaseSalary:    item.BaseSalary.String(),
		Allowances:    item.Allowances.String(),
		Gross:         item.Gross.String(),
		OvertimeHours: item.OvertimeHours.Round(2).String(),
		OvertimePay:   item.OvertimePay.Rounded().String(),
		Incentive:     item.Incentive.String(),
		Tax:           item.Tax.Rounded().String(),
		LateDeduction: item.LateDeduction.Rounded().String(),
		LoanDeduction: item.LoanDeduction.String(),
		PFDeduction:   item.PFDeduction.Rounded().String(),
		Net:           item.Net.Rounded().String(),
		BankPayable:   item.BankPayable.Rounded().String(),
		CashPayable:   item.CashPayable.Rounded().String(),
		PresentDays:   item.PresentDays,
		LateDays:      item.LateDays,
		HalfDays:      item.HalfDays,
		AbsentDays:    item.AbsentDays,
		LeaveDays:     item.LeaveDays,
	}
}

func toRunDTO(run *payroll.PayrollRun) RunDTO {
	dto := RunDTO{
		ID:          run.ID,
		Month:       run.Month.String(),
		Status:      string(run.Status),
		WorkingDays: run.WorkingDays,
		TotalNet:    run.TotalNet().Rounded().String(),
		CreatedAt:   run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ApprovedBy:  run.ApprovedBy,
	}
	for _, item := range run.Items {
		dto.Payslips = append(dto.Payslips, toPayslipDTO(item))
	}
	for _, d := range run.Diagnostics {
		dto.Diagnostics = append(dto.Diagnostics, DiagnosticDTO{
			EmployeeID: string(d.EmployeeID),
			Code:       d.Code,
			Message:    d.Message,
		})
	}
	if run.ApprovedAt != nil {
		s := run.ApprovedAt.Format("2006-01-02T15:04:05Z07:00")
		dto.ApprovedAt = &s
	}
	return dto
}

func toRunSummaryDTO(run *payroll.PayrollRun) RunSummaryDTO {
	dto := RunSummaryDTO{
		ID:        run.ID,
		Month:     run.Month.String(),
		Status:    string(run.Status),
		Employees: len(run.Items),
		TotalNet:  run.TotalNet().Rounded().String(),
		CreatedAt: run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ApprovedBy: run.ApprovedBy,
	}
	if run.ApprovedAt != nil {
		s := run.ApprovedAt.Format("2006-01-02T15:04:05Z07:00")
		dto.ApprovedAt = &s
	}
	return dto
}
