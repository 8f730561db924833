/*
export.go - Payroll register exports

PURPOSE:
  Renders an approved or draft payroll run as a downloadable register:
  CSV for payroll-bank uploads, XLSX for the accounts office. Both share
  the same column layout so the two files reconcile line for line.

SEE ALSO:
  - handlers.go: Route wiring and error mapping
  - payroll/run.go: The PayrollRun being exported
*/
package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/payroll"
)

// registerHeader is the shared column layout for both export formats.
var registerHeader = []string{
	"Employee ID", "Name", "Position",
	"Base Salary", "Allowances", "Gross",
	"OT Hours", "OT Pay", "Incentive",
	"Tax", "Late Deduction", "Loan Deduction", "PF Deduction",
	"Net", "Bank Payable", "Cash Payable",
	"Present", "Late", "Half Days", "Absent", "Leave",
}

func registerRow(item payroll.LineItem) []string {
	return []string{
		string(item.EmployeeID), item.EmployeeName, item.Position,
		item.BaseSalary.String(), item.Allowances.String(), item.Gross.String(),
		item.OvertimeHours.Round(2).String(), item.OvertimePay.Rounded().String(), item.Incentive.String(),
		item.Tax.Rounded().String(), item.LateDeduction.Rounded().String(),
		item.LoanDeduction.String(), item.PFDeduction.Rounded().String(),
		item.Net.Rounded().String(), item.BankPayable.Rounded().String(), item.CashPayable.Rounded().String(),
		strconv.Itoa(item.PresentDays), strconv.Itoa(item.LateDays), strconv.Itoa(item.HalfDays),
		strconv.Itoa(item.AbsentDays), strconv.Itoa(item.LeaveDays),
	}
}

// ExportRunCSV streams the run's register as CSV.
func (h *Handler) ExportRunCSV(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=payroll_%s.csv", run.Month))

	cw := csv.NewWriter(w)
	cw.Write(registerHeader)
	for _, item := range run.Items {
		cw.Write(registerRow(item))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("csv export failed", "run_id", run.ID, "error", err.Error())
	}
}

// ExportRunXLSX renders the run's register as a spreadsheet, with a bold
// header row and a totals line at the bottom.
func (h *Handler) ExportRunXLSX(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payroll " + run.Month.String()
	index, err := f.NewSheet(sheet)
	if err != nil {
		h.fail(w, err)
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})

	for col, name := range registerHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(registerHeader), 1)
	f.SetCellStyle(sheet, "A1", endHeader, headerStyle)

	for i, item := range run.Items {
		for col, value := range registerRow(item) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	totalsRow := len(run.Items) + 2
	labelCell, _ := excelize.CoordinatesToCellName(1, totalsRow)
	f.SetCellValue(sheet, labelCell, "Total")
	netCell, _ := excelize.CoordinatesToCellName(14, totalsRow)
	f.SetCellValue(sheet, netCell, run.TotalNet().Rounded().String())

	f.SetColWidth(sheet, "A", "C", 22)

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=payroll_%s.xlsx", run.Month))

	if err := f.Write(w); err != nil {
		h.logger.Error("xlsx export failed", "run_id", run.ID, "error", err.Error())
	}
}
