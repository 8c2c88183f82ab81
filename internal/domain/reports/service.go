package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

type Dashboard struct {
	Headcount     map[string]int `json:"headcount"`
	PendingLeave  int            `json:"pendingLeave"`
	OnLeaveToday  int            `json:"onLeaveToday"`
	PayrollGross  float64        `json:"payrollGross"`
	PayrollNet    float64        `json:"payrollNet"`
	PayrollLocked int            `json:"payrollLocked"`
	PayrollTotal  int            `json:"payrollTotal"`
	Attendance    map[string]int `json:"attendance"`
}

// Dashboard aggregates the landing-page counters for the given period.
func (s *Service) Dashboard(ctx context.Context, year, month int, today time.Time) (Dashboard, error) {
	var dash Dashboard
	var err error

	if dash.Headcount, err = s.Store.HeadcountByStatus(ctx); err != nil {
		return dash, err
	}
	if dash.PendingLeave, err = s.Store.PendingLeaveCount(ctx); err != nil {
		return dash, err
	}
	if dash.OnLeaveToday, err = s.Store.OnLeaveToday(ctx, today); err != nil {
		return dash, err
	}
	if dash.PayrollGross, dash.PayrollNet, dash.PayrollLocked, dash.PayrollTotal, err = s.Store.PayrollTotals(ctx, year, month); err != nil {
		return dash, err
	}
	if dash.Attendance, err = s.Store.AttendanceSummary(ctx, year, month); err != nil {
		return dash, err
	}
	return dash, nil
}

var registerHeaders = []string{
	"Employee ID", "First Name", "Last Name", "Department",
	"Gross", "Pension", "PAYE", "Other Deductions", "Net", "Currency", "Locked",
}

// PayrollRegisterCSV renders the month's payroll register as CSV.
func (s *Service) PayrollRegisterCSV(ctx context.Context, year, month int) ([]byte, error) {
	register, err := s.Store.PayrollRegister(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(registerHeaders); err != nil {
		return nil, err
	}
	for _, row := range register {
		record := []string{
			row.EmployeeID, row.FirstName, row.LastName, row.Department,
			formatAmount(row.Gross), formatAmount(row.Pension), formatAmount(row.PAYE),
			formatAmount(row.Deductions), formatAmount(row.Net), row.Currency,
			strconv.FormatBool(row.IsLocked),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// PayrollRegisterXLSX renders the same register as a spreadsheet.
func (s *Service) PayrollRegisterXLSX(ctx context.Context, year, month int) ([]byte, error) {
	register, err := s.Store.PayrollRegister(ctx, year, month)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := fmt.Sprintf("Payroll %04d-%02d", year, month)
	f.SetSheetName("Sheet1", sheet)

	for i, header := range registerHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range register {
		values := []any{
			row.EmployeeID, row.FirstName, row.LastName, row.Department,
			row.Gross, row.Pension, row.PAYE, row.Deductions, row.Net,
			row.Currency, row.IsLocked,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LeaveCalendarCSV renders the month's approved leave and public holidays
// as one flat CSV, a row per span.
func (s *Service) LeaveCalendarCSV(ctx context.Context, year, month int) ([]byte, error) {
	spans, err := s.Store.LeaveSpans(ctx, year, month)
	if err != nil {
		return nil, err
	}
	holidays, err := s.Store.HolidaysInMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Kind", "Start", "End", "Employee", "Detail", "Working Days"}); err != nil {
		return nil, err
	}
	for _, h := range holidays {
		date := h.Date.Format("2006-01-02")
		if err := w.Write([]string{"holiday", date, date, "", h.Name, ""}); err != nil {
			return nil, err
		}
	}
	for _, span := range spans {
		record := []string{
			"leave",
			span.StartDate.Format("2006-01-02"),
			span.EndDate.Format("2006-01-02"),
			span.FirstName + " " + span.LastName,
			span.Type,
			strconv.Itoa(span.Days),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Service) JobRuns(ctx context.Context, name string, limit, offset int) ([]JobRun, error) {
	return s.Store.ListJobRuns(ctx, name, limit, offset)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
