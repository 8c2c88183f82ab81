package payroll

import (
	"math"
	"testing"
	"time"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/core"
)

func floatPtr(v float64) *float64 { return &v }

func testSettings() Settings {
	return Settings{
		WorkingDaysPerMonth: 21.67,
		WorkingHoursPerDay:  8,
		OvertimeMultiplier:  1.5,
		Currency:            "USD",
		RoundingDecimals:    2,
	}
}

func testEmployee() *core.Employee {
	return &core.Employee{
		ID:            "emp-1",
		FirstName:     "Kofi",
		LastName:      "Mensah",
		Status:        core.StatusActive,
		MonthlySalary: floatPtr(6000),
	}
}

func attendanceDay(status string, overtime *float64) attendance.Record {
	return attendance.Record{
		EmployeeID:    "emp-1",
		Date:          time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:        status,
		OvertimeHours: overtime,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestCalculateNotPayable(t *testing.T) {
	now := time.Now()

	if got := Calculate(nil, testSettings(), nil, nil, now); got != nil {
		t.Fatal("expected nil for nil employee")
	}

	noSalary := testEmployee()
	noSalary.MonthlySalary = nil
	if got := Calculate(noSalary, testSettings(), nil, nil, now); got != nil {
		t.Fatal("expected nil for employee without salary")
	}

	terminated := testEmployee()
	terminated.Status = core.StatusTerminated
	if got := Calculate(terminated, testSettings(), nil, nil, now); got != nil {
		t.Fatal("expected nil for terminated employee")
	}
}

func TestCalculateAbsenceDeduction(t *testing.T) {
	records := []attendance.Record{attendanceDay(attendance.StatusAbsent, nil)}

	rec := Calculate(testEmployee(), testSettings(), records, nil, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.AbsentDays != 1 {
		t.Fatalf("expected 1 absent day, got %d", rec.AbsentDays)
	}
	// 6000 / 21.67 = 276.88 daily rate.
	if !approxEqual(rec.AbsenceDeduction, 276.88) {
		t.Fatalf("expected absence deduction ~276.88, got %v", rec.AbsenceDeduction)
	}
	if !approxEqual(rec.GrossEarnings, 6000-276.88) {
		t.Fatalf("expected gross ~5723.12, got %v", rec.GrossEarnings)
	}
	// No pension, no PAYE, no manual deductions: net equals gross.
	if rec.NetSalary != rec.GrossEarnings {
		t.Fatalf("expected net == gross, got net %v gross %v", rec.NetSalary, rec.GrossEarnings)
	}
}

func TestCalculateMissingDaysHaveNoEffect(t *testing.T) {
	// A month with no attendance rows at all deducts nothing.
	rec := Calculate(testEmployee(), testSettings(), nil, nil, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.AbsentDays != 0 || rec.AbsenceDeduction != 0 {
		t.Fatalf("expected no absence impact, got days %d deduction %v", rec.AbsentDays, rec.AbsenceDeduction)
	}
	if !approxEqual(rec.GrossEarnings, 6000) {
		t.Fatalf("expected gross 6000, got %v", rec.GrossEarnings)
	}
}

func TestCalculateOvertimeFromAttendance(t *testing.T) {
	records := []attendance.Record{
		attendanceDay(attendance.StatusPresent, floatPtr(2)),
		attendanceDay(attendance.StatusRemote, floatPtr(1)),
		// Overtime on a sick day never counts.
		attendanceDay(attendance.StatusSick, floatPtr(4)),
	}

	rec := Calculate(testEmployee(), testSettings(), records, nil, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !approxEqual(rec.OvertimeHours, 3) {
		t.Fatalf("expected 3 overtime hours, got %v", rec.OvertimeHours)
	}
	// hourly = 6000 / 21.67 / 8 = 34.61; pay = 3 * 34.61 * 1.5 = 155.75
	if !approxEqual(rec.OvertimePay, 155.75) {
		t.Fatalf("expected overtime pay ~155.75, got %v", rec.OvertimePay)
	}
}

func TestCalculateManualOvertimeReplaces(t *testing.T) {
	records := []attendance.Record{attendanceDay(attendance.StatusPresent, floatPtr(10))}
	input := &Input{ManualOvertimeHours: floatPtr(2)}

	rec := Calculate(testEmployee(), testSettings(), records, input, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !approxEqual(rec.OvertimeHours, 2) {
		t.Fatalf("manual overtime must replace the attendance figure, got %v", rec.OvertimeHours)
	}
}

func TestCalculateManualItemsAndNonTaxableAdditions(t *testing.T) {
	settings := testSettings()
	settings.PAYEEnabled = true
	settings.TaxBrackets = []TaxBracket{
		{Min: 0, Max: floatPtr(5000), Rate: 0},
		{Min: 5000, Max: nil, Rate: 0.10},
	}

	input := &Input{
		ManualAdditions: []Item{
			{Name: "bonus", Amount: 500, IsTaxable: true},
			{Name: "reimbursement", Amount: 200, IsTaxable: false},
		},
		ManualDeductions: []Item{{Name: "loan", Amount: 100}},
	}

	rec := Calculate(testEmployee(), settings, nil, input, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !approxEqual(rec.TotalAdditions, 700) {
		t.Fatalf("expected additions 700, got %v", rec.TotalAdditions)
	}
	if !approxEqual(rec.TotalManualDeductions, 100) {
		t.Fatalf("expected deductions 100, got %v", rec.TotalManualDeductions)
	}
	if !approxEqual(rec.GrossEarnings, 6700) {
		t.Fatalf("expected gross 6700, got %v", rec.GrossEarnings)
	}
	// Taxable excludes the non-taxable reimbursement: 6500.
	if !approxEqual(rec.TaxableEarnings, 6500) {
		t.Fatalf("expected taxable 6500, got %v", rec.TaxableEarnings)
	}
	// PAYE: 10% of (6500 - 5000) = 150.
	if !approxEqual(rec.PAYEAmount, 150) {
		t.Fatalf("expected PAYE 150, got %v", rec.PAYEAmount)
	}
	// Net: 6700 - 150 - 100 = 6450.
	if !approxEqual(rec.NetSalary, 6450) {
		t.Fatalf("expected net 6450, got %v", rec.NetSalary)
	}
}

func TestCalculatePensionReducesTaxableBase(t *testing.T) {
	settings := testSettings()
	settings.PensionEnabled = true
	settings.PensionPercentage = 5
	settings.PAYEEnabled = true
	settings.TaxBrackets = []TaxBracket{{Min: 0, Max: nil, Rate: 0.10}}

	rec := Calculate(testEmployee(), settings, nil, nil, time.Now())
	if rec == nil {
		t.Fatal("expected a record")
	}
	if !approxEqual(rec.PensionAmount, 300) {
		t.Fatalf("expected pension 300, got %v", rec.PensionAmount)
	}
	if !approxEqual(rec.TaxableEarnings, 5700) {
		t.Fatalf("expected taxable 5700 after pension, got %v", rec.TaxableEarnings)
	}
	if !approxEqual(rec.PAYEAmount, 570) {
		t.Fatalf("expected PAYE 570, got %v", rec.PAYEAmount)
	}
	if !approxEqual(rec.NetSalary, 6000-300-570) {
		t.Fatalf("expected net 5130, got %v", rec.NetSalary)
	}
}

func TestCalculateIdempotent(t *testing.T) {
	records := []attendance.Record{
		attendanceDay(attendance.StatusAbsent, nil),
		attendanceDay(attendance.StatusPresent, floatPtr(2)),
	}
	input := &Input{
		ManualAdditions:  []Item{{Name: "bonus", Amount: 250, IsTaxable: true}},
		ManualDeductions: []Item{{Name: "loan", Amount: 50}},
	}
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	first := Calculate(testEmployee(), testSettings(), records, input, now)
	second := Calculate(testEmployee(), testSettings(), records, input, now)
	if first == nil || second == nil {
		t.Fatal("expected records")
	}
	if *first != *second {
		t.Fatalf("expected identical records, got %+v vs %+v", first, second)
	}
}
