package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/core"
)

// Calculate derives the payroll record for one employee-month from a
// snapshot of employee data, settings, attendance and manual input. It is a
// pure function: same inputs, same record. Returns nil when the employee is
// not payable (no salary configured, or not active).
//
// Money math runs through decimal and is rounded once, at the end, to
// settings.RoundingDecimals.
func Calculate(emp *core.Employee, settings Settings, records []attendance.Record, input *Input, now time.Time) *Record {
	if emp == nil || emp.MonthlySalary == nil || emp.Status != core.StatusActive {
		return nil
	}
	if settings.WorkingDaysPerMonth <= 0 || settings.WorkingHoursPerDay <= 0 {
		return nil
	}

	salary := decimal.NewFromFloat(*emp.MonthlySalary)
	dailyRate := salary.Div(decimal.NewFromFloat(settings.WorkingDaysPerMonth))
	hourlyRate := dailyRate.Div(decimal.NewFromFloat(settings.WorkingHoursPerDay))

	absentDays := 0
	attendanceOvertime := decimal.Zero
	for _, rec := range records {
		if rec.EmployeeID != emp.ID {
			continue
		}
		switch {
		case rec.Status == attendance.StatusAbsent:
			absentDays++
		case rec.CountsForOvertime() && rec.OvertimeHours != nil:
			attendanceOvertime = attendanceOvertime.Add(decimal.NewFromFloat(*rec.OvertimeHours))
		}
	}

	// A manual overtime figure replaces the attendance-derived one so HR can
	// correct mis-tracked hours. It never adds on top.
	overtimeHours := attendanceOvertime
	if input != nil && input.ManualOvertimeHours != nil {
		overtimeHours = decimal.NewFromFloat(*input.ManualOvertimeHours)
	}
	overtimePay := overtimeHours.Mul(hourlyRate).Mul(decimal.NewFromFloat(settings.OvertimeMultiplier))

	absenceDeduction := dailyRate.Mul(decimal.NewFromInt(int64(absentDays)))

	totalAdditions := decimal.Zero
	nonTaxableAdditions := decimal.Zero
	totalManualDeductions := decimal.Zero
	if input != nil {
		for _, item := range input.ManualAdditions {
			amount := decimal.NewFromFloat(item.Amount)
			totalAdditions = totalAdditions.Add(amount)
			if !item.IsTaxable {
				nonTaxableAdditions = nonTaxableAdditions.Add(amount)
			}
		}
		for _, item := range input.ManualDeductions {
			totalManualDeductions = totalManualDeductions.Add(decimal.NewFromFloat(item.Amount))
		}
	}

	housing := decimal.NewFromFloat(emp.HousingAllowance)
	transport := decimal.NewFromFloat(emp.TransportAllowance)
	gross := salary.Add(housing).Add(transport).Add(overtimePay).Add(totalAdditions).Sub(absenceDeduction)

	// Pension comes off the pre-pension taxable base and reduces the amount
	// the PAYE brackets see.
	taxableBase := gross.Sub(nonTaxableAdditions)
	pension := decimal.Zero
	if settings.PensionEnabled {
		pension = taxableBase.Mul(decimal.NewFromFloat(settings.PensionPercentage)).Div(decimal.NewFromInt(100))
	}
	taxable := taxableBase.Sub(pension)

	paye := decimal.Zero
	if settings.PAYEEnabled {
		paye = progressiveTax(taxable, settings.TaxBrackets, decimal.NewFromFloat(settings.TaxCreditMonthly))
	}

	net := gross.Sub(pension).Sub(paye).Sub(totalManualDeductions)

	places := settings.RoundingDecimals
	round := func(d decimal.Decimal) float64 {
		f, _ := d.Round(places).Float64()
		return f
	}

	return &Record{
		EmployeeID:            emp.ID,
		BaseSalary:            round(salary),
		HousingAllowance:      round(housing),
		TransportAllowance:    round(transport),
		OvertimeHours:         mustFloat(overtimeHours),
		OvertimePay:           round(overtimePay),
		AbsentDays:            absentDays,
		AbsenceDeduction:      round(absenceDeduction),
		TotalAdditions:        round(totalAdditions),
		TotalManualDeductions: round(totalManualDeductions),
		GrossEarnings:         round(gross),
		TaxableEarnings:       round(taxable),
		PensionAmount:         round(pension),
		PAYEAmount:            round(paye),
		NetSalary:             round(net),
		Currency:              settings.Currency,
		IsLocked:              false,
		GeneratedAt:           now,
	}
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
