package payroll

import "time"

// TaxBracket taxes the portion of taxable pay in [Min, Max) at Rate.
// Max == nil marks the open-ended top bracket.
type TaxBracket struct {
	Min  float64  `json:"min"`
	Max  *float64 `json:"max"`
	Rate float64  `json:"rate"`
}

// Settings is the global payroll configuration singleton.
type Settings struct {
	WorkingDaysPerMonth float64      `json:"workingDaysPerMonth"`
	WorkingHoursPerDay  float64      `json:"workingHoursPerDay"`
	OvertimeMultiplier  float64      `json:"overtimeMultiplier"`
	Currency            string       `json:"currency"`
	PensionEnabled      bool         `json:"pensionEnabled"`
	PensionPercentage   float64      `json:"pensionPercentage"`
	PAYEEnabled         bool         `json:"payeEnabled"`
	TaxCreditMonthly    float64      `json:"taxCreditMonthly"`
	RoundingDecimals    int32        `json:"roundingDecimals"`
	TaxBrackets         []TaxBracket `json:"taxBrackets"`
}

// Item is one named manual addition or deduction line.
type Item struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	IsTaxable bool    `json:"isTaxable"`
}

// Input holds the manual overrides for one employee-month. A missing input
// means all-zero overrides. ManualOvertimeHours, when set, replaces the
// attendance-derived overtime entirely.
type Input struct {
	EmployeeID          string   `json:"employeeId"`
	Year                int      `json:"year"`
	Month               int      `json:"month"`
	ManualAdditions     []Item   `json:"manualAdditions"`
	ManualDeductions    []Item   `json:"manualDeductions"`
	ManualOvertimeHours *float64 `json:"manualOvertimeHours,omitempty"`
}

// Record is the computed payroll result for one employee-month. Draft
// records are recomputed on every view; stored records may be edited until
// locked; locking is terminal.
type Record struct {
	ID                    string     `json:"id,omitempty"`
	EmployeeID            string     `json:"employeeId"`
	Year                  int        `json:"year"`
	Month                 int        `json:"month"`
	BaseSalary            float64    `json:"baseSalary"`
	HousingAllowance      float64    `json:"housingAllowance"`
	TransportAllowance    float64    `json:"transportAllowance"`
	OvertimeHours         float64    `json:"overtimeHours"`
	OvertimePay           float64    `json:"overtimePay"`
	AbsentDays            int        `json:"absentDays"`
	AbsenceDeduction      float64    `json:"absenceDeduction"`
	TotalAdditions        float64    `json:"totalAdditions"`
	TotalManualDeductions float64    `json:"totalManualDeductions"`
	GrossEarnings         float64    `json:"grossEarnings"`
	TaxableEarnings       float64    `json:"taxableEarnings"`
	PensionAmount         float64    `json:"pensionAmount"`
	PAYEAmount            float64    `json:"payeAmount"`
	NetSalary             float64    `json:"netSalary"`
	Currency              string     `json:"currency"`
	IsLocked              bool       `json:"isLocked"`
	LockedAt              *time.Time `json:"lockedAt,omitempty"`
	GeneratedAt           time.Time  `json:"generatedAt"`
}

// LockOutcome reports one record's result within a bulk lock, so a single
// failure does not hide the rest.
type LockOutcome struct {
	RecordID   string `json:"recordId"`
	EmployeeID string `json:"employeeId"`
	Locked     bool   `json:"locked"`
	Error      string `json:"error,omitempty"`
}

// GenerateSummary reports a bulk generation run.
type GenerateSummary struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Locked    int `json:"lockedSkipped"`
}
