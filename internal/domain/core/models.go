package core

import "time"

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

// EmployeeStatuses is the closed set of profile states. Employees are never
// deleted, only transitioned.
var EmployeeStatuses = []string{StatusActive, StatusInactive, StatusOnLeave, StatusTerminated}

type Employee struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Email              string     `json:"email"`
	Position           string     `json:"position"`
	Department         string     `json:"department"`
	Status             string     `json:"status"`
	HireDate           *time.Time `json:"hireDate,omitempty"`
	MonthlySalary      *float64   `json:"monthlySalary,omitempty"`
	HousingAllowance   float64    `json:"housingAllowance"`
	TransportAllowance float64    `json:"transportAllowance"`
	// AnnualLeaveDays overrides the annual-leave policy cap for this
	// employee when set.
	AnnualLeaveDays *int      `json:"annualLeaveDays,omitempty"`
	BankName        string    `json:"bankName,omitempty"`
	BankAccount     string    `json:"bankAccount,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func ValidStatus(status string) bool {
	for _, candidate := range EmployeeStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
