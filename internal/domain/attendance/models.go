package attendance

import "time"

// Status codes are single letters, one record per employee per day.
const (
	StatusPresent = "P"
	StatusAbsent  = "A"
	StatusLeave   = "L"
	StatusSick    = "S"
	StatusHoliday = "H"
	StatusWeekend = "W"
	StatusRemote  = "R"
	StatusOff     = "O"
)

var Statuses = []string{
	StatusPresent,
	StatusAbsent,
	StatusLeave,
	StatusSick,
	StatusHoliday,
	StatusWeekend,
	StatusRemote,
	StatusOff,
}

type Record struct {
	ID                string    `json:"id"`
	EmployeeID        string    `json:"employeeId"`
	Date              time.Time `json:"date"`
	Status            string    `json:"status"`
	CheckInTime       *string   `json:"checkInTime,omitempty"`
	CheckOutTime      *string   `json:"checkOutTime,omitempty"`
	OvertimeHours     *float64  `json:"overtimeHours,omitempty"`
	LunchBreakMinutes *int      `json:"lunchBreakMinutes,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func ValidStatus(status string) bool {
	for _, candidate := range Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// CountsForOvertime reports whether recorded overtime hours on this record
// feed the payroll overtime aggregation. Only worked days qualify.
func (r Record) CountsForOvertime() bool {
	return r.Status == StatusPresent || r.Status == StatusRemote
}
