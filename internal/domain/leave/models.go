package leave

import "time"

// The closed set of leave categories. Every type has exactly one policy row.
const (
	TypeAnnual        = "annual"
	TypeSick          = "sick"
	TypeMaternity     = "maternity"
	TypePaternity     = "paternity"
	TypeStudy         = "study"
	TypeCompassionate = "compassionate"
	TypeOther         = "other"
)

var Types = []string{
	TypeAnnual,
	TypeSick,
	TypeMaternity,
	TypePaternity,
	TypeStudy,
	TypeCompassionate,
	TypeOther,
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

func ValidType(typ string) bool {
	for _, candidate := range Types {
		if candidate == typ {
			return true
		}
	}
	return false
}

type Policy struct {
	Type              string `json:"type"`
	MaxDaysPerYear    int    `json:"maxDaysPerYear"`
	IsStatutory       bool   `json:"isStatutory"`
	DeductsFromAnnual bool   `json:"deductsFromAnnual"`
	Description       string `json:"description"`
}

// PolicySet maps each leave type to its policy.
type PolicySet map[string]Policy

// DefaultPolicies is the out-of-the-box policy table. HR can change the
// caps later; the seed only establishes one row per type.
var DefaultPolicies = []Policy{
	{Type: TypeAnnual, MaxDaysPerYear: 21, DeductsFromAnnual: true, Description: "Paid annual leave"},
	{Type: TypeSick, MaxDaysPerYear: 10, IsStatutory: true, Description: "Paid sick leave"},
	{Type: TypeMaternity, MaxDaysPerYear: 90, IsStatutory: true, Description: "Maternity leave"},
	{Type: TypePaternity, MaxDaysPerYear: 10, IsStatutory: true, Description: "Paternity leave"},
	{Type: TypeStudy, MaxDaysPerYear: 5, Description: "Examination and study leave"},
	{Type: TypeCompassionate, MaxDaysPerYear: 5, Description: "Compassionate leave"},
	{Type: TypeOther, MaxDaysPerYear: 5, Description: "Unclassified leave"},
}

type Request struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	Type        string     `json:"type"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Days        int        `json:"days"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	DecidedBy   string     `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

type Holiday struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Balance is derived state, recomputed on every read and never persisted.
type Balance struct {
	Used      int `json:"used"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

type Validation struct {
	Valid   bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
	Days    int    `json:"days"`
}
