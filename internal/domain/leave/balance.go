package leave

import (
	"fmt"
	"time"

	"staffhub/internal/domain/core"
)

// Balances derives per-type usage for one employee and calendar year from a
// snapshot of requests. Only approved requests whose start date falls in
// year count as usage; the day span of each is recomputed from the calendar
// rather than trusted from the stored record. The employee's personal
// annual-leave override, when set, replaces the annual policy cap.
//
// Returns nil when emp is nil: no balances are computable without an
// identity.
func Balances(emp *core.Employee, requests []Request, policies PolicySet, cal Calendar, year int) map[string]Balance {
	if emp == nil {
		return nil
	}

	used := make(map[string]int, len(Types))
	for _, req := range requests {
		if req.EmployeeID != emp.ID || req.Status != StatusApproved {
			continue
		}
		if req.StartDate.Year() != year {
			continue
		}
		used[req.Type] += WorkingDays(req.StartDate, req.EndDate, cal)
	}

	balances := make(map[string]Balance, len(Types))
	for _, typ := range Types {
		total := policies[typ].MaxDaysPerYear
		if typ == TypeAnnual && emp.AnnualLeaveDays != nil {
			total = *emp.AnnualLeaveDays
		}
		remaining := total - used[typ]
		if remaining < 0 {
			remaining = 0
		}
		balances[typ] = Balance{Used: used[typ], Total: total, Remaining: remaining}
	}
	return balances
}

// ValidateRequest checks a proposed request against current balances. It
// never mutates anything; callers re-run it on fresh data at submission and
// again at approval time. Messages carry the concrete numbers so the
// requester can see why a request was refused.
func ValidateRequest(typ string, start, end time.Time, cal Calendar, balances map[string]Balance) Validation {
	days := WorkingDays(start, end, cal)
	if days == 0 {
		return Validation{
			Valid:   false,
			Message: "the selected range contains only weekends and holidays",
		}
	}
	if balances == nil {
		return Validation{
			Valid:   false,
			Message: "leave balances are unavailable",
			Days:    days,
		}
	}
	bal, ok := balances[typ]
	if !ok {
		return Validation{
			Valid:   false,
			Message: fmt.Sprintf("unknown leave type %q", typ),
			Days:    days,
		}
	}
	if days > bal.Remaining {
		return Validation{
			Valid: false,
			Message: fmt.Sprintf("requested %d working day(s) of %s leave but only %d day(s) remaining",
				days, typ, bal.Remaining),
			Days: days,
		}
	}
	return Validation{Valid: true, Days: days}
}
