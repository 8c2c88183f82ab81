package leave

import (
	"strings"
	"testing"

	"staffhub/internal/domain/core"
)

func testPolicies() PolicySet {
	policies := make(PolicySet, len(DefaultPolicies))
	for _, p := range DefaultPolicies {
		policies[p.Type] = p
	}
	return policies
}

func testEmployee(annualOverride *int) *core.Employee {
	return &core.Employee{
		ID:              "emp-1",
		FirstName:       "Ada",
		LastName:        "Osei",
		Status:          core.StatusActive,
		AnnualLeaveDays: annualOverride,
	}
}

func TestBalancesNilEmployee(t *testing.T) {
	if got := Balances(nil, nil, testPolicies(), NewCalendar(), 2025); got != nil {
		t.Fatalf("expected nil balances for nil employee, got %v", got)
	}
}

func TestBalancesUsedPlusRemainingEqualsTotal(t *testing.T) {
	// Mon 2025-01-06 .. Fri 2025-01-10 is 5 working days.
	requests := []Request{{
		EmployeeID: "emp-1",
		Type:       TypeAnnual,
		StartDate:  date("2025-01-06"),
		EndDate:    date("2025-01-10"),
		Status:     StatusApproved,
	}}

	balances := Balances(testEmployee(nil), requests, testPolicies(), NewCalendar(), 2025)
	bal := balances[TypeAnnual]
	if bal.Used != 5 {
		t.Fatalf("expected 5 used, got %d", bal.Used)
	}
	if bal.Total != 21 {
		t.Fatalf("expected policy total 21, got %d", bal.Total)
	}
	if bal.Used+bal.Remaining != bal.Total {
		t.Fatalf("used %d + remaining %d != total %d", bal.Used, bal.Remaining, bal.Total)
	}
}

func TestBalancesAnnualOverrideReplacesPolicyCap(t *testing.T) {
	override := 12
	requests := []Request{{
		EmployeeID: "emp-1",
		Type:       TypeAnnual,
		StartDate:  date("2025-01-06"),
		EndDate:    date("2025-01-10"),
		Status:     StatusApproved,
	}}

	balances := Balances(testEmployee(&override), requests, testPolicies(), NewCalendar(), 2025)
	bal := balances[TypeAnnual]
	if bal.Total != 12 {
		t.Fatalf("expected override total 12, got %d", bal.Total)
	}
	if bal.Used != 5 || bal.Remaining != 7 {
		t.Fatalf("expected used 5 remaining 7, got used %d remaining %d", bal.Used, bal.Remaining)
	}
}

func TestBalancesIgnoresOtherYearsAndStatuses(t *testing.T) {
	requests := []Request{
		{EmployeeID: "emp-1", Type: TypeAnnual, StartDate: date("2024-06-03"), EndDate: date("2024-06-07"), Status: StatusApproved},
		{EmployeeID: "emp-1", Type: TypeAnnual, StartDate: date("2025-02-03"), EndDate: date("2025-02-07"), Status: StatusPending},
		{EmployeeID: "emp-1", Type: TypeAnnual, StartDate: date("2025-03-03"), EndDate: date("2025-03-07"), Status: StatusRejected},
		{EmployeeID: "emp-2", Type: TypeAnnual, StartDate: date("2025-04-07"), EndDate: date("2025-04-11"), Status: StatusApproved},
	}

	balances := Balances(testEmployee(nil), requests, testPolicies(), NewCalendar(), 2025)
	if got := balances[TypeAnnual].Used; got != 0 {
		t.Fatalf("expected 0 used, got %d", got)
	}
}

func TestBalancesRemainingClampedAtZero(t *testing.T) {
	override := 3
	requests := []Request{{
		EmployeeID: "emp-1",
		Type:       TypeAnnual,
		StartDate:  date("2025-01-06"),
		EndDate:    date("2025-01-10"),
		Status:     StatusApproved,
	}}

	balances := Balances(testEmployee(&override), requests, testPolicies(), NewCalendar(), 2025)
	bal := balances[TypeAnnual]
	if bal.Remaining != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", bal.Remaining)
	}
	if bal.Used != 5 {
		t.Fatalf("expected used 5 even when over cap, got %d", bal.Used)
	}
}

func TestValidateRequestZeroDayRange(t *testing.T) {
	balances := Balances(testEmployee(nil), nil, testPolicies(), NewCalendar(), 2025)
	got := ValidateRequest(TypeAnnual, date("2025-01-04"), date("2025-01-05"), NewCalendar(), balances)
	if got.Valid {
		t.Fatal("expected weekend-only range to be invalid")
	}
	if !strings.Contains(got.Message, "weekends and holidays") {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestValidateRequestNeverValidBeyondRemaining(t *testing.T) {
	override := 2
	balances := Balances(testEmployee(&override), nil, testPolicies(), NewCalendar(), 2025)

	got := ValidateRequest(TypeAnnual, date("2025-01-06"), date("2025-01-10"), NewCalendar(), balances)
	if got.Valid {
		t.Fatal("expected request above remaining balance to be invalid")
	}
	if !strings.Contains(got.Message, "5 working day(s)") || !strings.Contains(got.Message, "2 day(s) remaining") {
		t.Fatalf("message must carry the concrete numbers, got %q", got.Message)
	}
}

func TestValidateRequestUnknownType(t *testing.T) {
	balances := Balances(testEmployee(nil), nil, testPolicies(), NewCalendar(), 2025)
	got := ValidateRequest("sabbatical", date("2025-01-06"), date("2025-01-07"), NewCalendar(), balances)
	if got.Valid {
		t.Fatal("expected unknown type to be invalid")
	}
}

func TestValidateRequestWithinBalance(t *testing.T) {
	override := 12
	balances := Balances(testEmployee(&override), nil, testPolicies(), NewCalendar(), 2025)

	got := ValidateRequest(TypeAnnual, date("2025-01-06"), date("2025-01-10"), NewCalendar(), balances)
	if !got.Valid {
		t.Fatalf("expected valid request, got %q", got.Message)
	}
	if got.Days != 5 {
		t.Fatalf("expected 5 working days, got %d", got.Days)
	}
}
