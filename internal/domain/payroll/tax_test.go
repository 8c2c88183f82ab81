package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
)

func taxOf(t *testing.T, taxable float64, brackets []TaxBracket, credit float64) float64 {
	t.Helper()
	got, _ := progressiveTax(decimal.NewFromFloat(taxable), brackets, decimal.NewFromFloat(credit)).Round(2).Float64()
	return got
}

func progressiveBrackets() []TaxBracket {
	return []TaxBracket{
		{Min: 0, Max: floatPtr(1000), Rate: 0},
		{Min: 1000, Max: floatPtr(3000), Rate: 0.10},
		{Min: 3000, Max: nil, Rate: 0.20},
	}
}

func TestProgressiveTaxAcrossBrackets(t *testing.T) {
	// 0 on the first 1000, 10% of 2000, 20% of 2000.
	if got := taxOf(t, 5000, progressiveBrackets(), 0); got != 600 {
		t.Fatalf("expected 600, got %v", got)
	}
}

func TestProgressiveTaxStopsAtIncome(t *testing.T) {
	// Income inside the second bracket: 10% of (2500 - 1000).
	if got := taxOf(t, 2500, progressiveBrackets(), 0); got != 150 {
		t.Fatalf("expected 150, got %v", got)
	}
}

func TestProgressiveTaxCreditFloorsAtZero(t *testing.T) {
	if got := taxOf(t, 2500, progressiveBrackets(), 500); got != 0 {
		t.Fatalf("expected credit to floor tax at 0, got %v", got)
	}
	if got := taxOf(t, 5000, progressiveBrackets(), 100); got != 500 {
		t.Fatalf("expected 500 after credit, got %v", got)
	}
}

func TestProgressiveTaxZeroOrNegativeIncome(t *testing.T) {
	if got := taxOf(t, 0, progressiveBrackets(), 0); got != 0 {
		t.Fatalf("expected 0 tax on 0 income, got %v", got)
	}
	if got := taxOf(t, -100, progressiveBrackets(), 0); got != 0 {
		t.Fatalf("expected 0 tax on negative income, got %v", got)
	}
}

func TestValidateBrackets(t *testing.T) {
	if err := ValidateBrackets(progressiveBrackets()); err != nil {
		t.Fatalf("expected valid brackets, got %v", err)
	}

	cases := map[string][]TaxBracket{
		"empty":            {},
		"no open bracket":  {{Min: 0, Max: floatPtr(1000), Rate: 0}},
		"two open":         {{Min: 0, Max: nil, Rate: 0}, {Min: 1000, Max: nil, Rate: 0.1}},
		"overlap":          {{Min: 0, Max: floatPtr(2000), Rate: 0}, {Min: 1000, Max: nil, Rate: 0.1}},
		"inverted bounds":  {{Min: 2000, Max: floatPtr(1000), Rate: 0}, {Min: 3000, Max: nil, Rate: 0.1}},
		"negative rate":    {{Min: 0, Max: floatPtr(1000), Rate: -0.1}, {Min: 1000, Max: nil, Rate: 0.1}},
		"open not at tail": {{Min: 1000, Max: nil, Rate: 0.1}, {Min: 2000, Max: floatPtr(3000), Rate: 0.2}},
	}
	for name, brackets := range cases {
		if err := ValidateBrackets(brackets); err == nil {
			t.Fatalf("expected %s brackets to be rejected", name)
		}
	}
}
