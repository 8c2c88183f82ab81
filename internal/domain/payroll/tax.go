package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// progressiveTax applies the bracket table to taxable pay. Each bracket
// taxes the slice of income in [min, max) at its rate; the open-ended
// bracket (nil max) absorbs the remainder. The monthly tax credit is
// subtracted from the summed tax and the result floored at zero.
func progressiveTax(taxable decimal.Decimal, brackets []TaxBracket, credit decimal.Decimal) decimal.Decimal {
	if taxable.Sign() <= 0 || len(brackets) == 0 {
		return decimal.Zero
	}

	ordered := make([]TaxBracket, len(brackets))
	copy(ordered, brackets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Min < ordered[j].Min })

	tax := decimal.Zero
	for _, b := range ordered {
		lo := decimal.NewFromFloat(b.Min)
		if taxable.LessThanOrEqual(lo) {
			break
		}
		hi := taxable
		if b.Max != nil {
			upper := decimal.NewFromFloat(*b.Max)
			if upper.LessThan(hi) {
				hi = upper
			}
		}
		slice := hi.Sub(lo)
		if slice.Sign() <= 0 {
			continue
		}
		tax = tax.Add(slice.Mul(decimal.NewFromFloat(b.Rate)))
	}

	tax = tax.Sub(credit)
	if tax.Sign() < 0 {
		return decimal.Zero
	}
	return tax
}

// ValidateBrackets checks that a bracket table is usable: ascending,
// contiguous without overlap, and exactly one open-ended bracket, which
// must come last.
func ValidateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return ErrInvalidBrackets
	}
	ordered := make([]TaxBracket, len(brackets))
	copy(ordered, brackets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Min < ordered[j].Min })

	open := 0
	for i, b := range ordered {
		if b.Rate < 0 || b.Min < 0 {
			return ErrInvalidBrackets
		}
		if b.Max == nil {
			open++
			if i != len(ordered)-1 {
				return ErrInvalidBrackets
			}
			continue
		}
		if *b.Max <= b.Min {
			return ErrInvalidBrackets
		}
		if i+1 < len(ordered) && ordered[i+1].Min < *b.Max {
			return ErrInvalidBrackets
		}
	}
	if open != 1 {
		return ErrInvalidBrackets
	}
	return nil
}
