package payroll

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places persisted for monetary values
const MoneyPlaces = 2

// Round rounds a monetary amount to MoneyPlaces using round-half-even.
// Sums are always carried unrounded and only rounded on the way out.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// Sum adds amounts without rounding
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
