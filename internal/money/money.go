package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Places is the number of decimal places every reported amount is rounded to.
const Places = 2

// Money is an amount in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// New creates a Money value.
func New(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// Rounded returns a copy with the amount rounded half-up to Places.
func (m Money) Rounded() Money {
	return Money{Amount: RoundHalfUp(m.Amount), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency.String(), m.Amount.StringFixed(Places))
}

// RoundHalfUp rounds to Places, halves away from zero.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// LineTotal returns the exact unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sum adds values exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Parse parses a decimal amount such as "12.30".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount[%s] is not valid: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromFloat converts a JSON number into a decimal using its shortest representation.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ParseCurrency parses an ISO 4217 code.
func ParseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return unit, nil
}
