package btctax

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is one of the two currencies handled by the ledger.
type Currency string

const (
	USD Currency = "USD"
	BTC Currency = "BTC"
)

func init() {
	// go-money only knows ISO 4217 currencies.
	if money.GetCurrency(string(BTC)) == nil {
		money.AddCurrency(string(BTC), "₿", "$1", ".", ",", btcFraction)
	}
}

// ValidateCurrency checks that cur is USD or BTC.
func ValidateCurrency(cur Currency) error {
	switch cur {
	case USD, BTC:
		return nil
	case "":
		return fmt.Errorf("currency is missing")
	default:
		return fmt.Errorf("unsupported currency %q, want USD or BTC", string(cur))
	}
}

// ParseCurrency parses a case insensitive currency code.
func ParseCurrency(s string) (Currency, error) {
	cur := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return cur, ValidateCurrency(cur)
}

// Money represents an exact amount in a currency. Values are never rounded
// by arithmetic, only when formatted.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   Currency
}

func M[T int | int32 | int64 | string | decimal.Decimal](value T, currency Currency) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// Dollars is a shorthand for USD money.
func Dollars[T int | int32 | int64 | string | decimal.Decimal](value T) Money { return M(value, USD) }

// Bitcoins returns BTC money from a quantity.
func Bitcoins(q Quantity) Money { return Money{value: q.value, cur: BTC} }

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, string(m.cur)).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// Simple wrapper around decimal.Decimal

func (m Money) Currency() Currency              { return m.cur }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(amount Money) bool      { return m.value.LessThan(amount.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value), cur: m.cur} }

// Quantity returns the amount as a bitcoin quantity. It is only meaningful
// for BTC money.
func (m Money) Quantity() Quantity { return Quantity{value: m.value} }

// Round returns the money rounded to its currency minor unit.
func (m Money) Round() Money {
	return Money{value: m.value.Round(int32(m.currency().Fraction)), cur: m.cur}
}

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) Currency {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + string(A.cur) + "!=" + string(B.cur))
	}
	return A.cur
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON persists money with all its digits.
func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("amount", m.value)
	w.Optional("currency", m.cur)
	return w.MarshalJSON()
}

// UnmarshalJSON reads money written by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var temp amountCmd
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*m = temp.Money()
	return nil
}
