package btctax

import "encoding/json"

// Estimate is a USD figure that depends on a market price. When the price
// could not be obtained the estimate is unavailable and carries the reason,
// it never silently defaults to zero.
type Estimate struct {
	value  Money
	reason error
}

// Known returns an available estimate.
func Known(m Money) Estimate { return Estimate{value: m} }

// Unavailable returns an estimate that could not be computed.
func Unavailable(reason error) Estimate { return Estimate{reason: reason} }

// Available reports whether the estimate has a value.
func (e Estimate) Available() bool { return e.reason == nil }

// Value returns the estimate and whether it is available.
func (e Estimate) Value() (Money, bool) { return e.value, e.reason == nil }

// Reason returns why the estimate is unavailable, nil otherwise.
func (e Estimate) Reason() error { return e.reason }

// Add sums two estimates, the result is unavailable if either is.
func (e Estimate) Add(o Estimate) Estimate {
	if e.reason != nil {
		return e
	}
	if o.reason != nil {
		return o
	}
	return Known(e.value.Add(o.value))
}

// Sub subtracts o from e, the result is unavailable if either is.
func (e Estimate) Sub(o Estimate) Estimate { return e.Add(o.Neg()) }

// Neg returns the opposite estimate.
func (e Estimate) Neg() Estimate {
	if e.reason != nil {
		return e
	}
	return Known(e.value.Neg())
}

// Equal reports whether both estimates have the same availability and value.
func (e Estimate) Equal(o Estimate) bool {
	if e.Available() != o.Available() {
		return false
	}
	return !e.Available() || e.value.Equal(o.value)
}

func (e Estimate) String() string {
	if e.reason != nil {
		return "unavailable"
	}
	return e.value.String()
}

// MarshalJSON writes the amount, or null when unavailable.
func (e Estimate) MarshalJSON() ([]byte, error) {
	if e.reason != nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.value)
}
