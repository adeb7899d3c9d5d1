package btctax

import (
	"fmt"
	"time"
)

// AcquisitionBasis defines the cost basis given to bitcoin that was received
// without being paid for (income, interest, rewards, gifts, unmatched
// transfers).
type AcquisitionBasis int

const (
	// FairValueBasis uses the market value at the time of receipt.
	FairValueBasis AcquisitionBasis = iota
	// ZeroBasis gives the lot no cost at all.
	ZeroBasis
)

func (b AcquisitionBasis) String() string {
	switch b {
	case FairValueBasis:
		return "fair-value"
	case ZeroBasis:
		return "zero"
	default:
		return "unknown"
	}
}

// ParseAcquisitionBasis parses a string into an AcquisitionBasis.
func ParseAcquisitionBasis(s string) (AcquisitionBasis, error) {
	switch s {
	case "fair-value", "":
		return FairValueBasis, nil
	case "zero":
		return ZeroBasis, nil
	default:
		return 0, fmt.Errorf("unknown acquisition basis: %q", s)
	}
}

// DefaultLongTermDays is the holding period, in days, that must be exceeded
// for a gain to be long-term.
const DefaultLongTermDays = 365

// Options tunes the accounting.
type Options struct {
	Basis        AcquisitionBasis
	LongTermDays int            // zero means DefaultLongTermDays.
	Location     *time.Location // where calendar days are counted, nil means UTC.
}

func (o Options) rule() HoldingRule {
	days := o.LongTermDays
	if days <= 0 {
		days = DefaultLongTermDays
	}
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return HoldingRule{Threshold: days, Location: loc}
}
