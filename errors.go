package btctax

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPriceUnavailable is wrapped by every PriceSource failure.
var ErrPriceUnavailable = errors.New("price unavailable")

// TransactionError reports the transaction that aborted a computation.
type TransactionError struct {
	ID  string
	Err error
}

func (e *TransactionError) Error() string { return fmt.Sprintf("transaction %q: %v", e.ID, e.Err) }
func (e *TransactionError) Unwrap() error { return e.Err }

// ImbalancedLedgerError reports the currencies whose postings do not sum to zero.
type ImbalancedLedgerError struct {
	ID        string
	Residuals map[Currency]Money
}

func (e *ImbalancedLedgerError) Error() string {
	var parts []string
	for _, cur := range []Currency{USD, BTC} {
		if r, ok := e.Residuals[cur]; ok {
			parts = append(parts, fmt.Sprintf("%s off by %s", cur, r.Decimal()))
		}
	}
	return fmt.Sprintf("imbalanced postings in %q: %s", e.ID, strings.Join(parts, ", "))
}

// UnknownAccountError reports a posting to an undeclared account.
type UnknownAccountError struct {
	ID      string
	Account string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q in %q", e.Account, e.ID)
}

// CurrencyMismatchError reports a posting whose currency differs from its account.
type CurrencyMismatchError struct {
	ID      string
	Account string
	Want    Currency
	Got     Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("posting to %q in %q is in %s, account holds %s", e.Account, e.ID, e.Got, e.Want)
}

// LotUnderflowError reports a consumption larger than the lots available.
type LotUnderflowError struct {
	ID        string
	Account   string
	Requested Quantity
	Available Quantity
}

func (e *LotUnderflowError) Error() string {
	return fmt.Sprintf("cannot consume %s BTC from %q in %q, only %s in lots", e.Requested, e.Account, e.ID, e.Available)
}

// NegativeBalanceError reports an asset account driven below zero.
type NegativeBalanceError struct {
	ID      string
	Account string
	Balance Money
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("account %q would be negative (%s) after %q", e.Account, e.Balance.Decimal(), e.ID)
}

// InvalidTransactionError reports a structurally invalid transaction.
type InvalidTransactionError struct {
	ID     string
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction %q: %s", e.ID, e.Reason)
}

// PriceUnavailableError reports a missing BTC/USD price. Err is the failure
// of the price source, nil when it simply had no price.
type PriceUnavailableError struct {
	At  time.Time
	Err error
}

func (e *PriceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no BTC price at %s: %v", e.At.Format(time.RFC3339), e.Err)
	}
	return fmt.Sprintf("no BTC price at %s", e.At.Format(time.RFC3339))
}

func (e *PriceUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPriceUnavailable}
	}
	return []error{ErrPriceUnavailable, e.Err}
}
