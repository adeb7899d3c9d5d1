package btctax

import (
	"errors"
	"fmt"
)

// ValidatePostings checks a transaction against the registry without
// changing it. All failures are reported, joined.
//
// Every posting must target a known account in the account currency, and
// the postings must sum to exactly zero in each currency. The pinned price,
// proceeds and value are positive USD amounts. The declared fee, if any,
// must equal the amount credited to the fee accounts of its currency.
func ValidatePostings(reg *Registry, tx Transaction) error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = errors.Join(errs, &InvalidTransactionError{ID: tx.ID, Reason: fmt.Sprintf(format, args...)})
	}

	if tx.ID == "" {
		invalid("id is missing")
	}
	if tx.Time.IsZero() {
		invalid("time is missing")
	}
	if _, err := ParseTxType(string(tx.Type)); err != nil {
		invalid("%v", err)
	}
	if len(tx.Postings) < 2 {
		invalid("need at least two postings, got %d", len(tx.Postings))
	}

	sums := map[Currency]Money{USD: M(0, USD), BTC: M(0, BTC)}
	for _, p := range tx.Postings {
		if err := ValidateCurrency(p.Amount.Currency()); err != nil {
			invalid("posting to %q: %v", p.Account, err)
			continue
		}
		sums[p.Amount.Currency()] = sums[p.Amount.Currency()].Add(p.Amount)

		acc, ok := reg.Account(p.Account)
		if !ok {
			errs = errors.Join(errs, &UnknownAccountError{ID: tx.ID, Account: p.Account})
			continue
		}
		if acc.Currency != p.Amount.Currency() {
			errs = errors.Join(errs, &CurrencyMismatchError{ID: tx.ID, Account: p.Account, Want: acc.Currency, Got: p.Amount.Currency()})
		}
	}

	residuals := make(map[Currency]Money)
	for cur, sum := range sums {
		if !sum.IsZero() {
			residuals[cur] = sum
		}
	}
	if len(residuals) > 0 {
		errs = errors.Join(errs, &ImbalancedLedgerError{ID: tx.ID, Residuals: residuals})
	}

	for _, pin := range []struct {
		name   string
		amount Money
	}{
		{"price", tx.PriceUSD},
		{"proceeds", tx.ProceedsUSD},
		{"value", tx.ValueUSD},
	} {
		switch {
		case pin.amount.IsZero():
		case pin.amount.Currency() != USD:
			invalid("%s must be in %s, got %s", pin.name, USD, pin.amount.Currency())
		case !pin.amount.IsPositive():
			invalid("%s must be positive, got %s", pin.name, pin.amount.Decimal())
		}
	}

	if !tx.Fee.IsZero() {
		if err := ValidateCurrency(tx.Fee.Currency()); err != nil {
			invalid("fee: %v", err)
		} else if paid := feePaid(reg, tx, tx.Fee.Currency()); !paid.Equal(tx.Fee) {
			invalid("declared fee %s does not match %s credited to fee accounts", tx.Fee.Decimal(), paid.Decimal())
		}
	}
	return errs
}

// feePaid returns the amount credited to fee accounts in cur.
func feePaid(reg *Registry, tx Transaction, cur Currency) Money {
	total := M(0, cur)
	for _, p := range tx.Postings {
		if p.Amount.Currency() == cur && reg.IsFeeSink(p.Account) {
			total = total.Add(p.Amount)
		}
	}
	return total
}
