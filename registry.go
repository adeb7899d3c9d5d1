package btctax

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Registry holds the accounts and their running balances.
type Registry struct {
	accounts map[string]Account
	balances map[string]Money
}

// NewRegistry indexes the accounts. Duplicated ids and invalid definitions
// are all reported.
func NewRegistry(accounts []Account) (*Registry, error) {
	r := &Registry{
		accounts: make(map[string]Account, len(accounts)),
		balances: make(map[string]Money, len(accounts)),
	}
	var errs error
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if _, exists := r.accounts[a.ID]; exists {
			errs = errors.Join(errs, fmt.Errorf("account %q declared twice", a.ID))
			continue
		}
		r.accounts[a.ID] = a
		r.balances[a.ID] = M(0, a.Currency)
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

// Account returns the account with that id.
func (r *Registry) Account(id string) (Account, bool) {
	a, ok := r.accounts[id]
	return a, ok
}

// Balance returns the running balance of an account.
func (r *Registry) Balance(id string) Money { return r.balances[id] }

// AccountsWithCurrency returns the accounts holding cur, sorted by id.
func (r *Registry) AccountsWithCurrency(cur Currency) []Account {
	var res []Account
	for _, a := range r.accounts {
		if a.Currency == cur {
			res = append(res, a)
		}
	}
	slices.SortFunc(res, func(a, b Account) int { return strings.Compare(a.ID, b.ID) })
	return res
}

// Owned reports whether id is an asset account of some owner.
func (r *Registry) Owned(id string) bool {
	a, ok := r.accounts[id]
	return ok && a.Owned()
}

// IsFeeSink reports whether id accumulates fees.
func (r *Registry) IsFeeSink(id string) bool {
	a, ok := r.accounts[id]
	return ok && a.Kind.IsFeeSink()
}

// SameOwner reports whether both accounts are owned by the same user.
func (r *Registry) SameOwner(a, b string) bool {
	x, y := r.accounts[a], r.accounts[b]
	return x.Owned() && y.Owned() && x.Owner == y.Owner
}

// Apply posts the transaction to the balances. Nothing is changed when an
// asset account or a fee sink would become negative, the first one in
// posting order is reported.
func (r *Registry) Apply(tx Transaction) error {
	next := make(map[string]Money)
	for _, p := range tx.Postings {
		b, ok := next[p.Account]
		if !ok {
			b = r.balances[p.Account]
		}
		next[p.Account] = b.Add(p.Amount)
	}
	for _, p := range tx.Postings {
		a, b := r.accounts[p.Account], next[p.Account]
		if (a.Kind.IsAsset() || a.Kind.IsFeeSink()) && b.IsNegative() {
			return &NegativeBalanceError{ID: tx.ID, Account: p.Account, Balance: b}
		}
	}
	for id, b := range next {
		r.balances[id] = b
	}
	return nil
}
