package btctax

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccountKind classifies an account by its role in the ledger.
type AccountKind string

const (
	Bank         AccountKind = "bank"
	ExchangeFiat AccountKind = "exchange-fiat"
	ExchangeBTC  AccountKind = "exchange-btc"
	Wallet       AccountKind = "wallet"
	BTCFees      AccountKind = "btc-fees"
	USDFees      AccountKind = "usd-fees"
	Income       AccountKind = "income"
	External     AccountKind = "external"
)

// ParseAccountKind parses a case insensitive account kind.
func ParseAccountKind(s string) (AccountKind, error) {
	k := AccountKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Bank, ExchangeFiat, ExchangeBTC, Wallet, BTCFees, USDFees, Income, External:
		return k, nil
	default:
		return "", fmt.Errorf("unknown account kind %q", s)
	}
}

// IsAsset reports whether the account holds the owner's funds.
func (k AccountKind) IsAsset() bool {
	switch k {
	case Bank, ExchangeFiat, ExchangeBTC, Wallet:
		return true
	}
	return false
}

// IsFeeSink reports whether the account accumulates fees.
func (k AccountKind) IsFeeSink() bool { return k == BTCFees || k == USDFees }

// Account is a single balance in a single currency.
type Account struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Currency Currency    `json:"currency"`
	Kind     AccountKind `json:"kind"`
	Owner    string      `json:"owner,omitempty"`
}

// NewAccount returns an account, name defaults to id.
func NewAccount(id string, cur Currency, kind AccountKind, owner string) Account {
	return Account{ID: id, Name: id, Currency: cur, Kind: kind, Owner: owner}
}

// Owned reports whether the account is an holding of its owner: neither a fee
// sink nor one of the world side accounts (income, external).
func (a Account) Owned() bool { return a.Kind.IsAsset() }

// Validate checks the account definition.
func (a Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account id is missing")
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		return fmt.Errorf("account %q: %w", a.ID, err)
	}
	if _, err := ParseAccountKind(string(a.Kind)); err != nil {
		return fmt.Errorf("account %q: %w", a.ID, err)
	}
	switch {
	case a.Kind == BTCFees && a.Currency != BTC:
		return fmt.Errorf("account %q: btc fee account must hold BTC", a.ID)
	case a.Kind == USDFees && a.Currency != USD:
		return fmt.Errorf("account %q: usd fee account must hold USD", a.ID)
	case a.Kind == ExchangeBTC && a.Currency != BTC, a.Kind == Wallet && a.Currency != BTC:
		return fmt.Errorf("account %q: %s account must hold BTC", a.ID, a.Kind)
	case a.Kind == ExchangeFiat && a.Currency != USD, a.Kind == Bank && a.Currency != USD:
		return fmt.Errorf("account %q: %s account must hold USD", a.ID, a.Kind)
	}
	if a.Kind.IsAsset() && a.Owner == "" {
		return fmt.Errorf("account %q: owner is missing", a.ID)
	}
	return nil
}

// MarshalJSON writes the account as a ledger command.
func (a Account) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", CmdAccount)
	w.Append("id", a.ID)
	w.Optional("name", a.Name)
	w.Append("currency", a.Currency)
	w.Append("kind", a.Kind)
	w.Optional("owner", a.Owner)
	return w.MarshalJSON()
}

// UnmarshalJSON reads an account command.
func (a *Account) UnmarshalJSON(data []byte) error {
	// alias drops the methods to avoid recursion.
	type alias Account
	var temp alias
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*a = Account(temp)
	return nil
}
