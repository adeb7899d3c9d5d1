package btctax

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"time"
)

// Ledger holds the declared accounts and the transactions between them.
//
// In a Ledger transactions are always in chronological order.
type Ledger struct {
	accounts     []Account
	transactions []Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts:     make([]Account, 0),
		transactions: make([]Transaction, 0),
	}
}

// Declare adds account definitions, in declaration order.
func (l *Ledger) Declare(accounts ...Account) {
	l.accounts = append(l.accounts, accounts...)
}

// Append appends transactions to this ledger and maintains the chronological order of transactions.
func (l *Ledger) Append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
}

// Accounts returns the declared accounts.
func (l *Ledger) Accounts() []Account { return slices.Clone(l.accounts) }

// Account returns the account declared with this id, or nil if unknown.
func (l *Ledger) Account(id string) *Account {
	i := slices.IndexFunc(l.accounts, func(a Account) bool { return a.ID == id })
	if i < 0 {
		return nil
	}
	a := l.accounts[i]
	return &a
}

// Transactions returns an iterator that yields each transaction in chronological order.
// When filters are given, only transactions accepted by at least one of them are yielded.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, tx := range l.transactions {
			if len(filters) > 0 && !slices.ContainsFunc(filters, func(f func(Transaction) bool) bool { return f(tx) }) {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// History returns a copy of the transactions in chronological order.
func (l *Ledger) History() []Transaction { return slices.Clone(l.transactions) }

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// ByType filters transactions of the given type.
func ByType(typ TxType) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Type == typ }
}

// ByAccount filters transactions posting to the account.
func ByAccount(id string) func(Transaction) bool {
	return func(tx Transaction) bool {
		return slices.ContainsFunc(tx.Postings, func(p Posting) bool { return p.Account == id })
	}
}

// stableSort sorts the ledger by transaction time. The sort is stable, meaning
// transactions at the same time maintain their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Time.Before(l.transactions[j].Time)
	})
}

// OldestTransactionTime returns the time of the earliest transaction, zero
// if the ledger is empty.
func (l *Ledger) OldestTransactionTime() time.Time {
	if len(l.transactions) == 0 {
		return time.Time{}
	}
	return l.transactions[0].Time
}

// NewestTransactionTime returns the time of the latest transaction, zero if
// the ledger is empty.
func (l *Ledger) NewestTransactionTime() time.Time {
	if len(l.transactions) == 0 {
		return time.Time{}
	}
	return l.transactions[len(l.transactions)-1].Time
}

// Check validates the account declarations and every transaction
// structurally. It does not replay balances, see AccountingSystem for that.
// All problems are reported.
func (l *Ledger) Check() error {
	reg, errs := NewRegistry(l.accounts)
	seen := make(map[string]bool)
	for _, tx := range l.transactions {
		if seen[tx.ID] {
			errs = errors.Join(errs, fmt.Errorf("duplicate transaction id %q", tx.ID))
		}
		seen[tx.ID] = true
	}
	if reg == nil {
		return errs
	}
	for _, tx := range l.transactions {
		if err := ValidatePostings(reg, tx); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
