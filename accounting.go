package btctax

import (
	"fmt"
	"slices"
	"time"
)

// AccountingSystem computes tax reports from a history of transactions
// between a fixed set of accounts.
//
// It holds no state between calls: each computation replays the whole
// history in a new Book.
type AccountingSystem struct {
	accounts []Account
	prices   PriceSource
	opts     Options
}

// NewAccountingSystem creates an accounting system. prices may be nil, every
// valuation that needs a market price is then reported as unavailable.
func NewAccountingSystem(accounts []Account, prices PriceSource, opts Options) (*AccountingSystem, error) {
	if _, err := NewRegistry(accounts); err != nil {
		return nil, fmt.Errorf("invalid accounts: %w", err)
	}
	return &AccountingSystem{accounts: slices.Clone(accounts), prices: prices, opts: opts}, nil
}

// NewBook returns an empty book for the system accounts.
func (as *AccountingSystem) NewBook() *Book {
	reg, _ := NewRegistry(as.accounts) // checked by NewAccountingSystem.
	return &Book{
		reg:  reg,
		lots: NewLotTracker(as.opts.rule()),
		cls:  Classifier{Prices: as.prices, Basis: as.opts.Basis},
	}
}

// ProcessHistory replays the transactions up to asOf, included, and returns
// the report. Transactions after asOf are ignored.
//
// The first transaction that cannot be applied aborts the computation, the
// error is a *TransactionError. Missing prices and price source failures do
// not abort, they make the affected figures unavailable.
func (as *AccountingSystem) ProcessHistory(txs []Transaction, asOf time.Time) (*Report, error) {
	book := as.NewBook()
	agg := newGainsAggregator(asOf, as.opts.rule())
	for _, tx := range chronological(txs, asOf) {
		e, err := book.Apply(tx)
		if err != nil {
			return nil, err
		}
		agg.add(e)
	}

	return agg.close(book, as.priceAt(asOf)), nil
}

// AverageCostBasis returns the average cost of one bitcoin held at asOf,
// see AverageCostBasis.
func (as *AccountingSystem) AverageCostBasis(txs []Transaction, asOf time.Time) (Money, error) {
	return AverageCostBasis(as.accounts, chronological(txs, asOf), as.prices, as.opts.Basis)
}

// priceAt returns the BTC price at t, unavailable when the source has none
// or fails.
func (as *AccountingSystem) priceAt(t time.Time) Estimate {
	if as.prices == nil {
		return Unavailable(&PriceUnavailableError{At: t})
	}
	price, err := as.prices.PriceAt(t)
	if err != nil {
		return Unavailable(priceMissing(t, err))
	}
	return Known(price)
}

// chronological returns the transactions up to asOf, stably sorted by time.
func chronological(txs []Transaction, asOf time.Time) []Transaction {
	res := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Time.After(asOf) {
			res = append(res, tx)
		}
	}
	slices.SortStableFunc(res, func(a, b Transaction) int { return a.Time.Compare(b.Time) })
	return res
}

// Entry is the effect of a transaction applied to a Book.
type Entry struct {
	Transaction Transaction
	Movements   []Movement
	Portions    []DisposalPortion // Portions of the disposals, fee disposals and removals.
	FeeUSD      Money
	FeeBTC      Quantity
}

// Book is the state of the accounts after a sequence of transactions: the
// balances and the bitcoin lots.
type Book struct {
	reg        *Registry
	lots       *LotTracker
	cls        Classifier
	checkpoint string
}

// Apply validates and applies a single transaction. It is atomic: on error
// the book is left as it was, and the error is a *TransactionError.
func (b *Book) Apply(tx Transaction) (Entry, error) {
	e, err := b.apply(tx)
	if err != nil {
		return Entry{}, &TransactionError{ID: tx.ID, Err: err}
	}
	b.checkpoint = tx.ID
	return e, nil
}

func (b *Book) apply(tx Transaction) (Entry, error) {
	if err := ValidatePostings(b.reg, tx); err != nil {
		return Entry{}, err
	}
	moves, err := b.cls.Classify(b.reg, tx)
	if err != nil {
		return Entry{}, err
	}

	var touched []string
	for _, m := range moves {
		touched = append(touched, m.Account)
		if m.To != "" {
			touched = append(touched, m.To)
		}
	}
	saved := b.lots.save(touched...)

	// lots first: an owned bitcoin account cannot go below its lots, this is
	// reported as an underflow.
	portions, err := b.move(tx, moves)
	if err != nil {
		b.lots.restore(saved)
		return Entry{}, err
	}
	if err := b.reg.Apply(tx); err != nil {
		b.lots.restore(saved)
		return Entry{}, err
	}
	return Entry{
		Transaction: tx,
		Movements:   moves,
		Portions:    portions,
		FeeUSD:      feePaid(b.reg, tx, USD),
		FeeBTC:      feePaid(b.reg, tx, BTC).Quantity(),
	}, nil
}

// move applies the movements to the lots.
func (b *Book) move(tx Transaction, moves []Movement) ([]DisposalPortion, error) {
	var portions []DisposalPortion
	for _, m := range moves {
		switch m.Kind {
		case Acquisition:
			b.lots.Acquire(m.Account, m.Quantity, m.Cost(), tx.Time, tx.ID)
		case Disposal, FeeDisposal:
			ps, err := b.lots.Dispose(tx.ID, m.Account, m.Quantity, m.Proceeds(), tx.Time)
			if err != nil {
				return nil, err
			}
			for i := range ps {
				ps[i].Fee = m.Kind == FeeDisposal
			}
			portions = append(portions, ps...)
		case Relocation:
			if err := b.lots.Relocate(tx.ID, m.Account, m.To, m.Quantity); err != nil {
				return nil, err
			}
		case Removal:
			ps, err := b.lots.Remove(tx.ID, m.Account, m.Quantity, tx.Time)
			if err != nil {
				return nil, err
			}
			portions = append(portions, ps...)
		default:
			return nil, fmt.Errorf("unsupported movement %v", m.Kind)
		}
	}
	return portions, nil
}

// Checkpoint returns the id of the last transaction applied, empty when none.
func (b *Book) Checkpoint() string { return b.checkpoint }

// Balance returns the balance of an account.
func (b *Book) Balance(account string) Money { return b.reg.Balance(account) }

// Lots returns the lots of a bitcoin account, oldest first.
func (b *Book) Lots(account string) []Lot { return b.lots.Lots(account) }
