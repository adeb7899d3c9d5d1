package btctax

import (
	"maps"
	"slices"
	"time"

	"github.com/etnz/btctax/date"
)

// Term is the holding period class of a disposal.
type Term int

const (
	Short Term = iota
	Long
)

func (t Term) String() string {
	if t == Long {
		return "long"
	}
	return "short"
}

// HoldingRule decides the term of a disposal.
type HoldingRule struct {
	Threshold int            // days that must be exceeded to be long-term.
	Location  *time.Location // calendar days are counted in this location.
}

// Term returns Long when more than Threshold calendar days separate the
// acquisition from the disposal. The acquisition day is not counted, the
// disposal day is.
func (r HoldingRule) Term(acquired, disposed time.Time) Term {
	if date.DaysBetween(date.Of(acquired, r.Location), date.Of(disposed, r.Location)) > r.Threshold {
		return Long
	}
	return Short
}

// TermOf is HoldingRule.Term with days counted in UTC.
func TermOf(acquired, disposed time.Time, threshold int) Term {
	return HoldingRule{Threshold: threshold, Location: time.UTC}.Term(acquired, disposed)
}

// Lot is a quantity of bitcoin acquired at once, in one account.
type Lot struct {
	Account    string
	AcquiredAt time.Time
	Original   Quantity // Original is the quantity that entered this account.
	Remaining  Quantity
	// Cost is the basis of the Remaining quantity. It is unavailable when
	// the acquisition needed a price that was missing.
	Cost Estimate
	// Unit is the cost of one bitcoin, set at acquisition. Splits keep it.
	Unit   Money
	Source string // Source is the id of the acquiring transaction.
}

// UnitCost returns the basis of one bitcoin of this lot.
func (l Lot) UnitCost() Estimate {
	if !l.Cost.Available() {
		return l.Cost
	}
	return Known(l.Unit)
}

// split takes q out of the lot. The piece taken costs q units, the piece
// left gets the exact remainder of the cost.
func (l Lot) split(q Quantity) (taken, left Lot) {
	taken, left = l, l
	taken.Remaining, left.Remaining = q, l.Remaining.Sub(q)
	cost, ok := l.Cost.Value()
	if !ok {
		return taken, left
	}
	part := cost
	if !q.Equal(l.Remaining) {
		part = l.Unit.Mul(q)
	}
	taken.Cost, left.Cost = Known(part), Known(cost.Sub(part))
	return taken, left
}

// DisposalPortion is the part of a disposal that consumed a single lot.
type DisposalPortion struct {
	TransactionID string
	Account       string
	Source        string
	AcquiredAt    time.Time
	DisposedAt    time.Time
	Quantity      Quantity
	CostBasis     Estimate // unavailable when the lot had no known cost.
	Proceeds      Estimate
	Gain          Estimate // unavailable when either the basis or the proceeds are.
	Term          Term
	Taxable       bool // false for a removal.
	Fee           bool // true when the bitcoin paid a network or exchange fee.
}

// LotTracker maintains the FIFO queue of lots of every bitcoin account.
//
// Queues are value slices indexed by account, lots are never shared between
// accounts.
type LotTracker struct {
	lots map[string][]Lot
	rule HoldingRule
}

// NewLotTracker returns an empty tracker.
func NewLotTracker(rule HoldingRule) *LotTracker {
	return &LotTracker{lots: make(map[string][]Lot), rule: rule}
}

// Acquire appends a lot to the account queue. An unavailable cost makes a
// lot whose basis stays unknown.
func (t *LotTracker) Acquire(account string, qty Quantity, cost Estimate, at time.Time, source string) {
	l := Lot{
		Account:    account,
		AcquiredAt: at,
		Original:   qty,
		Remaining:  qty,
		Cost:       cost,
		Unit:       M(0, USD),
		Source:     source,
	}
	if c, ok := cost.Value(); ok && qty.IsPositive() {
		l.Unit = c.Div(qty)
	}
	t.lots[account] = append(t.lots[account], l)
}

// consume takes qty from the oldest lots of account.
func (t *LotTracker) consume(txID, account string, qty Quantity) ([]Lot, error) {
	if available := t.Total(account); available.LessThan(qty) {
		return nil, &LotUnderflowError{ID: txID, Account: account, Requested: qty, Available: available}
	}
	queue := t.lots[account]
	var taken []Lot
	for i := range queue {
		if !qty.IsPositive() {
			break
		}
		piece, left := queue[i].split(qty.Min(queue[i].Remaining))
		taken = append(taken, piece)
		qty = qty.Sub(piece.Remaining)
		queue[i] = left
		if left.Remaining.IsPositive() {
			break
		}
	}
	// drop the exhausted lots.
	t.lots[account] = slices.DeleteFunc(queue, func(l Lot) bool { return l.Remaining.IsZero() })
	return taken, nil
}

// Dispose consumes qty from account, oldest lots first. The proceeds are
// shared between the lots touched pro rata, a portion is returned per lot.
func (t *LotTracker) Dispose(txID, account string, qty Quantity, proceeds Estimate, at time.Time) ([]DisposalPortion, error) {
	taken, err := t.consume(txID, account, qty)
	if err != nil {
		return nil, err
	}
	portions := make([]DisposalPortion, 0, len(taken))
	total, priced := proceeds.Value()
	left := total
	for i, piece := range taken {
		p := DisposalPortion{
			TransactionID: txID,
			Account:       account,
			Source:        piece.Source,
			AcquiredAt:    piece.AcquiredAt,
			DisposedAt:    at,
			Quantity:      piece.Remaining,
			CostBasis:     piece.Cost,
			Proceeds:      proceeds,
			Term:          t.rule.Term(piece.AcquiredAt, at),
			Taxable:       true,
		}
		if priced {
			share := left
			if i < len(taken)-1 {
				share = total.Mul(piece.Remaining).Div(qty)
			}
			left = left.Sub(share)
			p.Proceeds = Known(share)
		}
		p.Gain = p.Proceeds.Sub(p.CostBasis)
		portions = append(portions, p)
	}
	return portions, nil
}

// Remove consumes qty from account without realizing anything. The portions
// returned are not taxable.
func (t *LotTracker) Remove(txID, account string, qty Quantity, at time.Time) ([]DisposalPortion, error) {
	taken, err := t.consume(txID, account, qty)
	if err != nil {
		return nil, err
	}
	portions := make([]DisposalPortion, 0, len(taken))
	for _, piece := range taken {
		portions = append(portions, DisposalPortion{
			TransactionID: txID,
			Account:       account,
			Source:        piece.Source,
			AcquiredAt:    piece.AcquiredAt,
			DisposedAt:    at,
			Quantity:      piece.Remaining,
			CostBasis:     piece.Cost,
			Proceeds:      Known(M(0, USD)),
			Gain:          Known(M(0, USD)),
			Term:          t.rule.Term(piece.AcquiredAt, at),
		})
	}
	return portions, nil
}

// Relocate moves qty from one account to another. The lots keep their
// acquisition time and cost and are inserted in the destination queue in
// acquisition order, after the lots acquired at the same time.
func (t *LotTracker) Relocate(txID, from, to string, qty Quantity) error {
	taken, err := t.consume(txID, from, qty)
	if err != nil {
		return err
	}
	queue := t.lots[to]
	for _, piece := range taken {
		piece.Account = to
		piece.Original = piece.Remaining
		i, _ := slices.BinarySearchFunc(queue, piece.AcquiredAt, func(l Lot, at time.Time) int {
			if l.AcquiredAt.After(at) {
				return 1
			}
			return -1
		})
		queue = slices.Insert(queue, i, piece)
	}
	t.lots[to] = queue
	return nil
}

// Lots returns a copy of the account queue, oldest first.
func (t *LotTracker) Lots(account string) []Lot { return slices.Clone(t.lots[account]) }

// Total returns the quantity held in the account lots.
func (t *LotTracker) Total(account string) Quantity {
	total := Q(0)
	for _, l := range t.lots[account] {
		total = total.Add(l.Remaining)
	}
	return total
}

// Basis returns the cost of the account lots, unavailable when one of them
// has no known cost.
func (t *LotTracker) Basis(account string) Estimate {
	total := Known(M(0, USD))
	for _, l := range t.lots[account] {
		total = total.Add(l.Cost)
	}
	return total
}

// Accounts returns the accounts holding lots, sorted.
func (t *LotTracker) Accounts() []string {
	return slices.Sorted(maps.Keys(t.lots))
}

// save copies the queues of the accounts, restore puts them back.
func (t *LotTracker) save(accounts ...string) map[string][]Lot {
	saved := make(map[string][]Lot, len(accounts))
	for _, a := range accounts {
		q, ok := t.lots[a]
		if !ok {
			saved[a] = nil
			continue
		}
		saved[a] = slices.Clone(q)
	}
	return saved
}

func (t *LotTracker) restore(saved map[string][]Lot) {
	for a, q := range saved {
		if q == nil {
			delete(t.lots, a)
			continue
		}
		t.lots[a] = q
	}
}
