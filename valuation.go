package btctax

import "fmt"

// costPool is the average cost state: bitcoin held at a cost and bitcoin
// held for free.
type costPool struct {
	qty  Quantity // quantity acquired at a cost.
	cost Money
	zero Quantity // quantity acquired for nothing.
}

// reduce takes q out of both sides pro rata.
func (p *costPool) reduce(txID, account string, q Quantity) error {
	total := p.qty.Add(p.zero)
	if total.LessThan(q) {
		return &LotUnderflowError{ID: txID, Account: account, Requested: q, Available: total}
	}
	if q.Equal(total) {
		p.qty, p.cost, p.zero = Q(0), M(0, USD), Q(0)
		return nil
	}
	left := total.Sub(q).Ratio(total)
	p.cost = M(p.cost.Decimal().Mul(left), USD)
	p.qty = Q(p.qty.Decimal().Mul(left))
	p.zero = Q(p.zero.Decimal().Mul(left))
	return nil
}

// AverageCostBasis returns the volume weighted average cost of one bitcoin
// still held after txs, rounded to the cent.
//
// Disposals reduce the holding at its average cost, relocations do not
// change it. Bitcoin received at no cost does not weigh in the average. It
// is an estimate for the unrealized gain only, realized gains always use
// FIFO lots.
//
// An acquisition whose cost needs a missing price has no average: the
// error is a *TransactionError wrapping a *PriceUnavailableError.
func AverageCostBasis(accounts []Account, txs []Transaction, prices PriceSource, basis AcquisitionBasis) (Money, error) {
	reg, err := NewRegistry(accounts)
	if err != nil {
		return Money{}, fmt.Errorf("invalid accounts: %w", err)
	}
	cls := Classifier{Prices: prices, Basis: basis}
	pool := costPool{qty: Q(0), cost: M(0, USD), zero: Q(0)}

	for _, tx := range txs {
		if err := ValidatePostings(reg, tx); err != nil {
			return Money{}, &TransactionError{ID: tx.ID, Err: err}
		}
		moves, err := cls.Classify(reg, tx)
		if err != nil {
			return Money{}, &TransactionError{ID: tx.ID, Err: err}
		}
		for _, m := range moves {
			switch m.Kind {
			case Acquisition:
				cost, ok := m.Cost().Value()
				if !ok {
					return Money{}, &TransactionError{ID: tx.ID, Err: m.Cost().Reason()}
				}
				if cost.IsPositive() {
					pool.qty = pool.qty.Add(m.Quantity)
					pool.cost = pool.cost.Add(cost)
				} else {
					pool.zero = pool.zero.Add(m.Quantity)
				}
			case Disposal, FeeDisposal, Removal:
				if err := pool.reduce(tx.ID, m.Account, m.Quantity); err != nil {
					return Money{}, &TransactionError{ID: tx.ID, Err: err}
				}
			case Relocation:
			default:
				return Money{}, &TransactionError{ID: tx.ID, Err: fmt.Errorf("unsupported movement %v", m.Kind)}
			}
		}
	}
	if !pool.qty.IsPositive() {
		return M(0, USD), nil
	}
	return M(pool.cost.Decimal().Div(pool.qty.Decimal()), USD).Round(), nil
}

// UnrealizedGain estimates the gain of holding total bitcoin bought at
// average and valued at price.
func UnrealizedGain(average, price Money, total Quantity) Money {
	return price.Sub(average).Mul(total)
}
