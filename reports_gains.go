package btctax

import (
	"slices"
	"time"

	"github.com/etnz/btctax/date"
)

// TermTotals sums the realized gains of one term. Losses are positive
// magnitudes and Net is Gains minus Losses. A gain that could not be valued
// makes all three unavailable.
type TermTotals struct {
	Gains  Estimate
	Losses Estimate
	Net    Estimate
}

func newTermTotals() TermTotals {
	zero := Known(M(0, USD))
	return TermTotals{Gains: zero, Losses: zero, Net: zero}
}

func (t *TermTotals) add(gain Estimate) {
	switch g, ok := gain.Value(); {
	case !ok:
		t.Gains, t.Losses = t.Gains.Add(gain), t.Losses.Add(gain)
	case g.IsNegative():
		t.Losses = t.Losses.Add(gain.Neg())
	default:
		t.Gains = t.Gains.Add(gain)
	}
	t.Net = t.Net.Add(gain)
}

// Period holds the realized gains of a range of days.
type Period struct {
	Range     date.Range
	ShortTerm TermTotals
	LongTerm  TermTotals
	Total     Estimate
}

// Earnings sums bitcoin received for free and its value at receipt.
type Earnings struct {
	BTC Quantity
	USD Estimate
}

func newEarnings() Earnings { return Earnings{BTC: Q(0), USD: Known(M(0, USD))} }

// Fees sums the fees paid. USDEquivalent values the bitcoin fees at the
// report date.
type Fees struct {
	USD           Money
	BTC           Quantity
	USDEquivalent Estimate
}

// TransactionSummary sums the portions of a disposing transaction.
type TransactionSummary struct {
	ID        string
	Time      time.Time
	Type      TxType
	Quantity  Quantity
	CostBasis Estimate
	Proceeds  Estimate
	Gain      Estimate
	Term      Term // Term of the earliest lot disposed of.
}

// Holding is what remains in a bitcoin account.
type Holding struct {
	Account  string
	Owner    string
	Quantity Quantity
	Basis    Estimate
	Lots     []Lot
}

// Report is the tax summary of a history as of a point in time.
type Report struct {
	AsOf time.Time
	Rule HoldingRule // Rule decides the terms and where calendar days are counted.
	Year int

	ShortTerm  TermTotals
	LongTerm   TermTotals
	TotalNet   Estimate
	YearToDate Period

	Income        Earnings
	Interest      Earnings
	Rewards       Earnings
	TotalIncome   Estimate
	GiftsReceived Earnings
	GiftsSent     Quantity

	Fees         Fees
	SellProceeds Estimate
	Spent        Estimate

	Disposals    []DisposalPortion
	Transactions []TransactionSummary
	Holdings     []Holding

	// TotalBTC is the quantity held in all the owned accounts.
	TotalBTC Quantity
	// CostBasis is the FIFO basis of TotalBTC.
	CostBasis Estimate
	// MarketValue values TotalBTC at the report date.
	MarketValue Estimate
	// Unrealized is MarketValue minus CostBasis.
	Unrealized Estimate

	// Unpriced lists the transactions that could not be valued, in order.
	Unpriced []string
}

// gainsAggregator folds the effects of each transaction into a Report.
type gainsAggregator struct {
	report *Report
	ytd    date.Range
	loc    *time.Location
}

func newGainsAggregator(asOf time.Time, rule HoldingRule) *gainsAggregator {
	loc := rule.Location
	day := date.Of(asOf, loc)
	ytd := date.YearToDate(day)
	return &gainsAggregator{
		loc: loc,
		ytd: ytd,
		report: &Report{
			AsOf:          asOf,
			Rule:          rule,
			Year:          day.Year(),
			ShortTerm:     newTermTotals(),
			LongTerm:      newTermTotals(),
			TotalNet:      Known(M(0, USD)),
			YearToDate:    Period{Range: ytd, ShortTerm: newTermTotals(), LongTerm: newTermTotals(), Total: Known(M(0, USD))},
			Income:        newEarnings(),
			Interest:      newEarnings(),
			Rewards:       newEarnings(),
			TotalIncome:   Known(M(0, USD)),
			GiftsReceived: newEarnings(),
			GiftsSent:     Q(0),
			Fees:          Fees{USD: M(0, USD), BTC: Q(0)},
			SellProceeds:  Known(M(0, USD)),
			Spent:         Known(M(0, USD)),
			TotalBTC:      Q(0),
			CostBasis:     Known(M(0, USD)),
		},
	}
}

// add folds one applied transaction.
func (g *gainsAggregator) add(e Entry) {
	r := g.report
	tx := e.Transaction
	unpriced := false

	r.Fees.USD = r.Fees.USD.Add(e.FeeUSD)
	r.Fees.BTC = r.Fees.BTC.Add(e.FeeBTC)

	for _, m := range e.Movements {
		if !m.Priced {
			unpriced = true
		}
		switch m.Kind {
		case Acquisition:
			value := m.Value()
			switch tx.Type {
			case TxIncome:
				r.Income.add(m.Quantity, value)
			case TxInterest:
				r.Interest.add(m.Quantity, value)
			case TxReward:
				r.Rewards.add(m.Quantity, value)
			case TxGiftReceived:
				r.GiftsReceived.add(m.Quantity, value)
			}
		case Disposal:
			proceeds := m.Proceeds()
			if m.Spend {
				r.Spent = r.Spent.Add(proceeds)
			} else {
				r.SellProceeds = r.SellProceeds.Add(proceeds)
			}
		case Removal:
			r.GiftsSent = r.GiftsSent.Add(m.Quantity)
		}
	}

	var summary *TransactionSummary
	var earliest time.Time
	for _, p := range e.Portions {
		r.Disposals = append(r.Disposals, p)
		if !p.Taxable {
			continue
		}
		if summary == nil {
			summary = &TransactionSummary{
				ID:        tx.ID,
				Time:      tx.Time,
				Type:      tx.Type,
				Quantity:  Q(0),
				CostBasis: Known(M(0, USD)),
				Proceeds:  Known(M(0, USD)),
				Gain:      Known(M(0, USD)),
				Term:      p.Term,
			}
			earliest = p.AcquiredAt
		}
		if p.AcquiredAt.Before(earliest) {
			earliest, summary.Term = p.AcquiredAt, p.Term
		}
		summary.Quantity = summary.Quantity.Add(p.Quantity)
		summary.CostBasis = summary.CostBasis.Add(p.CostBasis)
		summary.Proceeds = summary.Proceeds.Add(p.Proceeds)
		summary.Gain = summary.Gain.Add(p.Gain)
		if !p.Gain.Available() {
			unpriced = true
		}

		if p.Term == Long {
			r.LongTerm.add(p.Gain)
		} else {
			r.ShortTerm.add(p.Gain)
		}
		if g.ytd.Contains(date.Of(p.DisposedAt, g.loc)) {
			if p.Term == Long {
				r.YearToDate.LongTerm.add(p.Gain)
			} else {
				r.YearToDate.ShortTerm.add(p.Gain)
			}
		}
	}
	if summary != nil {
		r.Transactions = append(r.Transactions, *summary)
	}
	if unpriced {
		r.Unpriced = append(r.Unpriced, tx.ID)
	}
}

// close computes the totals and the holdings, price is the BTC price at the
// report date.
func (g *gainsAggregator) close(b *Book, price Estimate) *Report {
	r := g.report
	r.TotalNet = r.ShortTerm.Net.Add(r.LongTerm.Net)
	r.YearToDate.Total = r.YearToDate.ShortTerm.Net.Add(r.YearToDate.LongTerm.Net)
	r.TotalIncome = r.Income.USD.Add(r.Interest.USD).Add(r.Rewards.USD)

	for _, acc := range b.reg.AccountsWithCurrency(BTC) {
		if !acc.Owned() {
			continue
		}
		h := Holding{
			Account:  acc.ID,
			Owner:    acc.Owner,
			Quantity: b.lots.Total(acc.ID),
			Basis:    b.lots.Basis(acc.ID),
			Lots:     b.lots.Lots(acc.ID),
		}
		r.Holdings = append(r.Holdings, h)
		r.TotalBTC = r.TotalBTC.Add(h.Quantity)
		r.CostBasis = r.CostBasis.Add(h.Basis)
	}

	r.Fees.USDEquivalent = Known(r.Fees.USD)
	r.MarketValue = price
	if p, ok := price.Value(); ok {
		r.Fees.USDEquivalent = Known(r.Fees.USD.Add(p.Mul(r.Fees.BTC)))
		r.MarketValue = Known(p.Mul(r.TotalBTC))
	} else if r.Fees.BTC.IsPositive() {
		r.Fees.USDEquivalent = price
	}
	if r.TotalBTC.IsZero() {
		r.MarketValue = Known(M(0, USD))
	}
	r.Unrealized = r.MarketValue.Sub(r.CostBasis)
	r.Unpriced = slices.Compact(r.Unpriced)
	return r
}

func (e *Earnings) add(q Quantity, value Estimate) {
	e.BTC = e.BTC.Add(q)
	e.USD = e.USD.Add(value)
}
