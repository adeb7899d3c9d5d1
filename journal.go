package btctax

import (
	"fmt"
)

// MovementKind is what a transaction does to the bitcoin lots.
type MovementKind int

const (
	// Acquisition creates a lot.
	Acquisition MovementKind = iota
	// Disposal consumes lots and realizes a gain: a sale or a spend.
	Disposal
	// FeeDisposal consumes the lots that paid a fee in bitcoin. It is taxable.
	FeeDisposal
	// Relocation moves lots between two accounts of the same owner.
	Relocation
	// Removal consumes lots without realizing anything: a gift.
	Removal
)

func (k MovementKind) String() string {
	switch k {
	case Acquisition:
		return "acquisition"
	case Disposal:
		return "disposal"
	case FeeDisposal:
		return "fee"
	case Relocation:
		return "relocation"
	case Removal:
		return "removal"
	default:
		return "unknown"
	}
}

// Movement is a single effect of a transaction on the lots of an account.
type Movement struct {
	Kind     MovementKind
	Account  string // Account receives the lot of an Acquisition, lots are taken from it otherwise.
	To       string // To receives the lots of a Relocation.
	Quantity Quantity
	// Amount is the cost of the lot of an Acquisition, the proceeds of a
	// Disposal or a FeeDisposal.
	Amount Money
	// FairValue is the market value of an Acquisition at the time of receipt.
	FairValue Money
	// Priced is false when Amount or FairValue required a price that was not
	// available, they are zero then and PriceErr tells why.
	Priced   bool
	PriceErr error
	// ZeroCost marks an Acquisition held at no cost, whatever its value.
	ZeroCost bool
	// Spend marks a Disposal that paid for something rather than a sale.
	Spend bool
}

// estimate returns v, or the missing price when the movement is not priced.
func (m Movement) estimate(v Money) Estimate {
	if m.Priced {
		return Known(v)
	}
	if m.PriceErr != nil {
		return Unavailable(m.PriceErr)
	}
	return Unavailable(ErrPriceUnavailable)
}

// Cost returns the basis of the lot created by an Acquisition.
func (m Movement) Cost() Estimate {
	if m.ZeroCost {
		return Known(M(0, USD))
	}
	return m.estimate(m.Amount)
}

// Proceeds returns the proceeds of a Disposal or a FeeDisposal.
func (m Movement) Proceeds() Estimate { return m.estimate(m.Amount) }

// Value returns the fair value of an Acquisition.
func (m Movement) Value() Estimate { return m.estimate(m.FairValue) }

// Classifier turns transactions into movements.
type Classifier struct {
	Prices PriceSource
	Basis  AcquisitionBasis
}

// flow is the bitcoin leaving or entering an owned account.
type flow struct {
	account string
	qty     Quantity
}

// Classify returns the movements of a validated transaction, fees first.
//
// The bitcoin credited to fee accounts is taken from the owned outflows in
// posting order. The rest of the outflows depend on the transaction type:
// transfers between accounts of the same owner relocate lots, other
// transfers are spends, sells are disposals, sent gifts are removals. Owned
// inflows that were not relocated are acquisitions.
func (c Classifier) Classify(reg *Registry, tx Transaction) ([]Movement, error) {
	invalid := func(format string, args ...any) error {
		return &InvalidTransactionError{ID: tx.ID, Reason: fmt.Sprintf(format, args...)}
	}

	var outs, ins []flow
	for _, p := range tx.Postings {
		if p.Amount.Currency() != BTC || !reg.Owned(p.Account) {
			continue
		}
		switch q := p.Amount.Quantity(); {
		case q.IsNegative():
			outs = append(outs, flow{p.Account, q.Neg()})
		case q.IsPositive():
			ins = append(ins, flow{p.Account, q})
		}
	}

	pricer := &txPricer{tx: tx, src: c.Prices}

	fee := feePaid(reg, tx, BTC).Quantity()
	if fee.IsNegative() {
		return nil, invalid("bitcoin fee account is debited")
	}
	var fees []Movement
	for i := range outs {
		if !fee.IsPositive() {
			break
		}
		q := outs[i].qty.Min(fee)
		outs[i].qty, fee = outs[i].qty.Sub(q), fee.Sub(q)
		fees = append(fees, Movement{Kind: FeeDisposal, Account: outs[i].account, Quantity: q})
	}
	// a fee left over was not paid by the owner.

	var moves []Movement
	var err error
	switch tx.Type {
	case TxTransfer:
		moves = c.transfer(reg, tx, pricer, outs, ins)
	case TxSell:
		moves, err = c.sell(reg, tx, pricer, outs)
	case TxGiftSent:
		for _, out := range outs {
			if out.qty.IsPositive() {
				moves = append(moves, Movement{Kind: Removal, Account: out.account, Quantity: out.qty, Priced: true})
			}
		}
	case TxBuy, TxIncome, TxInterest, TxReward, TxGiftReceived:
		if total := sumFlows(outs); total.IsPositive() {
			err = invalid("a %s cannot send %s BTC from owned accounts", tx.Type, total)
		}
	default:
		err = invalid("unsupported transaction type %q", tx.Type)
	}
	if err != nil {
		return nil, err
	}

	var acquisitions []Movement
	switch tx.Type {
	case TxBuy:
		acquisitions, err = c.buy(reg, tx, pricer, ins)
	case TxTransfer, TxIncome, TxInterest, TxReward, TxGiftReceived:
		acquisitions = c.receive(tx, pricer, ins)
	case TxSell, TxGiftSent:
		if total := sumFlows(ins); total.IsPositive() {
			err = invalid("a %s cannot receive %s BTC in owned accounts", tx.Type, total)
		}
	default:
		err = invalid("unsupported transaction type %q", tx.Type)
	}
	if err != nil {
		return nil, err
	}

	for i := range fees {
		price, missing := pricer.get()
		fees[i].Amount = M(0, USD)
		fees[i].Priced = missing == nil
		if missing != nil {
			fees[i].PriceErr = missing
			continue
		}
		fees[i].Amount = price.Mul(fees[i].Quantity)
	}

	return append(append(fees, moves...), acquisitions...), nil
}

// transfer relocates the bitcoin moving between accounts of the same owner
// and returns the rest of the outflows as spends. ins is updated to what was
// not relocated.
func (c Classifier) transfer(reg *Registry, tx Transaction, pricer *txPricer, outs, ins []flow) []Movement {
	var moves []Movement
	for i := range outs {
		for j := range ins {
			if !outs[i].qty.IsPositive() {
				break
			}
			if !ins[j].qty.IsPositive() || !reg.SameOwner(outs[i].account, ins[j].account) {
				continue
			}
			q := outs[i].qty.Min(ins[j].qty)
			outs[i].qty, ins[j].qty = outs[i].qty.Sub(q), ins[j].qty.Sub(q)
			moves = append(moves, Movement{Kind: Relocation, Account: outs[i].account, To: ins[j].account, Quantity: q, Priced: true})
		}
	}

	spent := positiveFlows(outs)
	if len(spent) == 0 {
		return moves
	}
	proceeds, missing := c.value(tx.ProceedsUSD, pricer, spent)
	for i, out := range spent {
		moves = append(moves, Movement{Kind: Disposal, Account: out.account, Quantity: out.qty, Amount: proceeds[i], Priced: missing == nil, PriceErr: missing, Spend: true})
	}
	return moves
}

// sell disposes of the outflows for the USD received in owned accounts.
func (c Classifier) sell(reg *Registry, tx Transaction, pricer *txPricer, outs []flow) ([]Movement, error) {
	sold := positiveFlows(outs)
	total := sumFlows(sold)
	if !total.IsPositive() {
		return nil, &InvalidTransactionError{ID: tx.ID, Reason: "a sell must send bitcoin from an owned account"}
	}
	received := ownedNet(reg, tx, USD)
	if received.IsPositive() {
		pricer.implied = received.Div(total)
	}
	proceeds, missing := c.value(received, pricer, sold)
	moves := make([]Movement, 0, len(sold))
	for i, out := range sold {
		moves = append(moves, Movement{Kind: Disposal, Account: out.account, Quantity: out.qty, Amount: proceeds[i], Priced: missing == nil, PriceErr: missing})
	}
	return moves, nil
}

// buy acquires the inflows for the USD paid from owned accounts, fees
// included.
func (c Classifier) buy(reg *Registry, tx Transaction, pricer *txPricer, ins []flow) ([]Movement, error) {
	bought := positiveFlows(ins)
	if len(bought) == 0 {
		return nil, &InvalidTransactionError{ID: tx.ID, Reason: "a buy must credit bitcoin to an owned account"}
	}
	paid := ownedNet(reg, tx, USD).Neg()
	if !paid.IsPositive() {
		paid = Money{}
	}
	costs, missing := c.value(paid, pricer, bought)
	moves := make([]Movement, 0, len(bought))
	for i, in := range bought {
		moves = append(moves, Movement{Kind: Acquisition, Account: in.account, Quantity: in.qty, Amount: costs[i], FairValue: costs[i], Priced: missing == nil, PriceErr: missing})
	}
	return moves, nil
}

// receive acquires inflows that were not paid for, at fair value or at
// zero cost depending on the basis policy.
func (c Classifier) receive(tx Transaction, pricer *txPricer, ins []flow) []Movement {
	received := positiveFlows(ins)
	if len(received) == 0 {
		return nil
	}
	values, missing := c.value(tx.ValueUSD, pricer, received)
	moves := make([]Movement, 0, len(received))
	for i, in := range received {
		m := Movement{Kind: Acquisition, Account: in.account, Quantity: in.qty, FairValue: values[i], Amount: M(0, USD), Priced: missing == nil, PriceErr: missing}
		if c.Basis == FairValueBasis {
			m.Amount = values[i]
		} else {
			m.ZeroCost = true
		}
		moves = append(moves, m)
	}
	return moves
}

// value shares a pinned amount between the flows pro rata, or values them
// at the transaction price when the amount is zero. The values are zero when
// the price is missing, the returned error says why.
func (c Classifier) value(pinned Money, pricer *txPricer, flows []flow) ([]Money, error) {
	qs := make([]Quantity, len(flows))
	for i, f := range flows {
		qs[i] = f.qty
	}
	if !pinned.IsZero() {
		return allocate(pinned, qs), nil
	}
	price, missing := pricer.get()
	values := make([]Money, len(flows))
	for i, q := range qs {
		values[i] = M(0, USD)
		if missing == nil {
			values[i] = price.Mul(q)
		}
	}
	return values, missing
}

// allocate shares total between the quantities pro rata. The last share is
// the remainder so that the shares sum to total exactly.
func allocate(total Money, qs []Quantity) []Money {
	sum := Q(0)
	for _, q := range qs {
		sum = sum.Add(q)
	}
	shares := make([]Money, len(qs))
	left := total
	for i, q := range qs {
		if i == len(qs)-1 {
			shares[i] = left
			break
		}
		shares[i] = total.Mul(q).Div(sum)
		left = left.Sub(shares[i])
	}
	return shares
}

// ownedNet returns the sum of the postings of owned accounts in cur.
func ownedNet(reg *Registry, tx Transaction, cur Currency) Money {
	total := M(0, cur)
	for _, p := range tx.Postings {
		if p.Amount.Currency() == cur && reg.Owned(p.Account) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func sumFlows(flows []flow) Quantity {
	total := Q(0)
	for _, f := range flows {
		total = total.Add(f.qty)
	}
	return total
}

func positiveFlows(flows []flow) []flow {
	var res []flow
	for _, f := range flows {
		if f.qty.IsPositive() {
			res = append(res, f)
		}
	}
	return res
}

// txPricer resolves the BTC price of a transaction once: the pinned price,
// else the price implied by a sale, else the price source.
type txPricer struct {
	tx      Transaction
	src     PriceSource
	implied Money

	done  bool
	price Money
	err   error
}

// get returns the price. Any failure of the source is a missing price:
// the error is then a *PriceUnavailableError carrying the failure.
func (p *txPricer) get() (Money, error) {
	if !p.done {
		p.done = true
		switch {
		case !p.tx.PriceUSD.IsZero():
			p.price = p.tx.PriceUSD
		case !p.implied.IsZero():
			p.price = p.implied
		case p.src == nil:
			p.err = &PriceUnavailableError{At: p.tx.Time}
		default:
			var err error
			if p.price, err = p.src.PriceAt(p.tx.Time); err != nil {
				p.err = priceMissing(p.tx.Time, err)
			}
		}
	}
	if p.err != nil {
		return Money{}, p.err
	}
	return p.price, nil
}
