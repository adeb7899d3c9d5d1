package btctax

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CommandType is a typed string identifying a line of the ledger file.
type CommandType string

// CmdAccount declares an account. Every other command is a TxType.
const CmdAccount CommandType = "account"

// TxType is the closed set of transaction kinds.
type TxType string

const (
	TxBuy          TxType = "buy"
	TxSell         TxType = "sell"
	TxTransfer     TxType = "transfer"
	TxIncome       TxType = "income"
	TxInterest     TxType = "interest"
	TxReward       TxType = "reward"
	TxGiftReceived TxType = "gift-received"
	TxGiftSent     TxType = "gift-sent"
)

// TxTypes lists every transaction kind.
var TxTypes = []TxType{TxBuy, TxSell, TxTransfer, TxIncome, TxInterest, TxReward, TxGiftReceived, TxGiftSent}

// ParseTxType parses a case insensitive transaction kind.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(TxTypes, t) {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

func (t TxType) String() string { return string(t) }

// Posting is one signed leg of a transaction. Positive amounts are credited
// to (received by) the account, negative ones are debited from it.
type Posting struct {
	Account string
	Amount  Money
}

// P is a shorthand for a posting.
func P(account string, amount Money) Posting { return Posting{Account: account, Amount: amount} }

// MarshalJSON implements the json.Marshaler interface for Posting.
func (p Posting) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("account", p.Account)
	w.EmbedFrom(p.Amount)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Posting.
func (p *Posting) UnmarshalJSON(data []byte) error {
	var temp struct {
		amountCmd
		Account string `json:"account"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	p.Account = temp.Account
	p.Amount = temp.Money()
	return nil
}

// Transaction is a balanced set of postings at a point in time.
//
// PriceUSD, ProceedsUSD and ValueUSD are optional, a zero amount means
// unknown.
type Transaction struct {
	ID       string
	Time     time.Time
	Type     TxType
	Postings []Posting
	Fee      Money // Fee is the total fee, it must match the fee account postings.
	// PriceUSD pins the BTC price at Time.
	PriceUSD Money
	// ProceedsUSD pins the proceeds of a spend.
	ProceedsUSD Money
	// ValueUSD pins the fair value of an acquisition that was not paid for.
	ValueUSD Money
	Memo     string
}

// NewTransaction creates a transaction from its postings.
func NewTransaction(id string, at time.Time, typ TxType, memo string, postings ...Posting) Transaction {
	return Transaction{ID: id, Time: at, Type: typ, Memo: memo, Postings: postings}
}

// WithFee returns a copy of the transaction declaring the fee.
func (t Transaction) WithFee(fee Money) Transaction {
	t.Fee = fee
	return t
}

// WithPrice returns a copy of the transaction with a pinned BTC price.
func (t Transaction) WithPrice(price Money) Transaction {
	t.PriceUSD = price
	return t
}

// WithProceeds returns a copy of the transaction with pinned spend proceeds.
func (t Transaction) WithProceeds(proceeds Money) Transaction {
	t.ProceedsUSD = proceeds
	return t
}

// WithValue returns a copy of the transaction with a pinned fair value.
func (t Transaction) WithValue(value Money) Transaction {
	t.ValueUSD = value
	return t
}

// Equal reports whether both transactions are identical.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Time.Equal(o.Time) && t.Type == o.Type && t.Memo == o.Memo &&
		t.Fee.Equal(o.Fee) && t.PriceUSD.Equal(o.PriceUSD) &&
		t.ProceedsUSD.Equal(o.ProceedsUSD) && t.ValueUSD.Equal(o.ValueUSD) &&
		slices.EqualFunc(t.Postings, o.Postings, func(a, b Posting) bool {
			return a.Account == b.Account && a.Amount.Equal(b.Amount)
		})
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", t.Type)
	w.Append("id", t.ID)
	w.Append("time", t.Time.UTC().Format(time.RFC3339))
	w.Append("postings", t.Postings)
	if !t.Fee.IsZero() {
		w.Append("fee", t.Fee)
	}
	if !t.PriceUSD.IsZero() {
		w.Append("price", t.PriceUSD.Decimal())
	}
	if !t.ProceedsUSD.IsZero() {
		w.Append("proceeds", t.ProceedsUSD.Decimal())
	}
	if !t.ValueUSD.IsZero() {
		w.Append("value", t.ValueUSD.Decimal())
	}
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
// Price, proceeds and value are USD amounts.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		Command  string     `json:"command"`
		ID       string     `json:"id"`
		Time     time.Time  `json:"time"`
		Postings []Posting  `json:"postings"`
		Fee      *amountCmd `json:"fee"`
		Price    *usdAmount `json:"price"`
		Proceeds *usdAmount `json:"proceeds"`
		Value    *usdAmount `json:"value"`
		Memo     string     `json:"memo"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	typ, err := ParseTxType(temp.Command)
	if err != nil {
		return err
	}
	*t = Transaction{
		ID:          temp.ID,
		Time:        temp.Time,
		Type:        typ,
		Postings:    temp.Postings,
		PriceUSD:    temp.Price.Money(),
		ProceedsUSD: temp.Proceeds.Money(),
		ValueUSD:    temp.Value.Money(),
		Memo:        temp.Memo,
	}
	if temp.Fee != nil {
		t.Fee = temp.Fee.Money()
	}
	return nil
}

// Sum returns the sum of the postings in cur.
func (t Transaction) Sum(cur Currency) Money {
	total := M(0, cur)
	for _, p := range t.Postings {
		if p.Amount.Currency() == cur {
			total = total.Add(p.Amount)
		}
	}
	return total
}
