package btctax

import (
	"testing"
	"time"

	"github.com/etnz/btctax/date"
	"github.com/shopspring/decimal"
)

// testAccounts are owned by alice, except bob-wallet.
var testAccounts = []Account{
	NewAccount("bank", USD, Bank, "alice"),
	NewAccount("exchange", BTC, ExchangeBTC, "alice"),
	NewAccount("cold", BTC, Wallet, "alice"),
	NewAccount("bob-wallet", BTC, Wallet, "bob"),
	NewAccount("btc-fees", BTC, BTCFees, ""),
	NewAccount("usd-fees", USD, USDFees, ""),
	NewAccount("world-usd", USD, External, ""),
	NewAccount("world-btc", BTC, External, ""),
	NewAccount("mining", BTC, Income, ""),
}

// day returns noon UTC, n days after 2023-01-01.
func day(n int) time.Time {
	return time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// usd is a helper for test to create usd money from const
func usd(v string) Money { return Dollars(v) }

// btc is a helper for test to create bitcoin money from const
func btc(v string) Money { return Bitcoins(Q(v)) }

// fund deposits dollars in the bank.
func fund(id string, at time.Time, amount string) Transaction {
	return NewTransaction(id, at, TxTransfer, "deposit",
		P("world-usd", usd(amount).Neg()),
		P("bank", usd(amount)),
	)
}

// buy pays cost from the bank for qty received in account.
func buy(id string, at time.Time, account, qty, cost string) Transaction {
	return NewTransaction(id, at, TxBuy, "",
		P("bank", usd(cost).Neg()),
		P("world-usd", usd(cost)),
		P("world-btc", btc(qty).Neg()),
		P(account, btc(qty)),
	)
}

// sell sends qty from account for proceeds received in the bank.
func sell(id string, at time.Time, account, qty, proceeds string) Transaction {
	return NewTransaction(id, at, TxSell, "",
		P(account, btc(qty).Neg()),
		P("world-btc", btc(qty)),
		P("world-usd", usd(proceeds).Neg()),
		P("bank", usd(proceeds)),
	)
}

// transfer moves qty between two bitcoin accounts.
func transfer(id string, at time.Time, from, to, qty string) Transaction {
	return NewTransaction(id, at, TxTransfer, "",
		P(from, btc(qty).Neg()),
		P(to, btc(qty)),
	)
}

// earn credits qty from the mining account.
func earn(id string, at time.Time, typ TxType, account, qty string) Transaction {
	return NewTransaction(id, at, typ, "",
		P("mining", btc(qty).Neg()),
		P(account, btc(qty)),
	)
}

// pricesOf returns a price table with a price per day offset.
func pricesOf(prices map[int]string) *PriceTable {
	table := NewPriceTable()
	for n, p := range prices {
		table.Set(date.Of(day(n), nil), decimal.RequireFromString(p))
	}
	return table
}

func newTestSystem(t *testing.T, prices PriceSource, opts Options) *AccountingSystem {
	t.Helper()
	as, err := NewAccountingSystem(testAccounts, prices, opts)
	if err != nil {
		t.Fatalf("NewAccountingSystem() error = %v", err)
	}
	return as
}
