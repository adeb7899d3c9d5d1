package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/btctax"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "btctax.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLedger() *btctax.Ledger {
	at := time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)
	ledger := btctax.NewLedger()
	ledger.Declare(
		btctax.NewAccount("bank", btctax.USD, btctax.Bank, "alice"),
		btctax.NewAccount("cold", btctax.BTC, btctax.Wallet, "alice"),
		btctax.NewAccount("btc-fees", btctax.BTC, btctax.BTCFees, ""),
		btctax.NewAccount("world-usd", btctax.USD, btctax.External, ""),
		btctax.NewAccount("world-btc", btctax.BTC, btctax.External, ""),
	)
	ledger.Append(
		btctax.NewTransaction("b1", at, btctax.TxBuy, "first buy",
			btctax.P("bank", btctax.Dollars("-20000.01")),
			btctax.P("world-usd", btctax.Dollars("20000.01")),
			btctax.P("world-btc", btctax.Bitcoins(btctax.Q("-0.12345678"))),
			btctax.P("cold", btctax.Bitcoins(btctax.Q("0.12345678"))),
		).WithPrice(btctax.Dollars("162000.5")),
		// same time as b1, inserted later.
		btctax.NewTransaction("p1", at, btctax.TxTransfer, "",
			btctax.P("cold", btctax.Bitcoins(btctax.Q("-0.01"))),
			btctax.P("btc-fees", btctax.Bitcoins(btctax.Q("0.0001"))),
			btctax.P("world-btc", btctax.Bitcoins(btctax.Q("0.0099"))),
		).WithFee(btctax.Bitcoins(btctax.Q("0.0001"))).WithProceeds(btctax.Dollars("1600")),
		btctax.NewTransaction("f1", at.Add(-time.Hour), btctax.TxTransfer, "",
			btctax.P("world-usd", btctax.Dollars("-30000")),
			btctax.P("bank", btctax.Dollars("30000")),
		),
	)
	return ledger
}

func TestStore_Ledger(t *testing.T) {
	s := openTestStore(t)
	want := testLedger()
	if err := s.SaveLedger(want); err != nil {
		t.Fatalf("SaveLedger() error = %v", err)
	}

	got, err := s.Ledger()
	if err != nil {
		t.Fatalf("Ledger() error = %v", err)
	}

	if n := len(got.Accounts()); n != 5 {
		t.Errorf("Accounts() has %d accounts, want 5", n)
	}
	for _, a := range want.Accounts() {
		if g := got.Account(a.ID); g == nil || *g != a {
			t.Errorf("Account(%s) = %v, want %v", a.ID, g, a)
		}
	}

	gotTxs, wantTxs := got.History(), want.History()
	if len(gotTxs) != len(wantTxs) {
		t.Fatalf("History() has %d transactions, want %d", len(gotTxs), len(wantTxs))
	}
	for i := range wantTxs {
		if !gotTxs[i].Equal(wantTxs[i]) {
			t.Errorf("transaction %d = %+v, want %+v", i, gotTxs[i], wantTxs[i])
		}
	}
	if err := got.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestStore_Replace(t *testing.T) {
	s := openTestStore(t)
	ledger := testLedger()
	if err := s.SaveLedger(ledger); err != nil {
		t.Fatalf("SaveLedger() error = %v", err)
	}

	// saving again replaces the records.
	tx := ledger.History()[0]
	tx.Memo = "edited"
	tx.Postings = tx.Postings[:2]
	tx.Postings[0].Amount = btctax.Dollars("-1")
	tx.Postings[1].Amount = btctax.Dollars("1")
	if err := s.SaveTransactions(tx); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}
	if err := s.SaveLedger(btctax.NewLedger()); err != nil {
		t.Fatalf("SaveLedger(empty) error = %v", err)
	}

	txs, err := s.Transactions()
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("Transactions() = %d transactions, want 3", len(txs))
	}
	if !txs[0].Equal(tx) {
		t.Errorf("Transactions()[0] = %+v, want %+v", txs[0], tx)
	}
}

func TestStore_ForeignKeys(t *testing.T) {
	s := openTestStore(t)
	tx := btctax.NewTransaction("x", time.Now(), btctax.TxTransfer, "",
		btctax.P("nowhere", btctax.Dollars("-1")),
		btctax.P("elsewhere", btctax.Dollars("1")),
	)
	if err := s.SaveTransactions(tx); err == nil {
		t.Fatal("SaveTransactions() error = nil for undeclared accounts")
	}
	txs, err := s.Transactions()
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Transactions() = %v, want the failed save rolled back", txs)
	}
}
