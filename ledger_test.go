package btctax

import (
	"errors"
	"slices"
	"testing"
)

func TestLedger_Transactions(t *testing.T) {
	ledger := NewLedger()
	ledger.Declare(testAccounts...)
	ledger.Append(
		buy("b1", day(5), "exchange", "1", "20000"),
		fund("f1", day(0), "100000"),
		transfer("t1", day(10), "exchange", "cold", "0.3"),
		earn("m1", day(10), TxIncome, "cold", "0.01"),
	)

	testCases := []struct {
		name    string
		filters []func(Transaction) bool
		want    []string
	}{
		{name: "all", want: []string{"f1", "b1", "t1", "m1"}},
		{name: "by type", filters: []func(Transaction) bool{ByType(TxTransfer)}, want: []string{"f1", "t1"}},
		{name: "by account", filters: []func(Transaction) bool{ByAccount("cold")}, want: []string{"t1", "m1"}},
		{name: "any filter", filters: []func(Transaction) bool{ByType(TxBuy), ByType(TxIncome)}, want: []string{"b1", "m1"}},
		{name: "none", filters: []func(Transaction) bool{ByAccount("bob-wallet")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, tx := range ledger.Transactions(tc.filters...) {
				got = append(got, tx.ID)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("Transactions() = %v, want %v", got, tc.want)
			}
		})
	}

	if got := ledger.OldestTransactionTime(); !got.Equal(day(0)) {
		t.Errorf("OldestTransactionTime() = %v, want %v", got, day(0))
	}
	if got := ledger.NewestTransactionTime(); !got.Equal(day(10)) {
		t.Errorf("NewestTransactionTime() = %v, want %v", got, day(10))
	}
	if acc := ledger.Account("nowhere"); acc != nil {
		t.Errorf("Account(nowhere) = %v, want nil", acc)
	}
}

func TestLedger_Check(t *testing.T) {
	ledger := NewLedger()
	ledger.Declare(testAccounts...)
	ledger.Append(
		fund("f1", day(0), "100"),
		fund("f1", day(1), "100"),
		transfer("t1", day(2), "exchange", "moon", "1"),
	)
	err := ledger.Check()
	if err == nil {
		t.Fatal("Check() error = nil, want errors")
	}
	var unknown *UnknownAccountError
	if !errors.As(err, &unknown) || unknown.Account != "moon" {
		t.Errorf("Check() error = %v, want an unknown account", err)
	}

	invalid := NewLedger()
	invalid.Declare(NewAccount("bank", USD, Bank, ""))
	if err := invalid.Check(); err == nil {
		t.Error("Check() error = nil for a bank without owner")
	}

	empty := NewLedger()
	if err := empty.Check(); err != nil {
		t.Errorf("Check() on an empty ledger error = %v", err)
	}
	if !empty.OldestTransactionTime().IsZero() {
		t.Errorf("OldestTransactionTime() = %v, want zero", empty.OldestTransactionTime())
	}
}
