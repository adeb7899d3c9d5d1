package btctax

import (
	"errors"
	"testing"
)

func TestAverageCostBasis(t *testing.T) {
	txs := []Transaction{
		fund("f1", day(0), "100000"),
		buy("b1", day(0), "exchange", "1", "20000"),
		buy("b2", day(100), "exchange", "1", "30000"),
		earn("m1", day(150), TxIncome, "cold", "1"),
		transfer("t1", day(160), "cold", "exchange", "1"),
		sell("s1", day(400), "exchange", "1.5", "60000"),
	}

	testCases := []struct {
		name  string
		txs   []Transaction
		basis AcquisitionBasis
		want  Money
	}{
		{"nothing", nil, FairValueBasis, usd("0")},
		{"first buy", txs[:2], FairValueBasis, usd("20000")},
		{"both buys", txs[:3], FairValueBasis, usd("25000")},
		// free bitcoin does not change the average, neither does a transfer
		// or a sale.
		{"with free bitcoin", txs[:5], ZeroBasis, usd("25000")},
		{"after the sale", txs, ZeroBasis, usd("25000")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AverageCostBasis(testAccounts, tc.txs, nil, tc.basis)
			if err != nil {
				t.Fatalf("AverageCostBasis() error = %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("AverageCostBasis() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAverageCostBasis_Rounding(t *testing.T) {
	txs := []Transaction{
		fund("f1", day(0), "100000"),
		buy("b1", day(0), "exchange", "0.3", "10000"),
	}
	got, err := AverageCostBasis(testAccounts, txs, nil, FairValueBasis)
	if err != nil {
		t.Fatalf("AverageCostBasis() error = %v", err)
	}
	if !got.Equal(usd("33333.33")) {
		t.Errorf("AverageCostBasis() = %v, want 33333.33", got)
	}
}

func TestAverageCostBasis_Underflow(t *testing.T) {
	txs := []Transaction{
		fund("f1", day(0), "100000"),
		buy("b1", day(0), "exchange", "1", "20000"),
		sell("s1", day(1), "exchange", "2", "50000"),
	}
	_, err := AverageCostBasis(testAccounts, txs, nil, FairValueBasis)
	var txErr *TransactionError
	if !errors.As(err, &txErr) || txErr.ID != "s1" {
		t.Fatalf("AverageCostBasis() error = %v, want a TransactionError for s1", err)
	}
	var underflow *LotUnderflowError
	if !errors.As(err, &underflow) {
		t.Errorf("AverageCostBasis() error = %v, want LotUnderflowError", err)
	}
}

func TestAverageCostBasis_UnpricedAcquisition(t *testing.T) {
	txs := []Transaction{
		fund("f1", day(0), "100000"),
		buy("b1", day(0), "exchange", "1", "20000"),
		earn("m1", day(150), TxIncome, "cold", "1"),
	}
	// at fair value the income has no known cost without a price.
	_, err := AverageCostBasis(testAccounts, txs, nil, FairValueBasis)
	var txErr *TransactionError
	if !errors.As(err, &txErr) || txErr.ID != "m1" {
		t.Fatalf("AverageCostBasis() error = %v, want a TransactionError for m1", err)
	}
	var missing *PriceUnavailableError
	if !errors.As(err, &missing) || !missing.At.Equal(day(150)) {
		t.Errorf("AverageCostBasis() error = %v, want a PriceUnavailableError at day 150", err)
	}

	prices := pricesOf(map[int]string{150: "40000"})
	got, err := AverageCostBasis(testAccounts, txs, prices, FairValueBasis)
	if err != nil {
		t.Fatalf("AverageCostBasis() with a price error = %v", err)
	}
	if !got.Equal(usd("30000")) {
		t.Errorf("AverageCostBasis() = %v, want 30000", got)
	}
}

func TestUnrealizedGain(t *testing.T) {
	testCases := []struct {
		average, price Money
		total          Quantity
		want           Money
	}{
		{usd("25000"), usd("40000"), Q("1.5"), usd("22500")},
		{usd("25000"), usd("20000"), Q("0.5"), usd("-2500")},
		{usd("25000"), usd("40000"), Q(0), usd("0")},
	}
	for _, tc := range testCases {
		if got := UnrealizedGain(tc.average, tc.price, tc.total); !got.Equal(tc.want) {
			t.Errorf("UnrealizedGain(%v, %v, %v) = %v, want %v", tc.average, tc.price, tc.total, got, tc.want)
		}
	}
}
