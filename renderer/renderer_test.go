package renderer

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/etnz/btctax"
	"github.com/etnz/btctax/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var testAccounts = []btctax.Account{
	btctax.NewAccount("bank", btctax.USD, btctax.Bank, "alice"),
	btctax.NewAccount("exchange", btctax.BTC, btctax.ExchangeBTC, "alice"),
	btctax.NewAccount("cold", btctax.BTC, btctax.Wallet, "alice"),
	btctax.NewAccount("mining", btctax.BTC, btctax.Income, ""),
	btctax.NewAccount("world-usd", btctax.USD, btctax.External, ""),
	btctax.NewAccount("world-btc", btctax.BTC, btctax.External, ""),
}

// day returns noon UTC, n days after 2023-01-01.
func day(n int) time.Time {
	return time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buy(id string, at time.Time, qty, cost string) btctax.Transaction {
	return btctax.NewTransaction(id, at, btctax.TxBuy, "",
		btctax.P("bank", btctax.Dollars(cost).Neg()),
		btctax.P("world-usd", btctax.Dollars(cost)),
		btctax.P("world-btc", btctax.Bitcoins(btctax.Q(qty)).Neg()),
		btctax.P("exchange", btctax.Bitcoins(btctax.Q(qty))),
	)
}

// testReport buys 1 BTC on day 0 and day 100 then sells 1.5 on 2024-02-05.
func testReport(t *testing.T, extra ...btctax.Transaction) *btctax.Report {
	t.Helper()
	history := []btctax.Transaction{
		btctax.NewTransaction("f1", day(0), btctax.TxTransfer, "deposit",
			btctax.P("world-usd", btctax.Dollars("-100000")),
			btctax.P("bank", btctax.Dollars("100000")),
		),
		buy("b1", day(0), "1", "20000"),
		buy("b2", day(100), "1", "30000"),
		btctax.NewTransaction("s1", day(400), btctax.TxSell, "",
			btctax.P("exchange", btctax.Bitcoins(btctax.Q("-1.5"))),
			btctax.P("world-btc", btctax.Bitcoins(btctax.Q("1.5"))),
			btctax.P("world-usd", btctax.Dollars("-60000")),
			btctax.P("bank", btctax.Dollars("60000")),
		),
	}
	history = append(history, extra...)
	prices := btctax.NewPriceTable().Set(date.New(2024, time.February, 5), decimal.NewFromInt(40000))
	as, err := btctax.NewAccountingSystem(testAccounts, prices, btctax.Options{})
	if err != nil {
		t.Fatalf("NewAccountingSystem() error = %v", err)
	}
	r, err := as.ProcessHistory(history, day(400))
	if err != nil {
		t.Fatalf("ProcessHistory() error = %v", err)
	}
	return r
}

// tables parses the markdown and returns the cells of each table, indexed by
// the title of the heading above it.
func tables(t *testing.T, md string) map[string][][]string {
	t.Helper()
	source := []byte(md)
	doc := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	res := make(map[string][][]string)
	heading := ""
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			heading = plain(n, source)
			return ast.WalkSkipChildren, nil
		case *east.Table:
			var rows [][]string
			for row := n.FirstChild(); row != nil; row = row.NextSibling() {
				var cells []string
				for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
					cells = append(cells, plain(cell, source))
				}
				rows = append(rows, cells)
			}
			res[heading] = rows
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walking markdown: %v", err)
	}
	return res
}

// plain concatenates the text below n, dropping the emphasis.
func plain(n ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func TestGainsMarkdown(t *testing.T) {
	md := GainsMarkdown(testReport(t))
	got := tables(t, md)

	want := map[string][][]string{
		"Realized Gains": {
			{"Term", "Gains", "Losses", "Net"},
			{"Short term", "$5,000.00", "$0.00", "+$5,000.00"},
			{"Long term", "$20,000.00", "$0.00", "+$20,000.00"},
			{"Total", "", "", "+$25,000.00"},
		},
		"Year to Date 2024": {
			{"Term", "Gains", "Losses", "Net"},
			{"Short term", "$5,000.00", "$0.00", "+$5,000.00"},
			{"Long term", "$20,000.00", "$0.00", "+$20,000.00"},
			{"Total", "", "", "+$25,000.00"},
		},
		"Disposals": {
			{"", "Amount"},
			{"Sell proceeds", "$60,000.00"},
			{"Spent", "$0.00"},
			{"Gifts sent", "0.00000000 BTC"},
			{"Fees", "$0.00 + 0.00000000 BTC"},
			{"Fees equivalent", "$0.00"},
		},
		"Transactions": {
			{"Date", "ID", "Type", "BTC", "Cost Basis", "Proceeds", "Gain", "Term"},
			{"2024-02-05", "s1", "sell", "1.50000000", "$35,000.00", "$60,000.00", "+$25,000.00", "long"},
		},
		"Unrealized": {
			{"Holding", "Cost Basis", "Market Value", "Unrealized"},
			{"0.50000000 BTC", "$15,000.00", "$20,000.00", "+$5,000.00"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GainsMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(md, "# Capital Gains Report as of 2024-02-05\n") {
		t.Errorf("GainsMarkdown() title = %q", strings.SplitN(md, "\n", 2)[0])
	}
	if strings.Contains(md, "Unpriced") {
		t.Errorf("GainsMarkdown() lists unpriced transactions for a fully priced history:\n%s", md)
	}
}

func TestGainsMarkdown_Unpriced(t *testing.T) {
	// no price on day 5, the interest value is unknown.
	interest := btctax.NewTransaction("i1", day(5), btctax.TxInterest, "",
		btctax.P("mining", btctax.Bitcoins(btctax.Q("-0.01"))),
		btctax.P("cold", btctax.Bitcoins(btctax.Q("0.01"))),
	)
	md := GainsMarkdown(testReport(t, interest))
	got := tables(t, md)

	want := [][]string{
		{"Source", "BTC", "Value at Receipt"},
		{"Interest", "0.01000000", unavailable},
		{"Total income", "", unavailable},
	}
	if diff := cmp.Diff(want, got["Income"]); diff != "" {
		t.Errorf("Income table mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(md, "## Unpriced Transactions") || !strings.Contains(md, "- i1\n") {
		t.Errorf("GainsMarkdown() does not list i1 as unpriced:\n%s", md)
	}
}

func TestGainsMarkdown_UnpricedDisposal(t *testing.T) {
	// the interest has no price, spending it in 2023 has no known gain.
	interest := btctax.NewTransaction("i1", day(5), btctax.TxInterest, "",
		btctax.P("mining", btctax.Bitcoins(btctax.Q("-0.01"))),
		btctax.P("cold", btctax.Bitcoins(btctax.Q("0.01"))),
	)
	spend := btctax.NewTransaction("p1", day(6), btctax.TxTransfer, "",
		btctax.P("cold", btctax.Bitcoins(btctax.Q("-0.01"))),
		btctax.P("world-btc", btctax.Bitcoins(btctax.Q("0.01"))),
	)
	got := tables(t, GainsMarkdown(testReport(t, interest, spend)))

	want := map[string][][]string{
		"Realized Gains": {
			{"Term", "Gains", "Losses", "Net"},
			{"Short term", unavailable, unavailable, unavailable},
			{"Long term", "$20,000.00", "$0.00", "+$20,000.00"},
			{"Total", "", "", unavailable},
		},
		"Year to Date 2024": {
			{"Term", "Gains", "Losses", "Net"},
			{"Short term", "$5,000.00", "$0.00", "+$5,000.00"},
			{"Long term", "$20,000.00", "$0.00", "+$20,000.00"},
			{"Total", "", "", "+$25,000.00"},
		},
	}
	for title, rows := range want {
		if diff := cmp.Diff(rows, got[title]); diff != "" {
			t.Errorf("%s table mismatch (-want +got):\n%s", title, diff)
		}
	}
}

func TestHoldingsMarkdown_UnknownCost(t *testing.T) {
	interest := btctax.NewTransaction("i1", day(5), btctax.TxInterest, "",
		btctax.P("mining", btctax.Bitcoins(btctax.Q("-0.01"))),
		btctax.P("cold", btctax.Bitcoins(btctax.Q("0.01"))),
	)
	got := tables(t, HoldingsMarkdown(testReport(t, interest)))

	want := [][]string{
		{"Acquired", "Source", "BTC", "Cost", "Unit Cost", "Term"},
		{"2023-01-06", "i1", "0.01000000", unavailable, unavailable, "long"},
	}
	if diff := cmp.Diff(want, got["cold"]); diff != "" {
		t.Errorf("cold lots mismatch (-want +got):\n%s", diff)
	}
	if total := got["Holdings as of 2024-02-05"]; len(total) == 0 || total[len(total)-1][3] != unavailable {
		t.Errorf("Holdings total = %v, want an unavailable cost basis", total)
	}
}

func TestHoldingsMarkdown(t *testing.T) {
	got := tables(t, HoldingsMarkdown(testReport(t)))

	want := map[string][][]string{
		"Holdings as of 2024-02-05": {
			{"Account", "Owner", "BTC", "Cost Basis"},
			{"exchange", "alice", "0.50000000", "$15,000.00"},
			{"Total", "", "0.50000000", "$15,000.00"},
		},
		"exchange": {
			{"Acquired", "Source", "BTC", "Cost", "Unit Cost", "Term"},
			{"2023-04-11", "b2", "0.50000000", "$15,000.00", "$30,000.00", "short"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HoldingsMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestForm8949Markdown(t *testing.T) {
	got := tables(t, Form8949Markdown(testReport(t), 2024))

	want := map[string][][]string{
		"Part I Short-Term": {
			{"Description", "Acquired", "Sold", "Proceeds", "Cost Basis", "Gain or Loss"},
			{"0.50000000 BTC (s1)", "2023-04-11", "2024-02-05", "$20,000.00", "$15,000.00", "+$5,000.00"},
			{"Total", "", "", "$20,000.00", "$15,000.00", "+$5,000.00"},
		},
		"Part II Long-Term": {
			{"Description", "Acquired", "Sold", "Proceeds", "Cost Basis", "Gain or Loss"},
			{"1.00000000 BTC (s1)", "2023-01-01", "2024-02-05", "$40,000.00", "$20,000.00", "+$20,000.00"},
			{"Total", "", "", "$40,000.00", "$20,000.00", "+$20,000.00"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Form8949Markdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestForm8949Markdown_EmptyYear(t *testing.T) {
	md := Form8949Markdown(testReport(t), 2023)
	if !strings.Contains(md, "No taxable disposal in 2023.") {
		t.Errorf("Form8949Markdown(2023) = %q, want the empty notice", md)
	}
	if got := tables(t, md); len(got) != 0 {
		t.Errorf("Form8949Markdown(2023) tables = %v, want none", got)
	}
}

func TestConditionalBlock(t *testing.T) {
	var b strings.Builder
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintln(w, "discarded")
		return false
	})
	if b.Len() != 0 {
		t.Errorf("ConditionalBlock() wrote %q for a discarded block", b.String())
	}
}
