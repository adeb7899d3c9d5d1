package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/btctax"
)

// GainsMarkdown renders the tax summary of a report.
func GainsMarkdown(r *btctax.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Report as of %s\n\n", day(r, r.AsOf))

	fmt.Fprint(&b, "## Realized Gains\n\n")
	fmt.Fprintln(&b, "| Term | Gains | Losses | Net |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	termRow(&b, "Short term", r.ShortTerm)
	termRow(&b, "Long term", r.LongTerm)
	fmt.Fprintf(&b, "| **%s** | | | **%s** |\n\n", "Total", signedEstimate(r.TotalNet))

	fmt.Fprintf(&b, "## Year to Date %d\n\n", r.Year)
	fmt.Fprintf(&b, "From %s to %s\n\n", r.YearToDate.Range.From, r.YearToDate.Range.To)
	fmt.Fprintln(&b, "| Term | Gains | Losses | Net |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	termRow(&b, "Short term", r.YearToDate.ShortTerm)
	termRow(&b, "Long term", r.YearToDate.LongTerm)
	fmt.Fprintf(&b, "| **%s** | | | **%s** |\n\n", "Total", signedEstimate(r.YearToDate.Total))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Income\n\n")
		fmt.Fprintln(w, "| Source | BTC | Value at Receipt |")
		fmt.Fprintln(w, "|:---|---:|---:|")
		printed := false
		for _, e := range []struct {
			name string
			e    btctax.Earnings
		}{
			{"Income", r.Income},
			{"Interest", r.Interest},
			{"Rewards", r.Rewards},
			{"Gifts received", r.GiftsReceived},
		} {
			if e.e.BTC.IsZero() {
				continue
			}
			fmt.Fprintf(w, "| %s | %s | %s |\n", e.name, e.e.BTC, estimate(e.e.USD))
			printed = true
		}
		fmt.Fprintf(w, "| **%s** | | **%s** |\n\n", "Total income", estimate(r.TotalIncome))
		return printed
	})

	fmt.Fprint(&b, "## Disposals\n\n")
	fmt.Fprintln(&b, "| | Amount |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Sell proceeds | %s |\n", estimate(r.SellProceeds))
	fmt.Fprintf(&b, "| Spent | %s |\n", estimate(r.Spent))
	fmt.Fprintf(&b, "| Gifts sent | %s BTC |\n", r.GiftsSent)
	fmt.Fprintf(&b, "| Fees | %s + %s BTC |\n", r.Fees.USD, r.Fees.BTC)
	fmt.Fprintf(&b, "| Fees equivalent | %s |\n\n", estimate(r.Fees.USDEquivalent))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Transactions\n\n")
		fmt.Fprintln(w, "| Date | ID | Type | BTC | Cost Basis | Proceeds | Gain | Term |")
		fmt.Fprintln(w, "|:---|:---|:---|---:|---:|---:|---:|:---|")
		for _, s := range r.Transactions {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				day(r, s.Time),
				s.ID,
				s.Type,
				s.Quantity,
				estimate(s.CostBasis),
				estimate(s.Proceeds),
				signedEstimate(s.Gain),
				s.Term,
			)
		}
		fmt.Fprintln(w)
		return len(r.Transactions) > 0
	})

	fmt.Fprint(&b, "## Unrealized\n\n")
	fmt.Fprintln(&b, "| Holding | Cost Basis | Market Value | Unrealized |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s BTC | %s | %s | %s |\n\n",
		r.TotalBTC,
		estimate(r.CostBasis),
		estimate(r.MarketValue),
		signedEstimate(r.Unrealized),
	)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Unpriced Transactions\n\n")
		fmt.Fprintln(w, "These transactions could not be valued, the totals depending on them are not available:")
		fmt.Fprintln(w)
		for _, id := range r.Unpriced {
			fmt.Fprintf(w, "- %s\n", id)
		}
		return len(r.Unpriced) > 0
	})

	return b.String()
}

func termRow(w io.Writer, name string, t btctax.TermTotals) {
	fmt.Fprintf(w, "| %s | %s | %s | %s |\n", name, estimate(t.Gains), estimate(t.Losses.Neg()), signedEstimate(t.Net))
}
