package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/btctax"
)

// HoldingsMarkdown renders the lots still held in each owned account.
func HoldingsMarkdown(r *btctax.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings as of %s\n\n", day(r, r.AsOf))

	fmt.Fprintln(&b, "| Account | Owner | BTC | Cost Basis |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|")
	for _, h := range r.Holdings {
		if h.Quantity.IsZero() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", h.Account, h.Owner, h.Quantity, estimate(h.Basis))
	}
	fmt.Fprintf(&b, "| **%s** | | **%s** | **%s** |\n\n", "Total", r.TotalBTC, estimate(r.CostBasis))

	for _, h := range r.Holdings {
		ConditionalBlock(&b, func(w io.Writer) bool {
			fmt.Fprintf(w, "## %s\n\n", h.Account)
			fmt.Fprintln(w, "| Acquired | Source | BTC | Cost | Unit Cost | Term |")
			fmt.Fprintln(w, "|:---|:---|---:|---:|---:|:---|")
			for _, l := range h.Lots {
				fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
					day(r, l.AcquiredAt),
					l.Source,
					l.Remaining,
					estimate(l.Cost),
					estimate(l.UnitCost()),
					termAt(r, l),
				)
			}
			fmt.Fprintln(w)
			return len(h.Lots) > 0
		})
	}
	return b.String()
}

// termAt is the term a lot would have if disposed of at the report date.
func termAt(r *btctax.Report, l btctax.Lot) btctax.Term {
	return r.Rule.Term(l.AcquiredAt, r.AsOf)
}
