package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/btctax"
	"github.com/etnz/btctax/date"
)

// Form8949Markdown renders the taxable disposals of a tax year, one row per
// lot portion, split by term like the Form 8949 parts.
func Form8949Markdown(r *btctax.Report, year int) string {
	var short, long []btctax.DisposalPortion
	for _, p := range r.Disposals {
		if !p.Taxable || date.Of(p.DisposedAt, r.Rule.Location).Year() != year {
			continue
		}
		if p.Term == btctax.Long {
			long = append(long, p)
		} else {
			short = append(short, p)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Form 8949 %d\n\n", year)
	if len(short) == 0 && len(long) == 0 {
		fmt.Fprintf(&b, "No taxable disposal in %d.\n", year)
		return b.String()
	}
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Part I Short-Term\n\n")
		form8949Table(w, r, short)
		return len(short) > 0
	})
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Part II Long-Term\n\n")
		form8949Table(w, r, long)
		return len(long) > 0
	})
	return b.String()
}

func form8949Table(w io.Writer, r *btctax.Report, portions []btctax.DisposalPortion) {
	fmt.Fprintln(w, "| Description | Acquired | Sold | Proceeds | Cost Basis | Gain or Loss |")
	fmt.Fprintln(w, "|:---|:---|:---|---:|---:|---:|")
	zero := btctax.Known(btctax.M(0, btctax.USD))
	proceeds, basis, gain := zero, zero, zero
	for _, p := range portions {
		fmt.Fprintf(w, "| %s BTC (%s) | %s | %s | %s | %s | %s |\n",
			p.Quantity,
			p.TransactionID,
			day(r, p.AcquiredAt),
			day(r, p.DisposedAt),
			estimate(p.Proceeds),
			estimate(p.CostBasis),
			signedEstimate(p.Gain),
		)
		proceeds = proceeds.Add(p.Proceeds)
		basis = basis.Add(p.CostBasis)
		gain = gain.Add(p.Gain)
	}
	fmt.Fprintf(w, "| **Total** | | | **%s** | **%s** | **%s** |\n\n", estimate(proceeds), estimate(basis), signedEstimate(gain))
}
