package renderer

import (
	"bytes"
	"io"
	"time"

	"github.com/etnz/btctax"
	"github.com/etnz/btctax/date"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// unavailable is printed instead of an estimate that could not be computed.
const unavailable = "n/a"

// estimate formats an estimate.
func estimate(e btctax.Estimate) string {
	m, ok := e.Value()
	if !ok {
		return unavailable
	}
	return m.String()
}

// signedEstimate formats an estimate with a sign.
func signedEstimate(e btctax.Estimate) string {
	m, ok := e.Value()
	if !ok {
		return unavailable
	}
	return m.SignedString()
}

// day formats the calendar day of t where the report counts days.
func day(r *btctax.Report, t time.Time) string {
	return date.Of(t, r.Rule.Location).String()
}
