package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/btctax"
	"github.com/google/subcommands"
)

// averageCmd holds the flags for the 'average' subcommand.
type averageCmd struct {
	date string
}

func (*averageCmd) Name() string { return "average" }
func (*averageCmd) Synopsis() string {
	return "average cost of one bitcoin held and the unrealized gain at that cost"
}
func (*averageCmd) Usage() string {
	return `btctax average [-d <date>]

  Computes the average cost of one bitcoin held in the owned accounts. Every
  acquisition adds to a single cost pool and every disposal removes its share
  at the average cost. When a price is known for the date, the unrealized gain
  of the holdings at that average cost is displayed too.
`
}

func (c *averageCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the valuation (YYYY-MM-DD), defaults to now.")
}

func (c *averageCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	asOf, err := s.asOf(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	// an acquisition with no known cost leaves the average unavailable.
	average, avgErr := s.system.AverageCostBasis(s.ledger.History(), asOf)
	if avgErr != nil && !errors.Is(avgErr, btctax.ErrPriceUnavailable) {
		return exitStatus(avgErr)
	}
	report, err := s.system.ProcessHistory(s.ledger.History(), asOf)
	if err != nil {
		return exitStatus(err)
	}

	fmt.Printf("Holding:      %s BTC\n", report.TotalBTC)
	if avgErr != nil {
		fmt.Printf("Average cost: n/a (%v)\n", avgErr)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Average cost: %s\n", average)
	if s.prices == nil {
		return subcommands.ExitSuccess
	}
	price, err := s.prices.PriceAt(asOf)
	if errors.Is(err, btctax.ErrPriceUnavailable) {
		fmt.Printf("Unrealized:   n/a (%v)\n", err)
		return subcommands.ExitSuccess
	}
	if err != nil {
		return exitStatus(err)
	}
	fmt.Printf("Price:        %s\n", price)
	fmt.Printf("Unrealized:   %s\n", btctax.UnrealizedGain(average, price, report.TotalBTC).SignedString())
	return subcommands.ExitSuccess
}
