package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/btctax/renderer"
	"github.com/google/subcommands"
)

// lotsCmd holds the flags for the 'lots' subcommand.
type lotsCmd struct {
	date string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "display the lots held in each account" }
func (*lotsCmd) Usage() string {
	return `btctax lots [-d <date>]

  Displays the bitcoin held in each owned account on a given date, lot by lot
  in FIFO order, with their acquisition date, cost basis and holding term.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the holdings (YYYY-MM-DD), defaults to now.")
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	asOf, err := s.asOf(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	report, err := s.system.ProcessHistory(s.ledger.History(), asOf)
	if err != nil {
		return exitStatus(err)
	}

	printMarkdown(renderer.HoldingsMarkdown(report))
	return subcommands.ExitSuccess
}
