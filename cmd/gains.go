package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/btctax/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	date string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized and unrealized gains, income and fees" }
func (*gainsCmd) Usage() string {
	return `btctax gains [-d <date>]

  Replays the ledger up to the end of the given day (today by default) and
  displays the realized gains by holding term, the year to date gains, the
  income received, the fees paid and the unrealized gain of the bitcoin still
  held.

  Values that need a missing market price are displayed as n/a and the
  transactions concerned are listed.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the report (YYYY-MM-DD), defaults to now.")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	printMarkdown(renderer.GainsMarkdown(report))
	return subcommands.ExitSuccess
}
