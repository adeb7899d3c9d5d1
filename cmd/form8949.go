package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/btctax/renderer"
	"github.com/google/subcommands"
)

// form8949Cmd holds the flags for the 'form8949' subcommand.
type form8949Cmd struct {
	year int
}

func (*form8949Cmd) Name() string     { return "form8949" }
func (*form8949Cmd) Synopsis() string { return "list the taxable disposals of a tax year" }
func (*form8949Cmd) Usage() string {
	return `btctax form8949 [-y <year>]

  Lists every taxable disposal of the year, one line per lot consumed, split
  into short-term (Part I) and long-term (Part II) like the IRS Form 8949.
`
}

func (c *form8949Cmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "y", time.Now().Year()-1, "Tax year, defaults to last year.")
}

func (c *form8949Cmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}
	asOf, err := s.asOf(fmt.Sprintf("%d-12-31", c.year))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing year: %v\n", err)
		return subcommands.ExitUsageError
	}

	report, err := s.system.ProcessHistory(s.ledger.History(), asOf)
	if err != nil {
		return exitStatus(err)
	}

	printMarkdown(renderer.Form8949Markdown(report, c.year))
	return subcommands.ExitSuccess
}
