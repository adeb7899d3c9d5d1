package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/btctax"
	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validates the ledger and replays its history" }
func (*checkCmd) Usage() string {
	return `btctax check

  Validates the account declarations and every transaction of the ledger,
  then replays the history in chronological order. The replay stops at the
  first transaction that cannot be applied (overdrawn account, missing lots)
  and reports the last transaction that was applied successfully.

Usage Examples:
$ btctax check
$ btctax -db btctax.db check
`
}

func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession()
	if err != nil {
		return exitStatus(err)
	}

	if err := s.ledger.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Ledger is invalid:\n%v\n", err)
		return subcommands.ExitFailure
	}

	history := s.ledger.History()
	slices.SortStableFunc(history, func(a, b btctax.Transaction) int { return a.Time.Compare(b.Time) })
	book := s.system.NewBook()
	for _, tx := range history {
		if _, err := book.Apply(tx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if cp := book.Checkpoint(); cp != "" {
				fmt.Fprintf(os.Stderr, "Last valid transaction: %q\n", cp)
			} else {
				fmt.Fprintln(os.Stderr, "No transaction could be applied.")
			}
			return subcommands.ExitFailure
		}
	}

	fmt.Printf("✅ %d accounts and %d transactions are valid.\n", len(s.ledger.Accounts()), s.ledger.Len())
	return subcommands.ExitSuccess
}
