package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `btctax fmt

  Validates and formats the ledger file. This command reads the accounts and
  the transactions, validates them, sorts the transactions by time, and writes
  them back in a canonical JSONL format.

Usage Examples:
# Formats the configured ledger file in-place.
$ btctax fmt

`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (*fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return exitStatus(err)
	}
	cfg.Database = "" // fmt works on the file only.

	ledger, err := DecodeLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load ledger %q: %v\n", cfg.Ledger, err)
		return subcommands.ExitFailure
	}
	if err := ledger.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Ledger %q is invalid:\n%v\n", cfg.Ledger, err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(cfg, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving formatted ledger %q: %v\n", cfg.Ledger, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "✅ Successfully formatted ledger %q.\n", cfg.Ledger)
	return subcommands.ExitSuccess
}
