package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/etnz/btctax"
	"github.com/etnz/btctax/config"
	"github.com/etnz/btctax/store"
	"github.com/google/subcommands"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	days int
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "imports prices or transactions from an external source" }
func (*importCmd) Usage() string {
	return `btctax import <source> [<file>]

Imports data from an external source.

Supported sources:
  - coingecko:    downloads the last daily BTC/USD prices from CoinGecko and
                  merges them into the price file.
  - chart <file>: merges a CoinGecko market_chart JSON export into the price
                  file.
  - ledger:       copies the accounts and transactions of the ledger file
                  into the sqlite database given by -db.

Usage Examples:
$ btctax import -days 90 coingecko
$ btctax import chart bitcoin-usd-max.json
$ btctax -db btctax.db import ledger
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 365, "Number of days of prices to download from coingecko.")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a source is required")
		return subcommands.ExitUsageError
	}
	cfg, err := LoadConfig()
	if err != nil {
		return exitStatus(err)
	}

	switch source := f.Arg(0); source {
	case "coingecko":
		table, err := btctax.FetchCoinGeckoChart(c.days)
		if err != nil {
			return exitStatus(err)
		}
		err = mergePrices(cfg, table)
		if err != nil {
			return exitStatus(err)
		}
	case "chart":
		if f.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "Error: chart requires a file")
			return subcommands.ExitUsageError
		}
		r, err := os.Open(f.Arg(1))
		if err != nil {
			return exitStatus(err)
		}
		defer r.Close()
		table, err := btctax.DecodeCoinGeckoChart(r)
		if err != nil {
			return exitStatus(fmt.Errorf("error decoding %q: %w", f.Arg(1), err))
		}
		if err := mergePrices(cfg, table); err != nil {
			return exitStatus(err)
		}
	case "ledger":
		if err := importLedger(cfg); err != nil {
			return exitStatus(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown source %q\n", source)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

// mergePrices adds the imported prices to the price file, imported prices
// win over the ones already known.
func mergePrices(cfg *config.Config, imported *btctax.PriceTable) error {
	prices, err := DecodePrices(cfg, nil)
	if err != nil {
		return err
	}
	if prices == nil {
		prices = btctax.NewPriceTable()
	}
	before := prices.Len()
	for day, price := range imported.Prices {
		prices.Set(day, price)
	}
	if err := EncodePrices(cfg, prices); err != nil {
		return err
	}
	log.Printf("imported %d prices, %d new, into %q", imported.Len(), prices.Len()-before, cfg.Prices)
	return nil
}

// importLedger copies the ledger file into the database.
func importLedger(cfg *config.Config) error {
	if cfg.Database == "" {
		return errors.New("no database configured, use -db")
	}
	f, err := os.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer f.Close()
	ledger, err := btctax.DecodeLedger(f)
	if err != nil {
		return fmt.Errorf("error loading ledger %q: %w", cfg.Ledger, err)
	}
	if err := ledger.Check(); err != nil {
		return fmt.Errorf("ledger %q is invalid: %w", cfg.Ledger, err)
	}

	s, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveLedger(ledger); err != nil {
		return err
	}
	log.Printf("imported %d accounts and %d transactions into %q", len(ledger.Accounts()), ledger.Len(), s.Path())
	return nil
}
