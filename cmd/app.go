// Package cmd implements the CLI application computing bitcoin taxes.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/btctax"
	"github.com/etnz/btctax/config"
	"github.com/etnz/btctax/date"
	"github.com/etnz/btctax/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&gainsCmd{}, "reports")
	c.Register(&lotsCmd{}, "reports")
	c.Register(&averageCmd{}, "reports")
	c.Register(&form8949Cmd{}, "reports")

	c.Register(&checkCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var envFile = flag.String("env", "", "Path to a .env file, defaults to .env in the current directory")
var ledgerFile = flag.String("ledger", "", "Path to the ledger file (JSONL format), overrides the configuration")
var pricesFile = flag.String("prices", "", "Path to the BTC/USD daily prices file (JSONL format), overrides the configuration")
var databaseFile = flag.String("db", "", "Path to a sqlite database used instead of the ledger file, overrides the configuration")
var basis = flag.String("basis", "", "Cost basis of bitcoin received for free (fair-value, zero), overrides the configuration")

// LoadConfig loads the configuration and applies the global flags.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, err
	}
	if *ledgerFile != "" {
		cfg.Ledger = *ledgerFile
	}
	if *pricesFile != "" {
		cfg.Prices = *pricesFile
	}
	if *databaseFile != "" {
		cfg.Database = *databaseFile
	}
	if *basis != "" {
		cfg.AcquisitionBasis = *basis
	}
	return cfg, cfg.Validate()
}

// DecodeLedger loads the ledger from the database when one is configured,
// from the ledger file otherwise.
func DecodeLedger(cfg *config.Config) (*btctax.Ledger, error) {
	if cfg.Database != "" {
		s, err := store.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Ledger()
	}

	f, err := os.Open(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return btctax.DecodeLedger(f)
}

// EncodeLedger writes the ledger back to the ledger file in canonical form.
func EncodeLedger(cfg *config.Config, ledger *btctax.Ledger) error {
	f, err := os.Create(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q for writing: %w", cfg.Ledger, err)
	}
	defer f.Close()
	return btctax.EncodeLedger(f, ledger)
}

// DecodePrices loads the price history, nil when none is configured.
func DecodePrices(cfg *config.Config, loc *time.Location) (*btctax.PriceTable, error) {
	if cfg.Prices == "" {
		log.Println("warning, no price file configured, market values are unavailable")
		return nil, nil
	}
	f, err := os.Open(cfg.Prices)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning, price file %q does not exist, market values are unavailable", cfg.Prices)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prices, err := btctax.DecodePrices(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding prices %q: %w", cfg.Prices, err)
	}
	prices.Location = loc
	prices.MaxAge = cfg.PriceMaxAge
	return prices, nil
}

// EncodePrices writes the price history to the configured price file.
func EncodePrices(cfg *config.Config, prices *btctax.PriceTable) error {
	if cfg.Prices == "" {
		return errors.New("no price file configured")
	}
	f, err := os.Create(cfg.Prices)
	if err != nil {
		return fmt.Errorf("error opening price file %q for writing: %w", cfg.Prices, err)
	}
	defer f.Close()
	return btctax.EncodePrices(f, prices)
}

// session is everything a report needs.
type session struct {
	cfg    *config.Config
	opts   btctax.Options
	ledger *btctax.Ledger
	prices btctax.PriceSource // nil without a price history.
	system *btctax.AccountingSystem
}

// openSession loads the configuration, the ledger and the prices.
func openSession() (*session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	ledger, err := DecodeLedger(cfg)
	if err != nil {
		return nil, fmt.Errorf("error loading ledger: %w", err)
	}
	prices, err := DecodePrices(cfg, opts.Location)
	if err != nil {
		return nil, err
	}
	var source btctax.PriceSource
	if prices != nil {
		source = prices
	}
	system, err := btctax.NewAccountingSystem(ledger.Accounts(), source, opts)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, opts: opts, ledger: ledger, prices: source, system: system}, nil
}

// asOf parses a report date, the report includes the whole day.
func (s *session) asOf(day string) (time.Time, error) {
	if day == "" {
		return time.Now(), nil
	}
	d, err := date.Parse(day)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, s.opts.Location).Add(-time.Nanosecond), nil
}

// printMarkdown renders markdown for the terminal, raw markdown is printed
// when rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// exitStatus prints err and maps it to a failure status.
func exitStatus(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var txErr *btctax.TransactionError
	if errors.As(err, &txErr) {
		fmt.Fprintf(os.Stderr, "Run 'btctax check' to locate the last valid transaction before %q.\n", txErr.ID)
	}
	return subcommands.ExitFailure
}
