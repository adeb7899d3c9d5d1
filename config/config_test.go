package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/btctax"
)

// clearEnv unsets the variables for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfig, EnvLedger, EnvPrices, EnvDatabase, EnvBasis, EnvTimezone, EnvLongTermDays} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Default(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want %+v", cfg, Default())
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Basis != btctax.FairValueBasis || opts.LongTermDays != 365 || opts.Location.String() != "UTC" {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "btctax.yaml")
	content := `acquisition_basis: zero
long_term_days: 366
ledger: history.jsonl
prices: prices.jsonl
price_max_age: 3
database: btctax.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, path)
	// the environment wins over the file.
	t.Setenv(EnvLedger, "override.jsonl")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{
		AcquisitionBasis: "zero",
		LongTermDays:     366,
		Timezone:         "UTC",
		Ledger:           "override.jsonl",
		Prices:           "prices.jsonl",
		PriceMaxAge:      3,
		Database:         "btctax.db",
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Basis != btctax.ZeroBasis || opts.LongTermDays != 366 {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BTCTAX_DB=from-env.db\nBTCTAX_LONG_TERM_DAYS=400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database != "from-env.db" || cfg.LongTermDays != 400 {
		t.Errorf("Load() = %+v, want the .env values", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown basis", map[string]string{EnvBasis: "lifo"}},
		{"unknown timezone", map[string]string{EnvTimezone: "Mars/Olympus"}},
		{"bad days", map[string]string{EnvLongTermDays: "a year"}},
		{"missing file", map[string]string{EnvConfig: "does-not-exist.yaml"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("Load() error = nil, want an error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("Load() with a missing .env error = nil")
	}
}
