// Package store keeps a btctax ledger in a SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/btctax"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Schema defines the SQL statements to create database tables.
//
// Amounts are decimal strings so that no digit is lost.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL,
    kind TEXT NOT NULL,
    owner TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    time TEXT NOT NULL,                -- UTC, fixed width
    type TEXT NOT NULL,
    fee_amount TEXT,
    fee_currency TEXT,
    price TEXT,
    proceeds TEXT,
    value TEXT,
    memo TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_time
    ON transactions(time);

CREATE TABLE IF NOT EXISTS postings (
    tx_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    account TEXT NOT NULL REFERENCES accounts(id),
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    PRIMARY KEY (tx_id, position)
);
`

// Store manages a SQLite database connection.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens a SQLite database connection and creates the schema.
// It enables WAL mode and foreign key constraints.
func Open(dbPath string) (*Store, error) {
	// Ensure database file's parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// transaction executes fn within a transaction.
// If fn returns an error, the transaction is rolled back.
func (s *Store) transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveLedger saves the accounts and the transactions of a ledger, at once.
// Records with the same id are replaced.
func (s *Store) SaveLedger(ledger *btctax.Ledger) error {
	return s.transaction(func(tx *sql.Tx) error {
		if err := saveAccounts(tx, ledger.Accounts()); err != nil {
			return err
		}
		return saveTransactions(tx, ledger.History())
	})
}

// SaveAccounts saves account declarations, replacing the ones with the same id.
func (s *Store) SaveAccounts(accounts ...btctax.Account) error {
	return s.transaction(func(tx *sql.Tx) error { return saveAccounts(tx, accounts) })
}

// SaveTransactions saves transactions, replacing the ones with the same id.
func (s *Store) SaveTransactions(txs ...btctax.Transaction) error {
	return s.transaction(func(tx *sql.Tx) error { return saveTransactions(tx, txs) })
}

func saveAccounts(tx *sql.Tx, accounts []btctax.Account) error {
	query := `
		INSERT INTO accounts (id, name, currency, kind, owner)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			kind = excluded.kind,
			owner = excluded.owner
	`
	for _, a := range accounts {
		if _, err := tx.Exec(query, a.ID, a.Name, string(a.Currency), string(a.Kind), a.Owner); err != nil {
			return fmt.Errorf("failed to save account %q: %w", a.ID, err)
		}
	}
	return nil
}

func saveTransactions(tx *sql.Tx, txs []btctax.Transaction) error {
	query := `
		INSERT INTO transactions (id, time, type, fee_amount, fee_currency, price, proceeds, value, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time = excluded.time,
			type = excluded.type,
			fee_amount = excluded.fee_amount,
			fee_currency = excluded.fee_currency,
			price = excluded.price,
			proceeds = excluded.proceeds,
			value = excluded.value,
			memo = excluded.memo
	`
	for _, t := range txs {
		var feeAmount, feeCurrency sql.NullString
		if !t.Fee.IsZero() {
			feeAmount = sql.NullString{String: t.Fee.Decimal().String(), Valid: true}
			feeCurrency = sql.NullString{String: string(t.Fee.Currency()), Valid: true}
		}
		_, err := tx.Exec(query,
			t.ID,
			t.Time.UTC().Format(timeLayout),
			string(t.Type),
			feeAmount,
			feeCurrency,
			nullAmount(t.PriceUSD),
			nullAmount(t.ProceedsUSD),
			nullAmount(t.ValueUSD),
			t.Memo,
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %q: %w", t.ID, err)
		}
		if _, err := tx.Exec(`DELETE FROM postings WHERE tx_id = ?`, t.ID); err != nil {
			return fmt.Errorf("failed to replace postings of %q: %w", t.ID, err)
		}
		for i, p := range t.Postings {
			_, err := tx.Exec(`INSERT INTO postings (tx_id, position, account, amount, currency) VALUES (?, ?, ?, ?, ?)`,
				t.ID, i, p.Account, p.Amount.Decimal().String(), string(p.Amount.Currency()))
			if err != nil {
				return fmt.Errorf("failed to save posting %d of %q: %w", i, t.ID, err)
			}
		}
	}
	return nil
}

// nullAmount stores a zero amount as NULL.
func nullAmount(m btctax.Money) sql.NullString {
	if m.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: m.Decimal().String(), Valid: true}
}

// Accounts returns the declared accounts, sorted by id.
func (s *Store) Accounts() ([]btctax.Account, error) {
	rows, err := s.db.Query(`SELECT id, name, currency, kind, owner FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []btctax.Account
	for rows.Next() {
		var a btctax.Account
		var currency, kind string
		if err := rows.Scan(&a.ID, &a.Name, &currency, &kind, &a.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Currency, a.Kind = btctax.Currency(currency), btctax.AccountKind(kind)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Transactions returns the transactions in chronological order, then in
// insertion order.
func (s *Store) Transactions() ([]btctax.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, time, type, fee_amount, fee_currency, price, proceeds, value, memo
		FROM transactions ORDER BY time, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []btctax.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var (
			t                      btctax.Transaction
			at, typ                string
			feeAmount, feeCurrency sql.NullString
			price, proceeds, value sql.NullString
		)
		if err := rows.Scan(&t.ID, &at, &typ, &feeAmount, &feeCurrency, &price, &proceeds, &value, &t.Memo); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Time, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("transaction %q: invalid time %q: %w", t.ID, at, err)
		}
		if t.Type, err = btctax.ParseTxType(typ); err != nil {
			return nil, fmt.Errorf("transaction %q: %w", t.ID, err)
		}
		if feeAmount.Valid {
			fee, err := parseAmount(feeAmount.String)
			if err != nil {
				return nil, fmt.Errorf("transaction %q: invalid fee: %w", t.ID, err)
			}
			t.Fee = btctax.M(fee, btctax.Currency(feeCurrency.String))
		}
		for _, f := range []struct {
			column sql.NullString
			dst    *btctax.Money
		}{{price, &t.PriceUSD}, {proceeds, &t.ProceedsUSD}, {value, &t.ValueUSD}} {
			if !f.column.Valid {
				continue
			}
			d, err := parseAmount(f.column.String)
			if err != nil {
				return nil, fmt.Errorf("transaction %q: %w", t.ID, err)
			}
			*f.dst = btctax.Dollars(d)
		}
		index[t.ID] = len(txs)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.loadPostings(txs, index); err != nil {
		return nil, err
	}
	return txs, nil
}

// loadPostings fills the postings of txs, index maps a transaction id to its
// position in txs.
func (s *Store) loadPostings(txs []btctax.Transaction, index map[string]int) error {
	rows, err := s.db.Query(`SELECT tx_id, account, amount, currency FROM postings ORDER BY tx_id, position`)
	if err != nil {
		return fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, account, amount, currency string
		if err := rows.Scan(&id, &account, &amount, &currency); err != nil {
			return fmt.Errorf("failed to scan posting: %w", err)
		}
		d, err := parseAmount(amount)
		if err != nil {
			return fmt.Errorf("posting of %q: %w", id, err)
		}
		i, ok := index[id]
		if !ok {
			return fmt.Errorf("posting of unknown transaction %q", id)
		}
		txs[i].Postings = append(txs[i].Postings, btctax.P(account, btctax.M(d, btctax.Currency(currency))))
	}
	return rows.Err()
}

// Ledger loads the accounts and the transactions in a ledger.
func (s *Store) Ledger() (*btctax.Ledger, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return nil, err
	}
	txs, err := s.Transactions()
	if err != nil {
		return nil, err
	}
	ledger := btctax.NewLedger()
	ledger.Declare(accounts...)
	ledger.Append(txs...)
	return ledger, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
