// Package store persists converted statements in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/insightdelivered/statement-ledger/internal/models"
	"github.com/insightdelivered/statement-ledger/internal/store/migrations"
)

const dateLayout = "2006-01-02"

// DefaultCategory is assigned to every imported transaction.
const DefaultCategory = "Uncategorized"

// ErrNotFound is returned when a transaction to update does not exist.
var ErrNotFound = errors.New("transaction not found")

// Store is the ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets the matcher read while an import is writing.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveStatement stores a converted statement for userID and returns how many
// transactions were new. The account is looked up by user, number and bank,
// and created on first sight. A transaction matching a stored one on date,
// details, amount and type is a duplicate and is skipped, so importing the
// same statement twice is harmless.
func (s *Store) SaveStatement(ctx context.Context, userID string, stmt *models.Statement) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	accountID, err := accountID(ctx, tx, userID, stmt.Account)
	if err != nil {
		return 0, err
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (id, account_id, date, details, amount, type, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	inserted := 0
	for _, t := range stmt.Transactions {
		res, err := insert.ExecContext(ctx,
			uuid.NewString(), accountID, t.Date.Format(dateLayout), t.Details,
			t.Amount.StringFixed(2), string(t.Type), DefaultCategory,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting inserted rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing statement: %w", err)
	}
	return inserted, nil
}

func accountID(ctx context.Context, tx *sql.Tx, userID string, acct models.Account) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO accounts (user_id, account_number, bank_name) VALUES (?, ?, ?)
	`, userID, acct.AccountNumber, acct.BankName)
	if err != nil {
		return 0, fmt.Errorf("creating account: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM accounts WHERE user_id = ? AND account_number = ? AND bank_name = ?
	`, userID, acct.AccountNumber, acct.BankName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up account: %w", err)
	}
	return id, nil
}

// Accounts lists userID's accounts.
func (s *Store) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_number, bank_name FROM accounts WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.AccountNumber, &a.BankName); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Transactions returns every transaction of userID in date order, read in a
// single query so the result is a consistent snapshot.
func (s *Store) Transactions(ctx context.Context, userID string) ([]models.StoredTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.account_id, t.date, t.details, t.amount, t.type, t.category, t.is_pass_through
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = ?
		ORDER BY t.date, t.rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []models.StoredTransaction
	for rows.Next() {
		var (
			st            models.StoredTransaction
			id, date, amt string
			typ           string
		)
		if err := rows.Scan(&id, &st.AccountID, &date, &st.Details, &amt, &typ, &st.Category, &st.PassThrough); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if st.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing transaction id: %w", err)
		}
		if st.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing transaction date: %w", err)
		}
		if st.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("parsing transaction amount: %w", err)
		}
		st.Type = models.TxnType(typ)
		out = append(out, st)
	}
	return out, rows.Err()
}

// MarkPassThrough flags both sides of a confirmed pair so they are excluded
// from spend analytics and from later matching.
func (s *Store) MarkPassThrough(ctx context.Context, pair models.PassthroughPair) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET is_pass_through = 1 WHERE id IN (?, ?)
	`, pair.Credit.ID.String(), pair.Debit.ID.String())
	if err != nil {
		return fmt.Errorf("flagging pass-through: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting flagged rows: %w", err)
	}
	if n != 2 {
		return fmt.Errorf("%w: flagged %d of 2", ErrNotFound, n)
	}
	return nil
}
