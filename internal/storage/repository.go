// Package storage persists the ledger in SQLite. Every logical mutation is
// one database transaction: either all entity writes apply, or none do.
// Constraint violations are translated into validation messages at this
// boundary so raw storage errors never reach a user.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nummus/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. This is the unit-of-work boundary for every mutation.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// uniqueFields maps a unique index's column to the user-facing field name
// used in validation messages.
var uniqueFields = map[string]string{
	"accounts.name":               "Name",
	"transaction_categories.name": "Name",
	"assets.name":                 "Name",
	"asset_valuations.date":       "Date",
	"transactions.import_id":      "Import ID",
	"budget_assignments.month":    "Month",
}

// translateConstraint converts a driver-level UNIQUE violation into a
// ValidationError ("<Field> must be unique"). Other errors pass through.
func translateConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	idx := strings.Index(msg, "UNIQUE constraint failed: ")
	if idx < 0 {
		return err
	}
	cols := msg[idx+len("UNIQUE constraint failed: "):]
	if end := strings.IndexByte(cols, '('); end > 0 {
		cols = cols[:end]
	}
	// Composite indexes list every column, comma separated.
	for _, col := range strings.Split(cols, ",") {
		if field, ok := uniqueFields[strings.TrimSpace(col)]; ok {
			return core.NewValidationError(field + " must be unique")
		}
	}
	return core.NewValidationError("Record must be unique")
}

// noRows converts sql.ErrNoRows into the domain not-found sentinel.
func noRows(err error) error {
	if err == sql.ErrNoRows {
		return core.ErrNotFound
	}
	return err
}
