package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
	"nummus/internal/ledger"
)

func insertSplits(ctx context.Context, tx *sql.Tx, txnID int64, splits []core.TransactionSplit) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transaction_splits
			(transaction_id, category_id, amount_cents, payee, memo, tag, asset_id, asset_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare split insert: %w", err)
	}
	defer stmt.Close()

	for _, sp := range splits {
		var assetID any
		if sp.AssetID != 0 {
			assetID = sp.AssetID
		}
		if _, err := stmt.ExecContext(ctx,
			txnID, sp.CategoryID, sp.Amount.Cents, sp.Payee, sp.Memo, sp.Tag,
			assetID, sp.AssetQuantity.String()); err != nil {
			return fmt.Errorf("insert split: %w", err)
		}
	}
	return nil
}

// CreateTransaction persists a transaction and its splits atomically.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var importID any
		if t.ImportID != "" {
			importID = t.ImportID
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (account_id, date, amount_cents, statement, locked, linked, import_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.AccountID, t.Date.String(), t.Amount.Cents, t.Statement, t.Locked, t.Linked, importID)
		if err != nil {
			return translateConstraint(err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}
		return insertSplits(ctx, tx, id, t.Splits)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"account_id", t.AccountID,
		"date", t.Date.String(),
		"amount_cents", t.Amount.Cents,
		"splits", len(t.Splits),
		"linked", t.Linked)
	return id, nil
}

func (r *SQLiteRepository) loadSplits(ctx context.Context, txnID int64) ([]core.TransactionSplit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, amount_cents, payee, memo, tag, asset_id, asset_quantity
		FROM transaction_splits WHERE transaction_id = ? ORDER BY id`, txnID)
	if err != nil {
		return nil, fmt.Errorf("load splits: %w", err)
	}
	defer rows.Close()

	var splits []core.TransactionSplit
	for rows.Next() {
		var sp core.TransactionSplit
		var assetID sql.NullInt64
		var quantity string
		if err := rows.Scan(&sp.ID, &sp.CategoryID, &sp.Amount.Cents,
			&sp.Payee, &sp.Memo, &sp.Tag, &assetID, &quantity); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if assetID.Valid {
			sp.AssetID = assetID.Int64
		}
		sp.AssetQuantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("parse split quantity %q: %w", quantity, err)
		}
		splits = append(splits, sp)
	}
	return splits, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	var date string
	var importID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, date, amount_cents, statement, locked, linked, import_id, version
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.AccountID, &date, &t.Amount.Cents, &t.Statement,
			&t.Locked, &t.Linked, &importID, &t.Version)
	if err != nil {
		return core.Transaction{}, noRows(err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.ImportID = importID.String

	if t.Splits, err = r.loadSplits(ctx, id); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// ReplaceTransaction applies a full edit: header fields are updated and the
// whole split set is replaced (old splits deleted, new ones inserted) in one
// database transaction. The caller's version must match the stored one;
// a stale edit is rejected without touching anything.
func (r *SQLiteRepository) ReplaceTransaction(ctx context.Context, id, version int64, date core.Date, statement string, amount core.Money, splits []core.TransactionSplit) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET date = ?, statement = ?, amount_cents = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			date.String(), statement, amount.Cents, id, version)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("check transaction: %w", err)
			}
			if !exists {
				return core.ErrNotFound
			}
			return core.NewValidationError("Transaction was modified by a concurrent edit")
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_splits WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete old splits: %w", err)
		}
		return insertSplits(ctx, tx, id, splits)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction splits replaced",
		"id", id, "amount_cents", amount.Cents, "splits", len(splits))
	return nil
}

// DeleteTransaction removes a transaction and its splits. Linked
// (import-derived) transactions refuse deletion.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var linked bool
		err := tx.QueryRowContext(ctx,
			`SELECT linked FROM transactions WHERE id = ?`, id).Scan(&linked)
		if err != nil {
			return noRows(err)
		}
		if linked {
			return core.ErrForbidden
		}

		// Splits go explicitly; ON DELETE CASCADE is only a backstop.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_splits WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete splits: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		slog.InfoContext(ctx, "Transaction deleted", "id", id)
		return nil
	})
}

// ListTransactions returns transactions with their splits, newest first,
// narrowed by the filter.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	var where []string
	var args []any
	if f.AccountID != 0 {
		where = append(where, "t.account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CategoryID != 0 {
		where = append(where, "t.id IN (SELECT transaction_id FROM transaction_splits WHERE category_id = ?)")
		args = append(args, f.CategoryID)
	}
	if !f.Start.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, f.End.String())
	}

	query := `SELECT t.id FROM transactions t`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txns := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// ListPostings flattens every split with its transaction's account and date
// for the aggregation engine.
func (r *SQLiteRepository) ListPostings(ctx context.Context) ([]ledger.Posting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.account_id, t.date, s.amount_cents, s.category_id, c.essential
		FROM transaction_splits s
		JOIN transactions t ON t.id = s.transaction_id
		JOIN transaction_categories c ON c.id = s.category_id
		ORDER BY t.date`)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var postings []ledger.Posting
	for rows.Next() {
		var p ledger.Posting
		var date string
		if err := rows.Scan(&p.AccountID, &date, &p.Amount.Cents, &p.CategoryID, &p.Essential); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// ImportSeen reports whether a linked transaction with this import id
// already exists, which makes import replays no-ops.
func (r *SQLiteRepository) ImportSeen(ctx context.Context, importID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE import_id = ?)`, importID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check import id: %w", err)
	}
	return exists, nil
}
