package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"nummus/internal/core"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, institution, category) VALUES (?, ?, ?)`,
		a.Name, a.Institution, string(a.Category))
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "name", a.Name, "category", a.Category)
	return id, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	var category string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, institution, category, closed FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Institution, &category, &a.Closed)
	if err != nil {
		return core.Account{}, noRows(err)
	}
	a.Category = core.AccountCategory(category)
	return a, nil
}

func (r *SQLiteRepository) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	var a core.Account
	var category string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, institution, category, closed FROM accounts WHERE name = ?`, name).
		Scan(&a.ID, &a.Name, &a.Institution, &category, &a.Closed)
	if err != nil {
		return core.Account{}, noRows(err)
	}
	a.Category = core.AccountCategory(category)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, institution, category, closed FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var category string
		if err := rows.Scan(&a.ID, &a.Name, &a.Institution, &category, &a.Closed); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Category = core.AccountCategory(category)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount changes name and institution. The category is fixed after
// creation; closing goes through SetAccountClosed.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id int64, name, institution string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, institution = ? WHERE id = ?`, name, institution, id)
	if err != nil {
		return translateConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SetAccountClosed closes or reopens an account. Closing is refused while
// the balance as of asOf is non-zero; the check and the flag update share
// one transaction so a concurrent insert cannot slip between them.
func (r *SQLiteRepository) SetAccountClosed(ctx context.Context, id int64, closed bool, asOf core.Date) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if !exists {
			return core.ErrNotFound
		}

		if closed {
			var balance int64
			err := tx.QueryRowContext(ctx, `
				SELECT COALESCE(SUM(s.amount_cents), 0)
				FROM transaction_splits s
				JOIN transactions t ON t.id = s.transaction_id
				WHERE t.account_id = ? AND t.date <= ?`, id, asOf.String()).Scan(&balance)
			if err != nil {
				return fmt.Errorf("account balance: %w", err)
			}
			if balance != 0 {
				return core.NewValidationError("Cannot close account with a non-zero balance")
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET closed = ? WHERE id = ?`, closed, id); err != nil {
			return fmt.Errorf("set closed: %w", err)
		}

		slog.InfoContext(ctx, "Account closed flag updated", "id", id, "closed", closed)
		return nil
	})
}
