package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"nummus/internal/core"
)

const categoryColumns = `id, name, category_group, locked, essential`

func scanCategory(row interface{ Scan(...any) error }) (core.TransactionCategory, error) {
	var c core.TransactionCategory
	var group string
	if err := row.Scan(&c.ID, &c.Name, &group, &c.Locked, &c.Essential); err != nil {
		return core.TransactionCategory{}, err
	}
	c.Group = core.CategoryGroup(group)
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.TransactionCategory) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_categories (name, category_group, locked, essential) VALUES (?, ?, 0, ?)`,
		c.Name, string(c.Group), c.Essential)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name, "group", c.Group)
	return id, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.TransactionCategory, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM transaction_categories WHERE id = ?`, id))
	if err != nil {
		return core.TransactionCategory{}, noRows(err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, name string) (core.TransactionCategory, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM transaction_categories WHERE name = ?`, name))
	if err != nil {
		return core.TransactionCategory{}, noRows(err)
	}
	return c, nil
}

// ListCategories returns the catalog sorted by group rank then name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.TransactionCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM transaction_categories
		ORDER BY CASE category_group
			WHEN 'income' THEN 0
			WHEN 'expense' THEN 1
			WHEN 'transfer' THEN 2
			ELSE 3 END, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.TransactionCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// RenameCategory renames a user category. Locked system categories refuse.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, id int64, name string, essential bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var locked bool
		err := tx.QueryRowContext(ctx,
			`SELECT locked FROM transaction_categories WHERE id = ?`, id).Scan(&locked)
		if err != nil {
			return noRows(err)
		}
		if locked {
			return core.ErrForbidden
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE transaction_categories SET name = ?, essential = ? WHERE id = ?`,
			name, essential, id); err != nil {
			return translateConstraint(err)
		}
		slog.InfoContext(ctx, "Category renamed", "id", id, "name", name)
		return nil
	})
}

// DeleteCategory removes a user category, reassigning every referencing
// split to "Uncategorized" in the same transaction.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var locked bool
		err := tx.QueryRowContext(ctx,
			`SELECT locked FROM transaction_categories WHERE id = ?`, id).Scan(&locked)
		if err != nil {
			return noRows(err)
		}
		if locked {
			return core.ErrForbidden
		}

		var fallbackID int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM transaction_categories WHERE name = ?`, core.UncategorizedName).Scan(&fallbackID)
		if err != nil {
			return fmt.Errorf("find fallback category: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE transaction_splits SET category_id = ? WHERE category_id = ?`, fallbackID, id)
		if err != nil {
			return fmt.Errorf("reassign splits: %w", err)
		}
		moved, _ := res.RowsAffected()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		slog.InfoContext(ctx, "Category deleted", "id", id, "splits_reassigned", moved)
		return nil
	})
}
