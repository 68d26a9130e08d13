package storage

import (
	"context"
	"fmt"
	"log/slog"

	"nummus/internal/core"
)

// BudgetRow pairs a category with its assigned amount and the actual
// activity (sum of split amounts) for one month.
type BudgetRow struct {
	Category core.TransactionCategory
	Assigned core.Money
	Activity core.Money
}

// SetAssignment upserts the amount assigned to a category for a month.
func (r *SQLiteRepository) SetAssignment(ctx context.Context, b core.BudgetAssignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_assignments (category_id, month, assigned_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(category_id, month) DO UPDATE SET assigned_cents = excluded.assigned_cents`,
		b.CategoryID, b.Month, b.Assigned.Cents)
	if err != nil {
		return translateConstraint(err)
	}

	slog.InfoContext(ctx, "Budget assignment set",
		"category_id", b.CategoryID, "month", b.Month, "assigned_cents", b.Assigned.Cents)
	return nil
}

// ListBudgetMonth returns a row per category for the month, sorted the same
// way as the catalog, with assigned amounts and actual activity side by side.
func (r *SQLiteRepository) ListBudgetMonth(ctx context.Context, month string) ([]BudgetRow, error) {
	monthStart, err := core.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", month, err)
	}
	nextMonth := monthStart.AddMonths(1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.category_group, c.locked, c.essential,
			COALESCE(b.assigned_cents, 0),
			COALESCE((
				SELECT SUM(s.amount_cents)
				FROM transaction_splits s
				JOIN transactions t ON t.id = s.transaction_id
				WHERE s.category_id = c.id AND t.date >= ? AND t.date < ?
			), 0)
		FROM transaction_categories c
		LEFT JOIN budget_assignments b ON b.category_id = c.id AND b.month = ?
		ORDER BY CASE c.category_group
			WHEN 'income' THEN 0
			WHEN 'expense' THEN 1
			WHEN 'transfer' THEN 2
			ELSE 3 END, c.name`,
		monthStart.String(), nextMonth.String(), month)
	if err != nil {
		return nil, fmt.Errorf("list budget month: %w", err)
	}
	defer rows.Close()

	var out []BudgetRow
	for rows.Next() {
		var row BudgetRow
		var group string
		if err := rows.Scan(&row.Category.ID, &row.Category.Name, &group,
			&row.Category.Locked, &row.Category.Essential,
			&row.Assigned.Cents, &row.Activity.Cents); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		row.Category.Group = core.CategoryGroup(group)
		out = append(out, row)
	}
	return out, rows.Err()
}
