package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
	"nummus/internal/ledger"
)

// CreateAsset persists an asset together with its sector breakdown.
func (r *SQLiteRepository) CreateAsset(ctx context.Context, a core.Asset) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO assets (name, category, ticker) VALUES (?, ?, ?)`,
			a.Name, string(a.Category), a.Ticker)
		if err != nil {
			return translateConstraint(err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("asset id: %w", err)
		}
		for _, sw := range a.Sectors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO asset_sectors (asset_id, sector, weight) VALUES (?, ?, ?)`,
				id, sw.Sector, sw.Weight.String()); err != nil {
				return fmt.Errorf("insert sector: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Asset created", "id", id, "name", a.Name, "category", a.Category)
	return id, nil
}

func (r *SQLiteRepository) loadSectors(ctx context.Context, assetID int64) ([]core.SectorWeight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sector, weight FROM asset_sectors WHERE asset_id = ? ORDER BY sector`, assetID)
	if err != nil {
		return nil, fmt.Errorf("load sectors: %w", err)
	}
	defer rows.Close()

	var sectors []core.SectorWeight
	for rows.Next() {
		var sw core.SectorWeight
		var weight string
		if err := rows.Scan(&sw.Sector, &weight); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		if sw.Weight, err = decimal.NewFromString(weight); err != nil {
			return nil, fmt.Errorf("parse sector weight %q: %w", weight, err)
		}
		sectors = append(sectors, sw)
	}
	return sectors, rows.Err()
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id int64) (core.Asset, error) {
	var a core.Asset
	var category string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, ticker FROM assets WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &category, &a.Ticker)
	if err != nil {
		return core.Asset{}, noRows(err)
	}
	a.Category = core.AssetCategory(category)
	if a.Sectors, err = r.loadSectors(ctx, id); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]core.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, ticker FROM assets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.Asset
	for rows.Next() {
		var a core.Asset
		var category string
		if err := rows.Scan(&a.ID, &a.Name, &category, &a.Ticker); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Category = core.AssetCategory(category)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range assets {
		if assets[i].Sectors, err = r.loadSectors(ctx, assets[i].ID); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// UpsertValuation records an asset's value on a date, replacing any value
// already recorded for the same day.
func (r *SQLiteRepository) UpsertValuation(ctx context.Context, v core.AssetValuation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO asset_valuations (asset_id, date, value_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(asset_id, date) DO UPDATE SET value_cents = excluded.value_cents`,
		v.AssetID, v.Date.String(), v.Value.Cents)
	if err != nil {
		return translateConstraint(err)
	}

	slog.InfoContext(ctx, "Asset valuation recorded",
		"asset_id", v.AssetID, "date", v.Date.String(), "value_cents", v.Value.Cents)
	return nil
}

// ListValuations returns an asset's valuations oldest first.
func (r *SQLiteRepository) ListValuations(ctx context.Context, assetID int64) ([]core.AssetValuation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, asset_id, date, value_cents FROM asset_valuations WHERE asset_id = ? ORDER BY date`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	defer rows.Close()

	var vals []core.AssetValuation
	for rows.Next() {
		var v core.AssetValuation
		var date string
		if err := rows.Scan(&v.ID, &v.AssetID, &date, &v.Value.Cents); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		if v.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}

// Holdings sums split quantities per asset up to asOf and pairs each with
// its latest valuation on or before that date. Quantities are stored as
// decimal strings, so the summing happens here rather than in SQL.
func (r *SQLiteRepository) Holdings(ctx context.Context, asOf core.Date) ([]ledger.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.asset_id, s.asset_quantity
		FROM transaction_splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.asset_id IS NOT NULL AND t.date <= ?`, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("holdings query: %w", err)
	}
	defer rows.Close()

	quantities := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var assetID int64
		var qty string
		if err := rows.Scan(&assetID, &qty); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", qty, err)
		}
		quantities[assetID] = quantities[assetID].Add(d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var holdings []ledger.Holding
	for assetID, qty := range quantities {
		if qty.IsZero() {
			continue
		}
		asset, err := r.GetAsset(ctx, assetID)
		if err != nil {
			return nil, err
		}
		var price int64
		err = r.db.QueryRowContext(ctx, `
			SELECT value_cents FROM asset_valuations
			WHERE asset_id = ? AND date <= ?
			ORDER BY date DESC LIMIT 1`, assetID, asOf.String()).Scan(&price)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("latest valuation: %w", err)
		}
		holdings = append(holdings, ledger.Holding{
			AssetID:  assetID,
			Name:     asset.Name,
			Category: asset.Category,
			Quantity: qty,
			Price:    core.Money{Cents: price},
			Sectors:  asset.Sectors,
		})
	}
	return holdings, nil
}
