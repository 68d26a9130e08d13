package services

import (
	"context"

	"nummus/internal/core"
	"nummus/internal/storage"
)

// AssetService manages assets and their valuation history.
type AssetService struct {
	storage *storage.SQLiteRepository
}

func NewAssetService(storage *storage.SQLiteRepository) *AssetService {
	return &AssetService{storage: storage}
}

func (s *AssetService) Create(ctx context.Context, a core.Asset) (int64, error) {
	a.Name = core.NormalizeName(a.Name)
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreateAsset(ctx, a)
}

func (s *AssetService) Get(ctx context.Context, id int64) (core.Asset, error) {
	return s.storage.GetAsset(ctx, id)
}

func (s *AssetService) List(ctx context.Context) ([]core.Asset, error) {
	return s.storage.ListAssets(ctx)
}

// RecordValuation upserts the asset's value for a date. The asset must
// exist; a second valuation on the same date replaces the first.
func (s *AssetService) RecordValuation(ctx context.Context, v core.AssetValuation) error {
	if v.Date.IsZero() {
		return core.NewValidationError("Date must not be empty")
	}
	if _, err := s.storage.GetAsset(ctx, v.AssetID); err != nil {
		return err
	}
	return s.storage.UpsertValuation(ctx, v)
}

func (s *AssetService) Valuations(ctx context.Context, assetID int64) ([]core.AssetValuation, error) {
	return s.storage.ListValuations(ctx, assetID)
}
