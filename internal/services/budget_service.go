package services

import (
	"context"

	"nummus/internal/core"
	"nummus/internal/storage"
)

// BudgetService manages monthly category assignments.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

func (s *BudgetService) Assign(ctx context.Context, b core.BudgetAssignment) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetCategory(ctx, b.CategoryID); err != nil {
		return err
	}
	return s.storage.SetAssignment(ctx, b)
}

// Month returns one row per catalog category with assigned amount and the
// month's actual activity side by side.
func (s *BudgetService) Month(ctx context.Context, month string) ([]storage.BudgetRow, error) {
	if _, err := core.ParseMonth(month); err != nil {
		return nil, core.NewValidationError("Month must be formatted YYYY-MM")
	}
	return s.storage.ListBudgetMonth(ctx, month)
}
