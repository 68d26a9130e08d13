package services

import (
	"context"

	"nummus/internal/core"
	"nummus/internal/storage"
)

// CategoryService manages the category catalog. Locked system categories
// refuse rename and delete at the storage boundary.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage}
}

func (s *CategoryService) Create(ctx context.Context, c core.TransactionCategory) (int64, error) {
	c.Name = core.NormalizeName(c.Name)
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreateCategory(ctx, c)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.TransactionCategory, error) {
	return s.storage.GetCategory(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]core.TransactionCategory, error) {
	return s.storage.ListCategories(ctx)
}

func (s *CategoryService) Rename(ctx context.Context, id int64, name string, essential bool) error {
	name = core.NormalizeName(name)
	probe := core.TransactionCategory{Name: name, Group: core.GroupOther}
	if err := probe.Validate(); err != nil {
		return err
	}
	return s.storage.RenameCategory(ctx, id, name, essential)
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteCategory(ctx, id)
}
