package services

import (
	"context"

	"nummus/internal/core"
	"nummus/internal/storage"
)

// TransactionService manages transactions and their splits.
type TransactionService struct {
	storage *storage.SQLiteRepository
}

func NewTransactionService(storage *storage.SQLiteRepository) *TransactionService {
	return &TransactionService{storage: storage}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	for i := range t.Splits {
		t.Splits[i].Payee = core.NormalizeName(t.Splits[i].Payee)
	}
	if err := t.Validate(core.Today()); err != nil {
		return 0, err
	}
	return s.storage.CreateTransaction(ctx, t)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, f)
}

// Update replaces the transaction's header and full split set. Version is
// the version the caller last saw; a mismatch means a concurrent edit won.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	for i := range t.Splits {
		t.Splits[i].Payee = core.NormalizeName(t.Splits[i].Payee)
	}
	if err := t.Validate(core.Today()); err != nil {
		return err
	}
	return s.storage.ReplaceTransaction(ctx, t.ID, t.Version, t.Date, t.Statement, t.Amount, t.Splits)
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteTransaction(ctx, id)
}
