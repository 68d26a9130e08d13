// Package services holds the application layer: normalization and domain
// validation happen here, persistence and constraint translation happen in
// storage, and handlers only translate errors into responses.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"nummus/internal/core"
	"nummus/internal/storage"
)

// AccountService manages the account register.
type AccountService struct {
	storage *storage.SQLiteRepository
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	a.Name = core.NormalizeName(a.Name)
	a.Institution = core.NormalizeName(a.Institution)
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

func (s *AccountService) Update(ctx context.Context, id int64, name, institution string) error {
	name = core.NormalizeName(name)
	institution = core.NormalizeName(institution)
	probe := core.Account{Name: name, Category: core.AccountOther}
	if err := probe.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateAccount(ctx, id, name, institution)
}

// Close marks the account closed. The zero-balance guard lives in storage
// so the check and the update share one database transaction.
func (s *AccountService) Close(ctx context.Context, id int64) error {
	if err := s.storage.SetAccountClosed(ctx, id, true, core.Today()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account closed", "id", id)
	return nil
}

func (s *AccountService) Reopen(ctx context.Context, id int64) error {
	if err := s.storage.SetAccountClosed(ctx, id, false, core.Today()); err != nil {
		return fmt.Errorf("reopen account: %w", err)
	}
	slog.InfoContext(ctx, "Account reopened", "id", id)
	return nil
}
