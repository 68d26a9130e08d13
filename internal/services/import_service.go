package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nummus/internal/amqp"
	"nummus/internal/core"
	"nummus/internal/storage"
)

// ImportService turns external transaction rows into linked ledger
// transactions. Imports are idempotent on ImportID, so replayed queue
// messages are safe.
type ImportService struct {
	storage *storage.SQLiteRepository
}

func NewImportService(storage *storage.SQLiteRepository) *ImportService {
	return &ImportService{storage: storage}
}

// Import creates a linked transaction from one message. It returns the new
// transaction id, or 0 with a nil error when the ImportID was seen before.
func (s *ImportService) Import(ctx context.Context, msg *amqp.TransactionImportMessage) (int64, error) {
	if msg.ImportID == "" {
		return 0, core.NewValidationError("Import ID must not be empty")
	}

	seen, err := s.storage.ImportSeen(ctx, msg.ImportID)
	if err != nil {
		return 0, fmt.Errorf("check import id: %w", err)
	}
	if seen {
		slog.InfoContext(ctx, "Import already applied, skipping", "import_id", msg.ImportID)
		return 0, nil
	}

	account, err := s.storage.GetAccountByName(ctx, core.NormalizeName(msg.Account))
	if err != nil {
		return 0, fmt.Errorf("find account %q: %w", msg.Account, err)
	}

	date, err := core.ParseDate(msg.Date)
	if err != nil {
		return 0, core.NewValidationError("Date must be formatted YYYY-MM-DD")
	}
	amount, err := core.ParseMoney(msg.Amount)
	if err != nil {
		return 0, core.NewValidationError("Amount must be a valid decimal")
	}

	category := s.resolveCategory(ctx, msg.Category)

	t := core.Transaction{
		AccountID: account.ID,
		Date:      date,
		Amount:    amount,
		Statement: msg.Statement,
		Linked:    true,
		ImportID:  msg.ImportID,
		Splits: []core.TransactionSplit{{
			CategoryID: category,
			Amount:     amount,
			Payee:      core.NormalizeName(msg.Payee),
		}},
	}
	if err := t.Validate(core.Today()); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		// A concurrent consumer may have won the race on the unique
		// import_id index. That is still a successful import.
		if core.IsValidation(err) {
			slog.WarnContext(ctx, "Import raced with another consumer", "import_id", msg.ImportID)
			return 0, nil
		}
		return 0, err
	}

	slog.InfoContext(ctx, "Imported linked transaction",
		"id", id, "import_id", msg.ImportID, "account", account.Name)
	return id, nil
}

// resolveCategory maps an external category name onto the catalog, falling
// back to Uncategorized for unknown names.
func (s *ImportService) resolveCategory(ctx context.Context, name string) int64 {
	name = core.NormalizeName(name)
	if name != "" {
		if c, err := s.storage.GetCategoryByName(ctx, name); err == nil {
			return c.ID
		} else if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(ctx, "Category lookup failed", "name", name, "error", err)
		}
	}

	fallback, err := s.storage.GetCategoryByName(ctx, core.UncategorizedName)
	if err != nil {
		slog.ErrorContext(ctx, "Fallback category missing", "error", err)
		return 0
	}
	return fallback.ID
}
