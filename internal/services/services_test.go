package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"nummus/internal/amqp"
	"nummus/internal/core"
	"nummus/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func categoryID(t *testing.T, repo *storage.SQLiteRepository, name string) int64 {
	t.Helper()
	c, err := repo.GetCategoryByName(context.Background(), name)
	if err != nil {
		t.Fatalf("GetCategoryByName(%q): %v", name, err)
	}
	return c.ID
}

func TestAccountServiceValidation(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewAccountService(repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		account core.Account
		wantMsg string
	}{
		{"empty name", core.Account{Category: core.AccountCash}, "Name must not be empty"},
		{"short name", core.Account{Name: "a", Category: core.AccountCash}, "Name must be at least 2 characters long"},
		{"missing category", core.Account{Name: "Checking"}, "Category must not be None"},
		{"bogus category", core.Account{Name: "Checking", Category: "slush"}, "Category must not be None"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.account)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create error = %v, want ValidationError", err)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Errorf("message = %q, want %q", verr.Error(), tt.wantMsg)
			}
		})
	}

	// Whitespace-padded names are normalized before uniqueness applies.
	if _, err := svc.Create(ctx, core.Account{Name: "  Checking  ", Category: core.AccountCash}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, core.Account{Name: "Checking", Category: core.AccountCash})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Error(), "Name must be unique") {
		t.Errorf("duplicate after normalization = %v, want unique-name validation", err)
	}
}

func TestTransactionServiceValidation(t *testing.T) {
	repo := newTestStorage(t)
	accounts := NewAccountService(repo)
	svc := NewTransactionService(repo)
	ctx := context.Background()

	accountID, err := accounts.Create(ctx, core.Account{Name: "Checking", Category: core.AccountCash})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	groceries := categoryID(t, repo, "Groceries")

	future := core.Transaction{
		AccountID: accountID,
		Date:      core.Today().AddDays(1),
		Amount:    core.Money{Cents: -100},
		Splits:    []core.TransactionSplit{{CategoryID: groceries, Amount: core.Money{Cents: -100}}},
	}
	_, err = svc.Create(ctx, future)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Error(), "Cannot create future transaction") {
		t.Errorf("future date = %v, want future-transaction validation", err)
	}

	unbalanced := core.Transaction{
		AccountID: accountID,
		Date:      core.Today(),
		Amount:    core.Money{Cents: -100},
		Splits:    []core.TransactionSplit{{CategoryID: groceries, Amount: core.Money{Cents: -50}}},
	}
	_, err = svc.Create(ctx, unbalanced)
	if !errors.As(err, &verr) || !strings.Contains(verr.Error(), "Non-zero remaining amount to be assigned") {
		t.Errorf("unbalanced splits = %v, want remaining-amount validation", err)
	}

	empty := core.Transaction{AccountID: accountID, Date: core.Today()}
	_, err = svc.Create(ctx, empty)
	if !errors.As(err, &verr) || !strings.Contains(verr.Error(), "Transaction must have at least one split") {
		t.Errorf("no splits = %v, want at-least-one-split validation", err)
	}

	// A valid transaction dated exactly today passes.
	ok := core.Transaction{
		AccountID: accountID,
		Date:      core.Today(),
		Amount:    core.Money{Cents: -100},
		Splits:    []core.TransactionSplit{{CategoryID: groceries, Amount: core.Money{Cents: -100}}},
	}
	if _, err := svc.Create(ctx, ok); err != nil {
		t.Fatalf("Create valid transaction: %v", err)
	}
}

func TestImportServiceIdempotency(t *testing.T) {
	repo := newTestStorage(t)
	accounts := NewAccountService(repo)
	svc := NewImportService(repo)
	ctx := context.Background()

	if _, err := accounts.Create(ctx, core.Account{Name: "Checking", Category: core.AccountCash}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	msg := amqp.NewTransactionImportMessage("bank:row-1", "Checking", core.Today().String(), "-12.34", "Market", "Groceries", "CARD 0815")

	id, err := svc.Import(ctx, msg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if id == 0 {
		t.Fatal("first import should create a transaction")
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Linked {
		t.Error("imported transaction should be linked")
	}
	if got.Amount.Cents != -1234 {
		t.Errorf("amount = %d, want -1234", got.Amount.Cents)
	}
	if got.Splits[0].CategoryID != categoryID(t, repo, "Groceries") {
		t.Error("split should map to the named category")
	}

	// Replaying the same message is a no-op.
	again, err := svc.Import(ctx, msg)
	if err != nil {
		t.Fatalf("replayed Import: %v", err)
	}
	if again != 0 {
		t.Error("replayed import should not create a second transaction")
	}
	all, err := repo.ListTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("transactions = %d, want 1", len(all))
	}

	// Linked transactions refuse deletion.
	txns := NewTransactionService(repo)
	if err := txns.Delete(ctx, id); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete linked = %v, want ErrForbidden", err)
	}
}

func TestImportServiceUnknownCategoryFallsBack(t *testing.T) {
	repo := newTestStorage(t)
	accounts := NewAccountService(repo)
	svc := NewImportService(repo)
	ctx := context.Background()

	if _, err := accounts.Create(ctx, core.Account{Name: "Checking", Category: core.AccountCash}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	msg := amqp.NewTransactionImportMessage("bank:row-2", "Checking", core.Today().String(), "-1.00", "Kiosk", "No Such Category", "")
	id, err := svc.Import(ctx, msg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Splits[0].CategoryID != categoryID(t, repo, core.UncategorizedName) {
		t.Error("unknown category should fall back to Uncategorized")
	}
}

func TestReportServiceEmergencyFund(t *testing.T) {
	repo := newTestStorage(t)
	accounts := NewAccountService(repo)
	txns := NewTransactionService(repo)
	reports := NewReportService(repo, nil)
	ctx := context.Background()

	accountID, err := accounts.Create(ctx, core.Account{Name: "Savings", Category: core.AccountCash})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	fund := categoryID(t, repo, core.EmergencyFundName)
	groceries := categoryID(t, repo, "Groceries")

	add := func(cat int64, date core.Date, cents int64) {
		t.Helper()
		_, err := txns.Create(ctx, core.Transaction{
			AccountID: accountID,
			Date:      date,
			Amount:    core.Money{Cents: cents},
			Splits:    []core.TransactionSplit{{CategoryID: cat, Amount: core.Money{Cents: cents}}},
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	today := core.Today()
	add(fund, today, 1000)
	// The spend dated today falls inside the current month and is excluded
	// from the rate; the older two drive it.
	add(groceries, today, -10000)
	add(groceries, today.AddDays(-100), -10000)
	add(groceries, today.AddDays(-300), -10000)

	cov, err := reports.EmergencyFund(ctx, 3)
	if err != nil {
		t.Fatalf("EmergencyFund: %v", err)
	}
	if cov.Balance.Cents != 1000 {
		t.Errorf("balance = %d, want 1000", cov.Balance.Cents)
	}
	if cov.Target.Cents != 4931 {
		t.Errorf("target = %d, want 4931", cov.Target.Cents)
	}
	if cov.Additional.Cents != 3931 {
		t.Errorf("additional = %d, want 3931", cov.Additional.Cents)
	}
}

func TestReportServiceBalancesExcludeNothingByDefault(t *testing.T) {
	repo := newTestStorage(t)
	accounts := NewAccountService(repo)
	txns := NewTransactionService(repo)
	reports := NewReportService(repo, nil)
	ctx := context.Background()

	accountID, err := accounts.Create(ctx, core.Account{Name: "Checking", Category: core.AccountCash})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	paychecks := categoryID(t, repo, "Paychecks")
	groceries := categoryID(t, repo, "Groceries")

	for _, tc := range []struct {
		cat   int64
		cents int64
	}{{paychecks, 50000}, {groceries, -12000}} {
		_, err := txns.Create(ctx, core.Transaction{
			AccountID: accountID,
			Date:      core.Today(),
			Amount:    core.Money{Cents: tc.cents},
			Splits:    []core.TransactionSplit{{CategoryID: tc.cat, Amount: core.Money{Cents: tc.cents}}},
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	balances, err := reports.Balances(ctx)
	if err != nil {
		t.Fatalf("Balances: %v", err)
	}
	if got := balances[accountID].Cents; got != 38000 {
		t.Errorf("balance = %d, want 38000", got)
	}
}
