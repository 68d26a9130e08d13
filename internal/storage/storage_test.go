package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAccount(t *testing.T, repo *SQLiteRepository, name string) int64 {
	t.Helper()
	id, err := repo.CreateAccount(context.Background(), core.Account{
		Name: name, Institution: "Test Bank", Category: core.AccountCash,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return id
}

func mustCategoryID(t *testing.T, repo *SQLiteRepository, name string) int64 {
	t.Helper()
	c, err := repo.GetCategoryByName(context.Background(), name)
	if err != nil {
		t.Fatalf("GetCategoryByName(%q): %v", name, err)
	}
	return c.ID
}

func simpleTxn(account, category int64, date core.Date, cents int64) core.Transaction {
	return core.Transaction{
		AccountID: account,
		Date:      date,
		Amount:    core.Money{Cents: cents},
		Splits: []core.TransactionSplit{
			{CategoryID: category, Amount: core.Money{Cents: cents}, Payee: "Test Payee"},
		},
	}
}

func TestMigrationsSeedCatalog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 19 {
		t.Fatalf("seeded categories = %d, want 19", len(cats))
	}

	uncat, err := repo.GetCategoryByName(ctx, core.UncategorizedName)
	if err != nil {
		t.Fatalf("GetCategoryByName: %v", err)
	}
	if !uncat.Locked {
		t.Error("Uncategorized should be locked")
	}

	groceries, err := repo.GetCategoryByName(ctx, "Groceries")
	if err != nil {
		t.Fatalf("GetCategoryByName: %v", err)
	}
	if groceries.Locked || !groceries.Essential {
		t.Errorf("Groceries locked=%v essential=%v, want unlocked essential", groceries.Locked, groceries.Essential)
	}

	// Income groups sort before expense groups.
	if cats[0].Group != core.GroupIncome {
		t.Errorf("first catalog group = %q, want income", cats[0].Group)
	}
}

func TestDuplicateAccountNameTranslated(t *testing.T) {
	repo := newTestRepo(t)
	mustAccount(t, repo, "Checking")

	_, err := repo.CreateAccount(context.Background(), core.Account{
		Name: "Checking", Category: core.AccountCash,
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("duplicate name error = %v, want ValidationError", err)
	}
	if got := verr.Error(); !strings.Contains(got, "Name must be unique") {
		t.Errorf("message = %q, want unique-name message", got)
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")
	rent := mustCategoryID(t, repo, "Rent")

	txn := core.Transaction{
		AccountID: account,
		Date:      core.NewDate(2026, 8, 15),
		Amount:    core.Money{Cents: -15000},
		Statement: "CARD PURCHASE 0815",
		Splits: []core.TransactionSplit{
			{CategoryID: groceries, Amount: core.Money{Cents: -5000}, Payee: "Market"},
			{CategoryID: rent, Amount: core.Money{Cents: -10000}, Payee: "Landlord"},
		},
	}
	id, err := repo.CreateTransaction(ctx, txn)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Amount.Cents != -15000 {
		t.Errorf("amount = %d, want -15000", got.Amount.Cents)
	}
	if len(got.Splits) != 2 {
		t.Fatalf("splits = %d, want 2", len(got.Splits))
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
	if got.Splits[0].Payee != "Market" || got.Splits[1].Payee != "Landlord" {
		t.Errorf("split payees = %q, %q", got.Splits[0].Payee, got.Splits[1].Payee)
	}
}

func TestReplaceTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")
	shopping := mustCategoryID(t, repo, "Shopping")

	id, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 8, 1), -2000))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	newSplits := []core.TransactionSplit{
		{CategoryID: groceries, Amount: core.Money{Cents: -1500}},
		{CategoryID: shopping, Amount: core.Money{Cents: -1000}},
	}
	err = repo.ReplaceTransaction(ctx, id, 1, core.NewDate(2026, 8, 2), "EDITED", core.Money{Cents: -2500}, newSplits)
	if err != nil {
		t.Fatalf("ReplaceTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
	if got.Amount.Cents != -2500 || len(got.Splits) != 2 {
		t.Errorf("amount = %d splits = %d, want -2500 with 2 splits", got.Amount.Cents, len(got.Splits))
	}

	// A stale version must be rejected and must not touch the splits.
	err = repo.ReplaceTransaction(ctx, id, 1, core.NewDate(2026, 8, 3), "", core.Money{Cents: -1}, newSplits[:1])
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("stale replace error = %v, want ValidationError", err)
	}
	got, err = repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Amount.Cents != -2500 || len(got.Splits) != 2 {
		t.Error("stale replace modified the transaction")
	}

	if err := repo.ReplaceTransaction(ctx, 9999, 1, core.NewDate(2026, 8, 3), "", core.Money{}, newSplits); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("replace of missing transaction = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")

	id, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 8, 1), -2000))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}

	linked := simpleTxn(account, groceries, core.NewDate(2026, 8, 2), -500)
	linked.Linked = true
	linked.ImportID = "import-1"
	linkedID, err := repo.CreateTransaction(ctx, linked)
	if err != nil {
		t.Fatalf("CreateTransaction linked: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, linkedID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete of linked transaction = %v, want ErrForbidden", err)
	}
}

func TestImportSeen(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")

	seen, err := repo.ImportSeen(ctx, "batch-1:0")
	if err != nil || seen {
		t.Fatalf("ImportSeen before insert = %v, %v", seen, err)
	}

	txn := simpleTxn(account, groceries, core.NewDate(2026, 8, 1), -500)
	txn.Linked = true
	txn.ImportID = "batch-1:0"
	if _, err := repo.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	seen, err = repo.ImportSeen(ctx, "batch-1:0")
	if err != nil || !seen {
		t.Fatalf("ImportSeen after insert = %v, %v", seen, err)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	checking := mustAccount(t, repo, "Checking")
	savings := mustAccount(t, repo, "Savings")
	groceries := mustCategoryID(t, repo, "Groceries")
	rent := mustCategoryID(t, repo, "Rent")

	for _, tc := range []struct {
		account, category int64
		date              core.Date
		cents             int64
	}{
		{checking, groceries, core.NewDate(2026, 8, 1), -100},
		{checking, rent, core.NewDate(2026, 8, 10), -200},
		{savings, groceries, core.NewDate(2026, 8, 20), -300},
	} {
		if _, err := repo.CreateTransaction(ctx, simpleTxn(tc.account, tc.category, tc.date, tc.cents)); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	all, err := repo.ListTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered = %d, want 3", len(all))
	}
	if !all[0].Date.Equal(core.NewDate(2026, 8, 20)) {
		t.Errorf("first listed date = %s, want newest first", all[0].Date)
	}

	byAccount, err := repo.ListTransactions(ctx, core.TransactionFilter{AccountID: checking})
	if err != nil {
		t.Fatalf("ListTransactions by account: %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("by account = %d, want 2", len(byAccount))
	}

	byCategory, err := repo.ListTransactions(ctx, core.TransactionFilter{CategoryID: rent})
	if err != nil {
		t.Fatalf("ListTransactions by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Amount.Cents != -200 {
		t.Errorf("by category = %+v, want the single rent transaction", byCategory)
	}

	ranged, err := repo.ListTransactions(ctx, core.TransactionFilter{
		Start: core.NewDate(2026, 8, 5), End: core.NewDate(2026, 8, 15),
	})
	if err != nil {
		t.Fatalf("ListTransactions by range: %v", err)
	}
	if len(ranged) != 1 || ranged[0].Amount.Cents != -200 {
		t.Errorf("by range = %d, want only the 2026-08-10 transaction", len(ranged))
	}
}

func TestDeleteCategoryReassignsSplits(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")

	hobby, err := repo.CreateCategory(ctx, core.TransactionCategory{Name: "Hobby", Group: core.GroupExpense})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	id, err := repo.CreateTransaction(ctx, simpleTxn(account, hobby, core.NewDate(2026, 8, 1), -900))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := repo.DeleteCategory(ctx, hobby); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	uncat := mustCategoryID(t, repo, core.UncategorizedName)
	if got.Splits[0].CategoryID != uncat {
		t.Errorf("split category = %d, want reassigned to Uncategorized (%d)", got.Splits[0].CategoryID, uncat)
	}
}

func TestLockedCategoryRefusesChanges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uncat := mustCategoryID(t, repo, core.UncategorizedName)

	if err := repo.RenameCategory(ctx, uncat, "Misc", false); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("rename locked = %v, want ErrForbidden", err)
	}
	if err := repo.DeleteCategory(ctx, uncat); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("delete locked = %v, want ErrForbidden", err)
	}
}

func TestCloseAccountBalanceGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	paychecks := mustCategoryID(t, repo, "Paychecks")
	groceries := mustCategoryID(t, repo, "Groceries")
	today := core.NewDate(2026, 8, 30)

	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, paychecks, core.NewDate(2026, 8, 1), 10000)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	err := repo.SetAccountClosed(ctx, account, true, today)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("close with balance = %v, want ValidationError", err)
	}
	if !strings.Contains(verr.Error(), "non-zero balance") {
		t.Errorf("message = %q", verr.Error())
	}

	// Spend it down to zero and closing succeeds.
	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 8, 15), -10000)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := repo.SetAccountClosed(ctx, account, true, today); err != nil {
		t.Fatalf("close with zero balance: %v", err)
	}

	got, err := repo.GetAccount(ctx, account)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.Closed {
		t.Error("account should be closed")
	}
}

func TestListPostings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")
	restaurants := mustCategoryID(t, repo, "Restaurants")

	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 8, 1), -1000)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, restaurants, core.NewDate(2026, 8, 2), -2000)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	postings, err := repo.ListPostings(ctx)
	if err != nil {
		t.Fatalf("ListPostings: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("postings = %d, want 2", len(postings))
	}
	if !postings[0].Essential {
		t.Error("groceries posting should be essential")
	}
	if postings[1].Essential {
		t.Error("restaurants posting should not be essential")
	}
}

func TestAssetsAndHoldings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Brokerage")
	traded := mustCategoryID(t, repo, "Securities Traded")
	asOf := core.NewDate(2026, 8, 30)

	assetID, err := repo.CreateAsset(ctx, core.Asset{
		Name: "Total Market Fund", Category: core.AssetStocks, Ticker: "TMF",
		Sectors: []core.SectorWeight{
			{Sector: "Technology", Weight: decimal.RequireFromString("0.6")},
			{Sector: "Healthcare", Weight: decimal.RequireFromString("0.4")},
		},
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	buy := core.Transaction{
		AccountID: account,
		Date:      core.NewDate(2026, 8, 1),
		Amount:    core.Money{Cents: -30000},
		Splits: []core.TransactionSplit{{
			CategoryID: traded, Amount: core.Money{Cents: -30000},
			AssetID: assetID, AssetQuantity: decimal.RequireFromString("3"),
		}},
	}
	if _, err := repo.CreateTransaction(ctx, buy); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	val := core.AssetValuation{AssetID: assetID, Date: core.NewDate(2026, 8, 10), Value: core.Money{Cents: 11000}}
	if err := repo.UpsertValuation(ctx, val); err != nil {
		t.Fatalf("UpsertValuation: %v", err)
	}
	// Same-day upsert replaces instead of failing.
	val.Value = core.Money{Cents: 12000}
	if err := repo.UpsertValuation(ctx, val); err != nil {
		t.Fatalf("UpsertValuation replace: %v", err)
	}
	vals, err := repo.ListValuations(ctx, assetID)
	if err != nil {
		t.Fatalf("ListValuations: %v", err)
	}
	if len(vals) != 1 || vals[0].Value.Cents != 12000 {
		t.Fatalf("valuations = %+v, want one row at 12000", vals)
	}

	holdings, err := repo.Holdings(ctx, asOf)
	if err != nil {
		t.Fatalf("Holdings: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(holdings))
	}
	h := holdings[0]
	if !h.Quantity.Equal(decimal.RequireFromString("3")) {
		t.Errorf("quantity = %s, want 3", h.Quantity)
	}
	if h.Price.Cents != 12000 {
		t.Errorf("price = %d, want 12000", h.Price.Cents)
	}
	if h.Value().Cents != 36000 {
		t.Errorf("value = %d, want 36000", h.Value().Cents)
	}
	if len(h.Sectors) != 2 {
		t.Errorf("sectors = %d, want 2", len(h.Sectors))
	}
}

func TestBudgetMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := mustAccount(t, repo, "Checking")
	groceries := mustCategoryID(t, repo, "Groceries")

	err := repo.SetAssignment(ctx, core.BudgetAssignment{
		CategoryID: groceries, Month: "2026-08", Assigned: core.Money{Cents: 40000},
	})
	if err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}
	// Upsert replaces the existing amount.
	err = repo.SetAssignment(ctx, core.BudgetAssignment{
		CategoryID: groceries, Month: "2026-08", Assigned: core.Money{Cents: 45000},
	})
	if err != nil {
		t.Fatalf("SetAssignment upsert: %v", err)
	}

	// Activity inside the month counts, the next month's does not.
	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 8, 12), -12000)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, simpleTxn(account, groceries, core.NewDate(2026, 9, 1), -999)); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	rows, err := repo.ListBudgetMonth(ctx, "2026-08")
	if err != nil {
		t.Fatalf("ListBudgetMonth: %v", err)
	}
	var found bool
	for _, row := range rows {
		if row.Category.ID != groceries {
			continue
		}
		found = true
		if row.Assigned.Cents != 45000 {
			t.Errorf("assigned = %d, want 45000", row.Assigned.Cents)
		}
		if row.Activity.Cents != -12000 {
			t.Errorf("activity = %d, want -12000", row.Activity.Cents)
		}
	}
	if !found {
		t.Fatal("groceries row missing from budget month")
	}
}

func TestTranslateConstraint(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"single column",
			"constraint failed: UNIQUE constraint failed: accounts.name (1555)",
			"Name must be unique",
		},
		{
			"composite valuation index",
			"constraint failed: UNIQUE constraint failed: asset_valuations.asset_id, asset_valuations.date (2067)",
			"Date must be unique",
		},
		{
			"composite budget index",
			"constraint failed: UNIQUE constraint failed: budget_assignments.category_id, budget_assignments.month (2067)",
			"Month must be unique",
		},
		{
			"unknown column",
			"constraint failed: UNIQUE constraint failed: mystery.col (1555)",
			"Record must be unique",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := translateConstraint(errors.New(tc.in))
			if !core.IsValidation(err) {
				t.Fatalf("translateConstraint returned %v, want validation error", err)
			}
			if err.Error() != tc.want {
				t.Errorf("message = %q, want %q", err.Error(), tc.want)
			}
		})
	}

	passthrough := errors.New("database is locked")
	if got := translateConstraint(passthrough); got != passthrough {
		t.Errorf("non-constraint error rewritten to %v", got)
	}
}
