package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Account categories.
	AccountCash       AccountCategory = "cash"
	AccountCredit     AccountCategory = "credit"
	AccountInvestment AccountCategory = "investment"
	AccountMortgage   AccountCategory = "mortgage"
	AccountLoan       AccountCategory = "loan"
	AccountFixed      AccountCategory = "fixed"
	AccountOther      AccountCategory = "other"

	// Category groups, in display order.
	GroupIncome   CategoryGroup = "income"
	GroupExpense  CategoryGroup = "expense"
	GroupTransfer CategoryGroup = "transfer"
	GroupOther    CategoryGroup = "other"

	// Asset categories.
	AssetStocks     AssetCategory = "stocks"
	AssetBonds      AssetCategory = "bonds"
	AssetCashAsset  AssetCategory = "cash"
	AssetRealEstate AssetCategory = "real-estate"
	AssetCrypto     AssetCategory = "crypto"
	AssetItem       AssetCategory = "item"
)

// UncategorizedName is the locked fallback category. Splits of a deleted
// category are reassigned here instead of cascading.
const UncategorizedName = "Uncategorized"

// EmergencyFundName is the locked category whose postings make up the
// emergency fund balance.
const EmergencyFundName = "Emergency Fund"

type (
	AccountCategory string
	CategoryGroup   string
	AssetCategory   string

	Account struct {
		ID          int64
		Name        string
		Institution string
		Category    AccountCategory
		Closed      bool
	}

	TransactionCategory struct {
		ID        int64
		Name      string
		Group     CategoryGroup
		Locked    bool
		Essential bool
	}

	// TransactionSplit attributes a portion of a transaction's amount to
	// one category. Asset fields are set for investment trades/dividends.
	TransactionSplit struct {
		ID            int64
		CategoryID    int64
		Amount        Money
		Payee         string
		Memo          string
		Tag           string
		AssetID       int64 // zero when the split has no asset leg
		AssetQuantity decimal.Decimal
	}

	// Transaction is the parent of one or more splits. Amount is always the
	// sum of the split amounts. Linked transactions come from imports and
	// are restricted from deletion. Version guards concurrent edits.
	Transaction struct {
		ID        int64
		AccountID int64
		Date      Date
		Amount    Money
		Statement string
		Locked    bool
		Linked    bool
		ImportID  string
		Version   int64
		Splits    []TransactionSplit
	}

	Asset struct {
		ID       int64
		Name     string
		Category AssetCategory
		Ticker   string
		Sectors  []SectorWeight
	}

	// SectorWeight is one slice of an asset's sector breakdown.
	// Weights across an asset should sum to 1.
	SectorWeight struct {
		Sector string
		Weight decimal.Decimal
	}

	// AssetValuation is a point value, unique per (asset, date).
	AssetValuation struct {
		ID      int64
		AssetID int64
		Date    Date
		Value   Money
	}

	// BudgetAssignment allocates an amount to a category for one month
	// (formatted "2006-01").
	BudgetAssignment struct {
		ID         int64
		CategoryID int64
		Month      string
		Assigned   Money
	}

	// TransactionFilter narrows transaction listings. Zero fields match all.
	TransactionFilter struct {
		AccountID  int64
		CategoryID int64
		Start      Date
		End        Date
		Limit      int
	}
)

// ValidAccountCategory reports whether c is one of the known account kinds.
func ValidAccountCategory(c AccountCategory) bool {
	switch c {
	case AccountCash, AccountCredit, AccountInvestment, AccountMortgage, AccountLoan, AccountFixed, AccountOther:
		return true
	}
	return false
}

// ValidCategoryGroup reports whether g is a known category group.
func ValidCategoryGroup(g CategoryGroup) bool {
	switch g {
	case GroupIncome, GroupExpense, GroupTransfer, GroupOther:
		return true
	}
	return false
}

// GroupOrder returns the sort rank of a group for catalog listings.
func GroupOrder(g CategoryGroup) int {
	switch g {
	case GroupIncome:
		return 0
	case GroupExpense:
		return 1
	case GroupTransfer:
		return 2
	default:
		return 3
	}
}

func (a Account) Validate() error {
	var p Problems
	p.Require("Name", a.Name)
	p.MinLength("Name", a.Name, 2)
	if a.Category == "" || !ValidAccountCategory(a.Category) {
		p.None("Category")
	}
	return p.Err()
}

func (c TransactionCategory) Validate() error {
	var p Problems
	p.Require("Name", c.Name)
	p.MinLength("Name", c.Name, 3)
	if c.Group == "" || !ValidCategoryGroup(c.Group) {
		p.None("Group")
	}
	return p.Err()
}

// Validate checks the transaction against today. Future-dated transactions
// are rejected, the split set must be non-empty, and the split amounts must
// add up to the transaction amount exactly.
func (t Transaction) Validate(today Date) error {
	var p Problems
	if t.Date.IsZero() {
		p.Require("Date", "")
	} else if t.Date.After(today) {
		p.Add("Cannot create future transaction")
	}
	if t.AccountID == 0 {
		p.None("Account")
	}
	if len(t.Splits) == 0 {
		p.Add("Transaction must have at least one split")
	} else {
		var sum Money
		for _, sp := range t.Splits {
			if sp.CategoryID == 0 {
				p.None("Category")
			}
			sum = sum.Add(sp.Amount)
		}
		if sum != t.Amount {
			p.Add("Non-zero remaining amount to be assigned")
		}
	}
	return p.Err()
}

func (a Asset) Validate() error {
	var p Problems
	p.Require("Name", a.Name)
	p.MinLength("Name", a.Name, 2)
	if a.Category == "" {
		p.None("Category")
	}
	return p.Err()
}

func (b BudgetAssignment) Validate() error {
	var p Problems
	if b.CategoryID == 0 {
		p.None("Category")
	}
	if _, err := ParseMonth(b.Month); err != nil {
		p.Add("Month must be formatted YYYY-MM")
	}
	return p.Err()
}

// NormalizeName trims surrounding whitespace; stored names are always
// normalized before validation and persistence.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}
