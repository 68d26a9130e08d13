package ledger

import (
	"testing"

	"nummus/internal/core"
)

func TestAccountBalanceExcludesFuture(t *testing.T) {
	today := core.NewDate(2024, 6, 15)
	postings := []Posting{
		{AccountID: 1, Date: core.NewDate(2024, 6, 1), Amount: core.Money{Cents: 10000}},
		{AccountID: 1, Date: core.NewDate(2024, 6, 10), Amount: core.Money{Cents: -2500}},
		{AccountID: 1, Date: core.NewDate(2024, 6, 20), Amount: core.Money{Cents: -5000}}, // future
		{AccountID: 2, Date: core.NewDate(2024, 6, 5), Amount: core.Money{Cents: 777}},
	}

	if got := AccountBalance(postings, 1, today); got.Cents != 7500 {
		t.Errorf("balance = %d, want 7500", got.Cents)
	}
	// Future posting counts once asOf reaches it.
	if got := AccountBalance(postings, 1, core.NewDate(2024, 6, 20)); got.Cents != 2500 {
		t.Errorf("balance incl 6/20 = %d, want 2500", got.Cents)
	}
}

func TestDepositAndPurchaseNetToZero(t *testing.T) {
	// Account with a $100 deposit and a -$100 purchase has a $0 balance,
	// which is what allows closing it.
	today := core.NewDate(2024, 6, 15)
	postings := []Posting{
		{AccountID: 1, Date: core.NewDate(2024, 5, 1), Amount: core.Money{Cents: 10000}},
		{AccountID: 1, Date: core.NewDate(2024, 5, 20), Amount: core.Money{Cents: -10000}},
	}
	if got := AccountBalance(postings, 1, today); !got.IsZero() {
		t.Errorf("balance = %d, want 0", got.Cents)
	}
}

func TestNetWorthSeries(t *testing.T) {
	postings := []Posting{
		{AccountID: 1, Date: core.NewDate(2024, 5, 30), Amount: core.Money{Cents: 5000}}, // before window
		{AccountID: 1, Date: core.NewDate(2024, 6, 2), Amount: core.Money{Cents: 1000}},
		{AccountID: 2, Date: core.NewDate(2024, 6, 2), Amount: core.Money{Cents: 2000}},
		{AccountID: 1, Date: core.NewDate(2024, 6, 4), Amount: core.Money{Cents: -500}},
	}
	series := NetWorthSeries(postings, core.NewDate(2024, 6, 1), core.NewDate(2024, 6, 4))
	if len(series) != 4 {
		t.Fatalf("series length = %d, want 4", len(series))
	}
	wants := []int64{5000, 8000, 8000, 7500}
	for i, want := range wants {
		if series[i].Total.Cents != want {
			t.Errorf("day %d total = %d, want %d", i, series[i].Total.Cents, want)
		}
	}
}

func TestNetWorthSeriesEmptyRange(t *testing.T) {
	if s := NetWorthSeries(nil, core.NewDate(2024, 6, 2), core.NewDate(2024, 6, 1)); s != nil {
		t.Errorf("inverted range should yield nil, got %v", s)
	}
}

func TestEssentialByMonth(t *testing.T) {
	today := core.NewDate(2024, 6, 15)
	postings := []Posting{
		{AccountID: 1, Date: core.NewDate(2024, 6, 3), Amount: core.Money{Cents: -4000}, Essential: true},
		{AccountID: 1, Date: core.NewDate(2024, 5, 10), Amount: core.Money{Cents: -6000}, Essential: true},
		{AccountID: 1, Date: core.NewDate(2024, 5, 12), Amount: core.Money{Cents: -9999}, Essential: false}, // not essential
		{AccountID: 1, Date: core.NewDate(2024, 5, 13), Amount: core.Money{Cents: 2000}, Essential: true},   // refund, not spend
		{AccountID: 1, Date: core.NewDate(2024, 1, 1), Amount: core.Money{Cents: -1000}, Essential: true},   // out of window
	}
	got := EssentialByMonth(postings, today, 3)
	if len(got) != 3 {
		t.Fatalf("buckets = %d, want 3", len(got))
	}
	if got[0].Month != "2024-04" || got[0].Spend.Cents != 0 {
		t.Errorf("april = %+v", got[0])
	}
	if got[1].Month != "2024-05" || got[1].Spend.Cents != 6000 {
		t.Errorf("may = %+v", got[1])
	}
	if got[2].Month != "2024-06" || got[2].Spend.Cents != 4000 {
		t.Errorf("june = %+v", got[2])
	}
}
