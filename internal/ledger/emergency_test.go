package ledger

import (
	"testing"

	"nummus/internal/core"
)

func essentialSpend(d core.Date, cents int64) Posting {
	return Posting{AccountID: 1, Date: d, Amount: core.Money{Cents: -cents}, Essential: true}
}

func TestEmergencyFundCoverage(t *testing.T) {
	// $10 fund; one essential $100 spend this month, one 100 days ago and
	// one 300 days ago. The rate window ends at the month start, so the
	// current-month spend does not count: rate = $200/365 per day, 3-month
	// target = $200*90/365 = $49.31, leaving ~$39 still required.
	today := core.NewDate(2024, 6, 15)
	postings := []Posting{
		essentialSpend(today.AddDays(-2), 10000),
		essentialSpend(today.AddDays(-100), 10000),
		essentialSpend(today.AddDays(-300), 10000),
	}

	cov := EmergencyFund(core.Money{Cents: 1000}, postings, today, 3)

	if cov.Target.Cents != 4931 {
		t.Errorf("target = %d cents, want 4931", cov.Target.Cents)
	}
	if cov.Additional.Cents != 3931 {
		t.Errorf("additional required = %d cents, want 3931 (~$39)", cov.Additional.Cents)
	}
	if cov.MonthlySpend.Cents != 1643 {
		t.Errorf("monthly spend = %d cents, want 1643", cov.MonthlySpend.Cents)
	}
}

func TestEmergencyFundFullyFunded(t *testing.T) {
	today := core.NewDate(2024, 6, 15)
	postings := []Posting{essentialSpend(today.AddDays(-100), 10000)}

	cov := EmergencyFund(core.Money{Cents: 100000}, postings, today, 3)
	if !cov.Additional.IsZero() {
		t.Errorf("funded target should need nothing more, got %d", cov.Additional.Cents)
	}
	if cov.Months.IsZero() {
		t.Error("months covered should be positive")
	}
}

func TestEmergencyFundNoSpendHistory(t *testing.T) {
	today := core.NewDate(2024, 6, 15)
	cov := EmergencyFund(core.Money{Cents: 500}, nil, today, 3)
	if !cov.Target.IsZero() || !cov.Additional.IsZero() {
		t.Errorf("no history should yield zero target, got %+v", cov)
	}
}
