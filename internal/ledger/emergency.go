package ledger

import (
	"github.com/shopspring/decimal"

	"nummus/internal/core"
)

// spendWindowDays is the lookback used to estimate the essential spending
// rate. The window ends at the start of the current month so a partial
// month never skews the rate.
const spendWindowDays = 365

// Coverage describes how far an emergency fund stretches against trailing
// essential spending.
type Coverage struct {
	Balance      core.Money
	MonthlySpend core.Money // essential daily rate * 30
	Target       core.Money // MonthlySpend * target months
	Additional   core.Money // Target - Balance, floored at zero
	Months       decimal.Decimal
}

// EmergencyFund computes coverage of balance against a target of the given
// number of months of essential spending. The rate comes from essential
// postings in the 365 days before the current month; spending is the
// magnitude of negative essential postings.
func EmergencyFund(balance core.Money, postings []Posting, today core.Date, months int) Coverage {
	windowEnd := today.MonthStart()
	windowStart := windowEnd.AddDays(-spendWindowDays)

	var spend core.Money
	for _, p := range postings {
		if !p.Essential || !p.Amount.IsNegative() {
			continue
		}
		if p.Date.Before(windowStart) || !p.Date.Before(windowEnd) {
			continue
		}
		spend = spend.Add(p.Amount.Abs())
	}

	cov := Coverage{Balance: balance}
	cov.MonthlySpend = core.Money{Cents: spend.Cents * 30 / spendWindowDays}
	cov.Target = core.Money{Cents: spend.Cents * 30 * int64(months) / spendWindowDays}

	if additional := cov.Target.Sub(balance); !additional.IsNegative() {
		cov.Additional = additional
	}
	if cov.MonthlySpend.Cents > 0 {
		cov.Months = decimal.NewFromInt(balance.Cents).
			Div(decimal.NewFromInt(cov.MonthlySpend.Cents)).
			Round(2)
	}
	return cov
}
