// Package ledger computes derived views over raw split postings: account
// balances, net worth series, emergency-fund coverage and asset allocation.
// Every function is pure and takes an explicit reference date, so callers
// (and tests) control what "today" means.
package ledger

import (
	"sort"

	"nummus/internal/core"
)

// Posting is one split flattened with its transaction's account and date.
// It is the engine's only input shape.
type Posting struct {
	AccountID  int64
	Date       core.Date
	Amount     core.Money
	CategoryID int64
	Essential  bool
}

// Point is one day of a balance or net-worth series.
type Point struct {
	Date  core.Date
	Total core.Money
}

// AccountBalance returns the cumulative signed sum of the account's postings
// up to and including asOf. Postings dated after asOf never count, which is
// what keeps future-dated transactions out of the "current" balance.
func AccountBalance(postings []Posting, accountID int64, asOf core.Date) core.Money {
	var total core.Money
	for _, p := range postings {
		if p.AccountID != accountID || p.Date.After(asOf) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// Balances returns the per-account balance as of the given date.
func Balances(postings []Posting, asOf core.Date) map[int64]core.Money {
	totals := make(map[int64]core.Money)
	for _, p := range postings {
		if p.Date.After(asOf) {
			continue
		}
		totals[p.AccountID] = totals[p.AccountID].Add(p.Amount)
	}
	return totals
}

// NetWorth sums every account balance as of the given date.
func NetWorth(postings []Posting, asOf core.Date) core.Money {
	var total core.Money
	for _, p := range postings {
		if p.Date.After(asOf) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// NetWorthSeries returns one point per day over [from, to], each point
// carrying the cumulative net worth up to that day.
func NetWorthSeries(postings []Posting, from, to core.Date) []Point {
	if to.Before(from) {
		return nil
	}

	sorted := make([]Posting, len(postings))
	copy(sorted, postings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var running core.Money
	i := 0
	// Roll everything dated before the window into the opening balance.
	for i < len(sorted) && sorted[i].Date.Before(from) {
		running = running.Add(sorted[i].Amount)
		i++
	}

	days := from.DaysUntil(to) + 1
	series := make([]Point, 0, days)
	for day := from; !day.After(to); day = day.AddDays(1) {
		for i < len(sorted) && !sorted[i].Date.After(day) {
			running = running.Add(sorted[i].Amount)
			i++
		}
		series = append(series, Point{Date: day, Total: running})
	}
	return series
}

// MonthSpend is the essential spend bucketed into one calendar month.
type MonthSpend struct {
	Month string
	Spend core.Money
}

// EssentialByMonth buckets essential spending (negative essential postings,
// reported as magnitudes) into the trailing monthsBack calendar months,
// oldest first, including the current month.
func EssentialByMonth(postings []Posting, today core.Date, monthsBack int) []MonthSpend {
	buckets := make(map[string]core.Money)
	start := core.NewDate(today.Year(), int(today.Month())-monthsBack+1, 1)
	for _, p := range postings {
		if !p.Essential || !p.Amount.IsNegative() {
			continue
		}
		if p.Date.Before(start) || p.Date.After(today) {
			continue
		}
		key := p.Date.MonthKey()
		buckets[key] = buckets[key].Add(p.Amount.Abs())
	}

	out := make([]MonthSpend, 0, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		m := core.NewDate(today.Year(), int(today.Month())-i, 1)
		key := m.MonthKey()
		out = append(out, MonthSpend{Month: key, Spend: buckets[key]})
	}
	return out
}
