package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
)

// Holding is one asset position: held quantity plus the latest known price.
type Holding struct {
	AssetID  int64
	Name     string
	Category core.AssetCategory
	Quantity decimal.Decimal
	Price    core.Money // latest valuation per unit
	Sectors  []core.SectorWeight
}

// Value returns quantity * price rounded to whole cents.
func (h Holding) Value() core.Money {
	v := h.Quantity.Mul(decimal.NewFromInt(h.Price.Cents)).Round(0)
	return core.Money{Cents: v.IntPart()}
}

// Slice is one labeled share of the portfolio.
type Slice struct {
	Label   string
	Value   core.Money
	Percent decimal.Decimal // 0..100, two decimals
}

// AllocationReport breaks the portfolio down by asset category and by
// sector. Sector values are value-weighted by each asset's sector weights.
type AllocationReport struct {
	Total      core.Money
	ByCategory []Slice
	BySector   []Slice
}

// Allocation computes the value-weighted breakdown of the given holdings.
// Holdings with zero quantity contribute nothing.
func Allocation(holdings []Holding) AllocationReport {
	byCategory := make(map[string]decimal.Decimal)
	bySector := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, h := range holdings {
		value := decimal.NewFromInt(h.Value().Cents)
		if value.IsZero() {
			continue
		}
		total = total.Add(value)
		byCategory[string(h.Category)] = byCategory[string(h.Category)].Add(value)

		assigned := decimal.Zero
		for _, sw := range h.Sectors {
			part := value.Mul(sw.Weight)
			bySector[sw.Sector] = bySector[sw.Sector].Add(part)
			assigned = assigned.Add(part)
		}
		// Value not covered by the sector breakdown stays visible.
		if rest := value.Sub(assigned); rest.IsPositive() {
			bySector["Unclassified"] = bySector["Unclassified"].Add(rest)
		}
	}

	report := AllocationReport{Total: core.Money{Cents: total.Round(0).IntPart()}}
	report.ByCategory = slices(byCategory, total)
	report.BySector = slices(bySector, total)
	return report
}

func slices(values map[string]decimal.Decimal, total decimal.Decimal) []Slice {
	out := make([]Slice, 0, len(values))
	hundred := decimal.NewFromInt(100)
	for label, value := range values {
		s := Slice{Label: label, Value: core.Money{Cents: value.Round(0).IntPart()}}
		if total.IsPositive() {
			s.Percent = value.Mul(hundred).Div(total).Round(2)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value.Cents != out[j].Value.Cents {
			return out[i].Value.Cents > out[j].Value.Cents
		}
		return out[i].Label < out[j].Label
	})
	return out
}
