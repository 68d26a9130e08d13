package services

import (
	"context"
	"fmt"
	"time"

	"nummus/internal/cache"
	"nummus/internal/core"
	"nummus/internal/ledger"
	"nummus/internal/storage"
)

// ReportService computes derived views over the full posting history. The
// computations are pure (internal/ledger); this layer loads postings, caches
// results, and drops the caches on any write.
type ReportService struct {
	storage    *storage.SQLiteRepository
	series     *cache.LRUCache[[]ledger.Point]
	coverage   *cache.LRUCache[ledger.Coverage]
	allocation *cache.LRUCache[ledger.AllocationReport]
}

func NewReportService(storage *storage.SQLiteRepository, manager *cache.Manager) *ReportService {
	s := &ReportService{
		storage:    storage,
		series:     cache.NewLRUCache[[]ledger.Point](32, 5*time.Minute),
		coverage:   cache.NewLRUCache[ledger.Coverage](8, 5*time.Minute),
		allocation: cache.NewLRUCache[ledger.AllocationReport](8, 5*time.Minute),
	}
	if manager != nil {
		manager.Register(s.series)
		manager.Register(s.coverage)
		manager.Register(s.allocation)
	}
	return s
}

// Invalidate drops every cached report. Handlers call this after a
// successful mutation.
func (s *ReportService) Invalidate() {
	s.series.Purge()
	s.coverage.Purge()
	s.allocation.Purge()
}

// Balances returns the per-account balance as of today.
func (s *ReportService) Balances(ctx context.Context) (map[int64]core.Money, error) {
	postings, err := s.storage.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	return ledger.Balances(postings, core.Today()), nil
}

// NetWorthSeries returns one point per day over [from, to].
func (s *ReportService) NetWorthSeries(ctx context.Context, from, to core.Date) ([]ledger.Point, error) {
	key := from.String() + ":" + to.String()
	if points, ok := s.series.Get(key); ok {
		return points, nil
	}

	postings, err := s.storage.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	points := ledger.NetWorthSeries(postings, from, to)
	s.series.Set(key, points)
	return points, nil
}

// EmergencyFund reports coverage of the emergency fund against the target
// number of months of essential spending. The fund balance is the sum of
// postings in the locked "Emergency Fund" category.
func (s *ReportService) EmergencyFund(ctx context.Context, months int) (ledger.Coverage, error) {
	key := fmt.Sprintf("months:%d", months)
	if cov, ok := s.coverage.Get(key); ok {
		return cov, nil
	}

	fund, err := s.storage.GetCategoryByName(ctx, core.EmergencyFundName)
	if err != nil {
		return ledger.Coverage{}, fmt.Errorf("find emergency fund category: %w", err)
	}
	postings, err := s.storage.ListPostings(ctx)
	if err != nil {
		return ledger.Coverage{}, fmt.Errorf("load postings: %w", err)
	}

	today := core.Today()
	var balance core.Money
	for _, p := range postings {
		if p.CategoryID == fund.ID && !p.Date.After(today) {
			balance = balance.Add(p.Amount)
		}
	}

	cov := ledger.EmergencyFund(balance, postings, today, months)
	s.coverage.Set(key, cov)
	return cov, nil
}

// Allocation returns the portfolio breakdown by asset category and sector
// as of today.
func (s *ReportService) Allocation(ctx context.Context) (ledger.AllocationReport, error) {
	const key = "allocation"
	if report, ok := s.allocation.Get(key); ok {
		return report, nil
	}

	holdings, err := s.storage.Holdings(ctx, core.Today())
	if err != nil {
		return ledger.AllocationReport{}, fmt.Errorf("load holdings: %w", err)
	}
	report := ledger.Allocation(holdings)
	s.allocation.Set(key, report)
	return report, nil
}

// EssentialSpendByMonth buckets essential spending into the trailing months.
func (s *ReportService) EssentialSpendByMonth(ctx context.Context, monthsBack int) ([]ledger.MonthSpend, error) {
	postings, err := s.storage.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load postings: %w", err)
	}
	return ledger.EssentialByMonth(postings, core.Today(), monthsBack), nil
}
