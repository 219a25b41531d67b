package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"aura/internal/analytics"
	"aura/internal/bills"
	"aura/internal/cache"
	"aura/internal/core"
	"aura/internal/log"
	"aura/internal/ports"
)

// UpcomingDays is how far ahead the dashboard looks for due bills.
const UpcomingDays = 14

type DashboardStore interface {
	ports.TransactionStore
	ports.AccountStore
	ports.BillStore
}

// Dashboard is everything the dashboard widgets render.
type Dashboard struct {
	Summary     analytics.Summary  `json:"summary"`
	Insights    analytics.Insights `json:"insights"`
	Upcoming    []bills.Entry      `json:"upcomingBills"`
	Balances    []Balance          `json:"balances"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// DashboardService builds dashboards and caches them per user and filter.
// Entries are keyed by the user's data generation, so any write through the
// other services makes them unreachable.
type DashboardService struct {
	store  DashboardStore
	gens   *cache.Generations
	cache  cache.Cache[Dashboard]
	logger *log.Logger
	now    func() time.Time
}

func NewDashboardService(store DashboardStore, gens *cache.Generations, c cache.Cache[Dashboard], logger *log.Logger) *DashboardService {
	if gens == nil {
		gens = cache.NewGenerations()
	}
	return &DashboardService{
		store:  store,
		gens:   gens,
		cache:  c,
		logger: logger.WithComponent(log.ComponentDashboard),
		now:    time.Now,
	}
}

// Build returns the dashboard for the user's transactions matching f.
func (s *DashboardService) Build(ctx context.Context, userID string, f analytics.Filter) (Dashboard, error) {
	key := s.gens.Key(userID, f.Key())
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Dashboard cache hit", log.FieldUserID, userID)
			return d, nil
		}
	}

	var (
		txs      []core.Transaction
		billList []core.Bill
		accounts []core.BankAccount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		billList, err = s.store.ListBills(gctx, userID)
		if err != nil {
			return fmt.Errorf("list bills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx, userID, "")
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	upcoming, err := bills.Upcoming(billList, now, UpcomingDays)
	if err != nil {
		return Dashboard{}, fmt.Errorf("upcoming bills: %w", err)
	}

	summary := analytics.Summarize(txs, f)
	d := Dashboard{
		Summary:     summary,
		Insights:    analytics.BuildInsights(summary),
		Upcoming:    upcoming,
		Balances:    SumBalances(accounts),
		GeneratedAt: now.UTC(),
	}
	if s.cache != nil {
		s.cache.Set(key, d)
	}
	return d, nil
}

// Summary returns only the aggregated figures.
func (s *DashboardService) Summary(ctx context.Context, userID string, f analytics.Filter) (analytics.Summary, error) {
	d, err := s.Build(ctx, userID, f)
	if err != nil {
		return analytics.Summary{}, err
	}
	return d.Summary, nil
}

// Insights returns the health score and suggestions.
func (s *DashboardService) Insights(ctx context.Context, userID string, f analytics.Filter) (analytics.Insights, error) {
	d, err := s.Build(ctx, userID, f)
	if err != nil {
		return analytics.Insights{}, err
	}
	return d.Insights, nil
}
