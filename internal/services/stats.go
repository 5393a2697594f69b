package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/stats"
)

// StatsService derives fresh statistics on every call; nothing is cached.
type StatsService struct {
	txns     *TransactionService
	budgets  *BudgetService
	currency *currency.Service
	engine   *stats.Engine
}

func NewStatsService(txns *TransactionService, budgets *BudgetService, cur *currency.Service) *StatsService {
	return &StatsService{
		txns:     txns,
		budgets:  budgets,
		currency: cur,
		engine:   stats.NewEngine(cur.Converter()),
	}
}

// Snapshot computes the statistics in the current display currency.
func (s *StatsService) Snapshot(ctx context.Context, now time.Time) (core.Stats, error) {
	return s.SnapshotIn(ctx, s.currency.Current(), now)
}

// SnapshotIn computes the statistics in display.
func (s *StatsService) SnapshotIn(ctx context.Context, display core.Currency, now time.Time) (core.Stats, error) {
	st, err := s.engine.Compute(s.txns.List(ctx), s.budgets.Current(ctx), display, now)
	if err != nil {
		return core.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return st, nil
}

// Report renders the statistics summary in the current display currency.
func (s *StatsService) Report(ctx context.Context, now time.Time) (stats.Report, error) {
	st, err := s.Snapshot(ctx, now)
	if err != nil {
		return stats.Report{}, err
	}
	return stats.BuildReport(st), nil
}
