package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
)

type BudgetService struct {
	mu       sync.Mutex
	store    BudgetStore
	notifier events.Notifier
}

func NewBudgetService(store BudgetStore, notifier events.Notifier) *BudgetService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &BudgetService{store: store, notifier: notifier}
}

// Create stores the candidate as the budget. It fails with budget.ErrBudgetActive,
// leaving the store untouched, while the stored budget is still active at now.
func (s *BudgetService) Create(ctx context.Context, c budget.Candidate, now time.Time) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := budget.Admit(s.store.LoadBudget(ctx), now); err != nil {
		return core.Budget{}, err
	}
	b, err := budget.Validate(c)
	if err != nil {
		return core.Budget{}, err
	}
	if err := s.store.SaveBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		log.FieldComponent, log.ComponentBudget,
		log.FieldOperation, log.OpCreate,
		"start", b.Start.String(),
		"end", b.End.String(),
		log.FieldAmountCents, b.Total.Cents,
		log.FieldCurrency, string(b.Currency))

	e := events.New(events.BudgetCreated, now)
	e.Budget = &b
	publish(ctx, s.notifier, e)
	return b, nil
}

// Delete clears the stored budget, failing with budget.ErrNoBudget when there is none.
func (s *BudgetService) Delete(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.store.LoadBudget(ctx)
	if existing == nil {
		return budget.ErrNoBudget
	}
	if err := s.store.ClearBudget(ctx); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget deleted",
		log.FieldComponent, log.ComponentBudget,
		log.FieldOperation, log.OpDelete)

	e := events.New(events.BudgetDeleted, now)
	e.Budget = existing
	publish(ctx, s.notifier, e)
	return nil
}

// Current returns the stored budget, active or not, or nil.
func (s *BudgetService) Current(ctx context.Context) *core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadBudget(ctx)
}

func (s *BudgetService) Active(ctx context.Context, now time.Time) bool {
	return s.Current(ctx).Active(now)
}
