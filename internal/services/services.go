// Package services orchestrates the tracker operations over the repository,
// serializing every read-modify-write cycle and emitting change events.
package services

import (
	"context"
	"errors"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionStore persists the ordered transaction collection.
type TransactionStore interface {
	LoadTransactions(ctx context.Context) []core.Transaction
	SaveTransactions(ctx context.Context, txns []core.Transaction) error
}

// BudgetStore persists the single budget.
type BudgetStore interface {
	LoadBudget(ctx context.Context) *core.Budget
	SaveBudget(ctx context.Context, b core.Budget) error
	ClearBudget(ctx context.Context) error
}

// publish delivers e without letting a delivery failure affect the caller.
func publish(ctx context.Context, n events.Notifier, e events.Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldEvent, string(e.Type),
			log.FieldError, err)
	}
}
