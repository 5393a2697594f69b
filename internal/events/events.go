// Package events describes the change feed emitted after every committed mutation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
	BudgetCreated      Type = "budget.created"
	BudgetDeleted      Type = "budget.deleted"
	CurrencyChanged    Type = "currency.changed"
)

// CurrencySwitch is the payload of a CurrencyChanged event.
type CurrencySwitch struct {
	Previous core.Currency `json:"previous"`
	Current  core.Currency `json:"current"`
}

type Event struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	// Renumbered is how many transactions changed id after a delete.
	Renumbered int             `json:"renumbered,omitempty"`
	Budget     *core.Budget    `json:"budget,omitempty"`
	Currency   *CurrencySwitch `json:"currency,omitempty"`
}

// New stamps an event of type t with a fresh id.
func New(t Type, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: at.UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Notifier receives committed changes. Delivery failures never undo the change.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
