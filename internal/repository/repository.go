// Package repository persists the tracker state as JSON blobs in a kv.Store.
//
// Loads fail soft: a missing, unreadable or undecodable blob is logged and
// treated as empty or absent. Saves return a *StorageError so callers can
// report the failure and carry on with their in-memory state.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// StorageError is a persistence failure on a single key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type Repository struct {
	store kv.Store
}

func New(store kv.Store) *Repository {
	return &Repository{store: store}
}

// LoadTransactions returns the stored transactions in insertion order.
// Legacy records without a currency are read as base-currency amounts.
func (r *Repository) LoadTransactions(ctx context.Context) []core.Transaction {
	var txns []core.Transaction
	if !r.load(ctx, kv.KeyTransactions, &txns) {
		return []core.Transaction{}
	}
	for i := range txns {
		txns[i].Normalize()
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	return txns
}

func (r *Repository) SaveTransactions(ctx context.Context, txns []core.Transaction) error {
	if txns == nil {
		txns = []core.Transaction{}
	}
	return r.save(ctx, kv.KeyTransactions, txns)
}

// LoadBudget returns the stored budget, or nil when none is stored.
func (r *Repository) LoadBudget(ctx context.Context) *core.Budget {
	var b *core.Budget
	if !r.load(ctx, kv.KeyBudget, &b) || b == nil {
		return nil
	}
	b.Normalize()
	return b
}

func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) error {
	return r.save(ctx, kv.KeyBudget, b)
}

func (r *Repository) ClearBudget(ctx context.Context) error {
	if err := r.store.Delete(ctx, kv.KeyBudget); err != nil {
		return r.failed(ctx, log.OpDelete, kv.KeyBudget, err)
	}
	return nil
}

// LoadCurrency returns the persisted display currency. Both a JSON string
// and a bare code are accepted.
func (r *Repository) LoadCurrency(ctx context.Context) (core.Currency, bool) {
	raw, ok := r.read(ctx, kv.KeyCurrency)
	if !ok {
		return "", false
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		code = strings.TrimSpace(string(raw))
	}
	if code == "" {
		return "", false
	}
	return core.Currency(strings.ToUpper(code)), true
}

func (r *Repository) SaveCurrency(ctx context.Context, c core.Currency) error {
	return r.save(ctx, kv.KeyCurrency, string(c))
}

func (r *Repository) read(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load blob, continuing with empty state",
			log.FieldComponent, log.ComponentRepository,
			log.FieldOperation, log.OpLoad,
			log.FieldKey, key,
			log.FieldError, err)
		return nil, false
	}
	if !ok || len(strings.TrimSpace(string(raw))) == 0 {
		return nil, false
	}
	return raw, true
}

func (r *Repository) load(ctx context.Context, key string, dst any) bool {
	raw, ok := r.read(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.ErrorContext(ctx, "Failed to decode blob, continuing with empty state",
			log.FieldComponent, log.ComponentRepository,
			log.FieldOperation, log.OpLoad,
			log.FieldKey, key,
			log.FieldError, err)
		return false
	}
	return true
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return r.failed(ctx, log.OpSave, key, err)
	}
	if err := r.store.Put(ctx, key, raw); err != nil {
		return r.failed(ctx, log.OpSave, key, err)
	}
	return nil
}

func (r *Repository) failed(ctx context.Context, op, key string, err error) error {
	slog.ErrorContext(ctx, "Failed to persist blob",
		log.FieldComponent, log.ComponentRepository,
		log.FieldOperation, op,
		log.FieldKey, key,
		log.FieldError, err)
	return &StorageError{Op: op, Key: key, Err: err}
}
