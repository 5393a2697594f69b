package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
)

// TransactionInput is a transaction as entered, before parsing.
type TransactionInput struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Currency    string `json:"originalCurrency"`
}

// TransactionPatch carries the fields an update replaces. Nil fields are kept.
type TransactionPatch struct {
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Currency    *string `json:"originalCurrency,omitempty"`
}

func (p TransactionPatch) empty() bool {
	return p.Date == nil && p.Description == nil && p.Category == nil && p.Amount == nil && p.Currency == nil
}

type TransactionService struct {
	mu       sync.Mutex
	store    TransactionStore
	notifier events.Notifier
}

func NewTransactionService(store TransactionStore, notifier events.Notifier) *TransactionService {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &TransactionService{store: store, notifier: notifier}
}

// Create validates in and appends it as txn_<count+1>.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput, now time.Time) (core.Transaction, error) {
	txn, err := in.parse()
	if err != nil {
		return core.Transaction{}, err
	}
	if err := txn.Validate(now); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns := s.store.LoadTransactions(ctx)
	txn.ID = transactionID(len(txns) + 1)
	txn.CreatedAt = now.UTC()
	txns = append(txns, txn)
	if err := s.store.SaveTransactions(ctx, txns); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithComponent(log.ComponentTransaction).
			WithOperation(log.OpCreate).
			WithTransaction(txn.ID, string(txn.Category), txn.Amount.Cents, string(txn.Currency)).
			ToSlice()...)

	e := events.New(events.TransactionCreated, now)
	e.Transaction = &txn
	publish(ctx, s.notifier, e)
	return txn, nil
}

// Update merges patch into the transaction with id and stamps updated_at.
// Only the supplied fields are validated, so legacy records stay editable.
func (s *TransactionService) Update(ctx context.Context, id string, patch TransactionPatch, now time.Time) (core.Transaction, error) {
	if patch.empty() {
		return core.Transaction{}, core.Invalid("patch", fmt.Errorf("no fields to update"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns := s.store.LoadTransactions(ctx)
	i := indexOf(txns, id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	txn := txns[i]
	if err := patch.apply(&txn, now); err != nil {
		return core.Transaction{}, err
	}
	stamp := now.UTC()
	txn.UpdatedAt = &stamp
	txns[i] = txn
	if err := s.store.SaveTransactions(ctx, txns); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldComponent, log.ComponentTransaction,
		log.FieldOperation, log.OpUpdate,
		log.FieldTransactionID, id)

	e := events.New(events.TransactionUpdated, now)
	e.Transaction = &txn
	publish(ctx, s.notifier, e)
	return txn, nil
}

// Delete removes the transaction with id and renumbers the rest txn_1..txn_n
// in their current order.
func (s *TransactionService) Delete(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns := s.store.LoadTransactions(ctx)
	i := indexOf(txns, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	removed := txns[i]
	txns = slices.Delete(txns, i, i+1)
	renumbered := renumber(txns)
	if err := s.store.SaveTransactions(ctx, txns); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentTransaction,
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id,
		"renumbered", renumbered)

	e := events.New(events.TransactionDeleted, now)
	e.Transaction = &removed
	e.Renumbered = renumbered
	publish(ctx, s.notifier, e)
	return nil
}

// List returns every transaction in insertion order.
func (s *TransactionService) List(ctx context.Context) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadTransactions(ctx)
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txns := s.store.LoadTransactions(ctx)
	if i := indexOf(txns, id); i >= 0 {
		return txns[i], nil
	}
	return core.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
}

// Search returns the transactions whose date, description, category, amount
// or currency contain query, ignoring case. With useRegex the query is a
// pattern; a pattern that does not compile falls back to substring matching.
func (s *TransactionService) Search(ctx context.Context, query string, useRegex bool) []core.Transaction {
	txns := s.List(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return txns
	}

	match := substringMatcher(query)
	if useRegex {
		if re := compileRegex(query); re != nil {
			match = re.MatchString
		}
	}

	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if match(searchText(t)) {
			out = append(out, t)
		}
	}
	return out
}

func compileRegex(pattern string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil
	}
	return re
}

func substringMatcher(query string) func(string) bool {
	q := strings.ToLower(query)
	return func(text string) bool { return strings.Contains(text, q) }
}

func searchText(t core.Transaction) string {
	return strings.ToLower(strings.Join([]string{
		t.Date.String(),
		t.Description,
		string(t.Category),
		t.Amount.String(),
		string(t.Currency.OrBase()),
	}, " "))
}

func (in TransactionInput) parse() (core.Transaction, error) {
	var txn core.Transaction
	var err error
	if txn.Date, err = core.ParseDate(in.Date); err != nil {
		return txn, core.Invalid("date", err)
	}
	txn.Description = in.Description
	if txn.Category, err = core.ParseCategory(in.Category); err != nil {
		return txn, core.Invalid("category", err)
	}
	if txn.Amount, err = core.ParseMoney(in.Amount); err != nil {
		return txn, core.Invalid("amount", err)
	}
	if txn.Currency, err = parseCurrency(in.Currency); err != nil {
		return txn, core.Invalid("originalCurrency", err)
	}
	return txn, nil
}

func (p TransactionPatch) apply(txn *core.Transaction, now time.Time) error {
	if p.Date != nil {
		d, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.Invalid("date", err)
		}
		if d.After(core.DateOf(now).Time) {
			return core.Invalid("date", core.ErrFutureDate)
		}
		txn.Date = d
	}
	if p.Description != nil {
		if err := core.ValidateDescription(*p.Description); err != nil {
			return core.Invalid("description", err)
		}
		txn.Description = *p.Description
	}
	if p.Category != nil {
		c, err := core.ParseCategory(*p.Category)
		if err != nil {
			return core.Invalid("category", err)
		}
		txn.Category = c
	}
	if p.Amount != nil {
		m, err := core.ParseMoney(*p.Amount)
		if err != nil {
			return core.Invalid("amount", err)
		}
		txn.Amount = m
	}
	if p.Currency != nil {
		c, err := parseCurrency(*p.Currency)
		if err != nil {
			return core.Invalid("originalCurrency", err)
		}
		txn.Currency = c
	}
	return nil
}

func parseCurrency(s string) (core.Currency, error) {
	if strings.TrimSpace(s) == "" {
		return core.BaseCurrency, nil
	}
	return core.ParseCurrency(s)
}

func transactionID(n int) string {
	return "txn_" + strconv.Itoa(n)
}

func indexOf(txns []core.Transaction, id string) int {
	return slices.IndexFunc(txns, func(t core.Transaction) bool { return t.ID == id })
}

// renumber assigns txn_1..txn_n by position and reports how many ids changed.
func renumber(txns []core.Transaction) int {
	changed := 0
	for i := range txns {
		if id := transactionID(i + 1); txns[i].ID != id {
			txns[i].ID = id
			changed++
		}
	}
	return changed
}
