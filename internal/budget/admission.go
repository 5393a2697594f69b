// Package budget decides whether a budget candidate may be stored.
package budget

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

var (
	ErrMissingDates   = errors.New("start and end dates are required")
	ErrStartNotBefore = errors.New("start date must be before end date")
	ErrMissingAmount  = errors.New("amount is required")
	ErrNotPositive    = errors.New("amount must be a positive number")
	ErrAmountTooLarge = fmt.Errorf("amount must not exceed %d", maxAmount)
	ErrDisparity      = errors.New("budget disparity too large: smallest category must be at least 1/10 of the largest")
	ErrBudgetActive   = errors.New("a budget is already active")
	ErrNoBudget       = errors.New("no budget set")
)

const (
	// disparityThreshold bounds largest/smallest category allotment.
	disparityThreshold = 10
	// maxAmount caps a category allotment in major units so the total and
	// the disparity check stay within int64 cents.
	maxAmount = 10_000_000_000_000
)

// Candidate is budget form input before validation.
type Candidate struct {
	Start    string
	End      string
	Amounts  map[string]string
	Currency string
}

// Validate turns a candidate into a storable budget. The total is summed
// here once and carried on the budget from then on.
func Validate(c Candidate) (core.Budget, error) {
	if strings.TrimSpace(c.Start) == "" || strings.TrimSpace(c.End) == "" {
		return core.Budget{}, core.Invalid("dates", ErrMissingDates)
	}
	start, err := core.ParseDate(c.Start)
	if err != nil {
		return core.Budget{}, core.Invalid("start", err)
	}
	end, err := core.ParseDate(c.End)
	if err != nil {
		return core.Budget{}, core.Invalid("end", err)
	}
	if !start.Before(end.Time) {
		return core.Budget{}, core.Invalid("end", ErrStartNotBefore)
	}

	cur := core.BaseCurrency
	if strings.TrimSpace(c.Currency) != "" {
		if cur, err = core.ParseCurrency(c.Currency); err != nil {
			return core.Budget{}, core.Invalid("currency", err)
		}
	}

	categories := make(map[core.Category]core.Money, len(core.Categories()))
	var total core.Money
	for _, cat := range core.Categories() {
		m, err := parseAmount(lookup(c.Amounts, cat))
		if err != nil {
			return core.Budget{}, core.Invalid(string(cat), err)
		}
		categories[cat] = m
		total = total.Add(m)
	}
	if err := checkDisparity(categories); err != nil {
		return core.Budget{}, err
	}

	return core.Budget{
		Start:      start,
		End:        end,
		Categories: categories,
		Currency:   cur,
		Total:      total,
	}, nil
}

// Admit fails with ErrBudgetActive while existing is still active at now.
func Admit(existing *core.Budget, now time.Time) error {
	if existing.Active(now) {
		return fmt.Errorf("%w (%s to %s), delete it first", ErrBudgetActive, existing.Start, existing.End)
	}
	return nil
}

// lookup finds the amount for cat, tolerating differently cased form keys.
func lookup(amounts map[string]string, cat core.Category) string {
	if v, ok := amounts[string(cat)]; ok {
		return v
	}
	for k, v := range amounts {
		if strings.EqualFold(strings.TrimSpace(k), string(cat)) {
			return v
		}
	}
	return ""
}

func parseAmount(raw string) (core.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Money{}, ErrMissingAmount
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return core.Money{}, fmt.Errorf("%w: %q", ErrNotPositive, raw)
	}
	if v > maxAmount {
		return core.Money{}, fmt.Errorf("%w: %q", ErrAmountTooLarge, raw)
	}
	m := core.MoneyFromFloat(v)
	if m.Cents <= 0 {
		return core.Money{}, fmt.Errorf("%w: %q", ErrNotPositive, raw)
	}
	return m, nil
}

func checkDisparity(categories map[core.Category]core.Money) error {
	var lo, hi core.Category
	for _, cat := range core.Categories() {
		if lo == "" || categories[cat].Cents < categories[lo].Cents {
			lo = cat
		}
		if hi == "" || categories[cat].Cents > categories[hi].Cents {
			hi = cat
		}
	}
	if categories[lo].Cents*disparityThreshold < categories[hi].Cents {
		return fmt.Errorf("%w: highest %s %s, lowest %s %s",
			ErrDisparity, hi, categories[hi], lo, categories[lo])
	}
	return nil
}
