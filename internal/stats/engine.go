// Package stats derives budget statistics from transactions.
//
// The engine is pure: its output depends only on the transactions, the budget,
// the display currency, the converter's rate table and the instant supplied.
package stats

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/currency"
)

// weekWindowDays is how many calendar days, today included, feed the weekday histogram.
const weekWindowDays = 7

// Engine computes Stats against a fixed rate table.
type Engine struct {
	conv *currency.Converter
}

func NewEngine(conv *currency.Converter) *Engine {
	if conv == nil {
		conv = currency.NewConverter(nil)
	}
	return &Engine{conv: conv}
}

// Compute derives the statistics for budget at now, with every amount in display.
//
// A nil budget, or one without categories, yields core.EmptyStats. Transactions
// outside [budget.Start, budget.End] are ignored, as are transactions whose
// category is not one of the fixed six: they count neither toward a category
// nor toward TotalSpent.
func (e *Engine) Compute(transactions []core.Transaction, budget *core.Budget, display core.Currency, now time.Time) (core.Stats, error) {
	display = display.OrBase()
	if _, err := e.conv.Rate(display); err != nil {
		return core.Stats{}, fmt.Errorf("display currency: %w", err)
	}
	if budget == nil || len(budget.Categories) == 0 {
		return core.EmptyStats(display), nil
	}

	budgetCurrency := budget.Currency.OrBase()
	today := core.DateOf(now)

	spent := make(map[core.Category]float64, len(budget.Categories))
	for cat := range budget.Categories {
		spent[cat] = 0
	}
	daily := make(map[string]float64, weekWindowDays)
	for _, day := range core.Weekdays() {
		daily[day] = 0
	}

	for _, txn := range transactions {
		if !budget.Contains(txn.Date) {
			continue
		}
		amount, err := e.conv.ConvertMoney(txn.Amount, txn.Currency.OrBase(), display)
		if err != nil {
			return core.Stats{}, fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		if _, ok := spent[txn.Category]; ok && txn.Category.Valid() {
			spent[txn.Category] += amount
		}
		if age := txn.Date.DaysUntil(today); age >= 0 && age < weekWindowDays {
			daily[txn.Date.Weekday().String()] += amount
		}
	}

	// Sum in key order so float rounding is identical across runs.
	var totalSpent float64
	for _, cat := range slices.Sorted(maps.Keys(spent)) {
		totalSpent += spent[cat]
	}

	totalBudget, err := e.conv.ConvertMoney(budget.Total, budgetCurrency, display)
	if err != nil {
		return core.Stats{}, fmt.Errorf("budget total: %w", err)
	}
	totalRemaining := totalBudget - totalSpent

	out := core.Stats{
		Currency:       display,
		TotalBudget:    totalBudget,
		TotalSpent:     totalSpent,
		TotalRemaining: totalRemaining,
		DaysLeft:       DaysLeft(budget.End, now),
		Categories:     make(map[core.Category]core.CategoryStats, len(budget.Categories)),
		DailySpending:  daily,
	}
	if totalBudget > 0 {
		out.PercentRemaining = max(0, roundPercent(totalRemaining, totalBudget))
	}

	for cat, allotted := range budget.Categories {
		converted, err := e.conv.ConvertMoney(allotted, budgetCurrency, display)
		if err != nil {
			return core.Stats{}, fmt.Errorf("budget category %s: %w", cat, err)
		}
		cs := core.CategoryStats{
			Spent:     spent[cat],
			Remaining: converted - spent[cat],
		}
		if converted > 0 {
			cs.Percent = roundPercent(cs.Remaining, converted)
		}
		out.Categories[cat] = cs
	}
	return out, nil
}

// DaysLeft counts the days until end inclusive, clamped at zero once end has passed.
func DaysLeft(end core.Date, now time.Time) int {
	if end.IsZero() {
		return 0
	}
	diff := end.Midnight(now.Location()).Sub(now).Hours() / 24
	return max(0, int(math.Ceil(diff))+1)
}

// roundPercent rounds part/whole*100 to the nearest integer, halves away from zero.
func roundPercent(part, whole float64) int {
	return int(math.Round(part / whole * 100))
}
