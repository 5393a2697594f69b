package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/currency"
)

const noBudgetMessage = "No budget set yet."

type CategoryLine struct {
	Category         core.Category `json:"category"`
	Spent            float64       `json:"spent"`
	Remaining        float64       `json:"remaining"`
	RemainingPercent int           `json:"remainingPercent"`
	Text             string        `json:"text"`
}

type DayLine struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
	Text   string  `json:"text"`
}

// Report is the human-readable rendering of a Stats value.
type Report struct {
	Currency   core.Currency  `json:"currency"`
	Summary    string         `json:"summary"`
	Budgeted   string         `json:"budgeted"`
	Spent      string         `json:"spent"`
	Categories []CategoryLine `json:"categories"`
	Days       []DayLine      `json:"days"`
	// Caps is the spent amount per category card, zero for categories without a budget line.
	Caps map[core.Category]string `json:"caps"`
}

// BuildReport orders categories by spend and weekdays by amount, both
// descending, breaking ties by their natural order.
func BuildReport(st core.Stats) Report {
	cur := st.Currency.OrBase()
	r := Report{
		Currency:   cur,
		Summary:    Summary(st),
		Budgeted:   currency.Format(st.TotalBudget, cur),
		Spent:      currency.Format(st.TotalSpent, cur),
		Categories: make([]CategoryLine, 0, len(st.Categories)),
		Days:       make([]DayLine, 0, len(st.DailySpending)),
		Caps:       make(map[core.Category]string, len(core.Categories())),
	}

	order := categoryOrder()
	for cat, cs := range st.Categories {
		pct := max(0, cs.Percent)
		r.Categories = append(r.Categories, CategoryLine{
			Category:         cat,
			Spent:            cs.Spent,
			Remaining:        cs.Remaining,
			RemainingPercent: pct,
			Text: fmt.Sprintf("%s: %s (Remaining %d%% - %s)",
				capitalize(string(cat)), currency.Format(cs.Spent, cur), pct, currency.Format(cs.Remaining, cur)),
		})
	}
	slices.SortFunc(r.Categories, func(a, b CategoryLine) int {
		if c := cmp.Compare(b.Spent, a.Spent); c != 0 {
			return c
		}
		return cmp.Compare(order(a.Category), order(b.Category))
	})

	weekdays := core.Weekdays()
	for day, amount := range st.DailySpending {
		r.Days = append(r.Days, DayLine{Day: day, Amount: amount, Text: day + ": " + currency.Format(amount, cur)})
	}
	slices.SortFunc(r.Days, func(a, b DayLine) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(slices.Index(weekdays, a.Day), slices.Index(weekdays, b.Day))
	})

	for _, cat := range core.Categories() {
		r.Caps[cat] = currency.Format(st.Categories[cat].Spent, cur)
	}
	return r
}

// Summary is the one-line remaining-budget message.
func Summary(st core.Stats) string {
	if st.TotalBudget <= 0 {
		return noBudgetMessage
	}
	return fmt.Sprintf("You are remaining with %d%% (%s) of your budgeted amount, with %d day(s) left.",
		st.PercentRemaining, currency.Format(st.TotalRemaining, st.Currency.OrBase()), st.DaysLeft)
}

// categoryOrder ranks known categories by display order, unknown ones last.
func categoryOrder() func(core.Category) int {
	cats := core.Categories()
	return func(c core.Category) int {
		if i := slices.Index(cats, c); i >= 0 {
			return i
		}
		return len(cats)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
