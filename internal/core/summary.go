package core

import "time"

// CategoryStats is the derived spend for one budget category, in the display currency.
type CategoryStats struct {
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	Percent   int     `json:"percent"`
}

// Stats is the derived view of a budget at one instant. It is never persisted.
type Stats struct {
	Currency         Currency                   `json:"currency"`
	TotalBudget      float64                    `json:"totalBudget"`
	TotalSpent       float64                    `json:"totalSpent"`
	TotalRemaining   float64                    `json:"totalRemaining"`
	PercentRemaining int                        `json:"percentRemaining"`
	DaysLeft         int                        `json:"daysLeft"`
	Categories       map[Category]CategoryStats `json:"categories"`
	DailySpending    map[string]float64         `json:"dailySpending"` // keyed by weekday name
}

// EmptyStats is the defined result when no budget is set.
func EmptyStats(display Currency) Stats {
	return Stats{
		Currency:      display,
		Categories:    map[Category]CategoryStats{},
		DailySpending: map[string]float64{},
	}
}

// Weekdays lists weekday names Monday first, matching the histogram keys.
func Weekdays() []string {
	return []string{
		time.Monday.String(),
		time.Tuesday.String(),
		time.Wednesday.String(),
		time.Thursday.String(),
		time.Friday.String(),
		time.Saturday.String(),
		time.Sunday.String(),
	}
}
