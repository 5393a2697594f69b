package stats

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"
)

func januaryBudget(cur core.Currency) *core.Budget {
	cats := map[core.Category]core.Money{
		core.Food:          {Cents: 10000},
		core.Books:         {Cents: 5000},
		core.Transport:     {Cents: 4000},
		core.Entertainment: {Cents: 3000},
		core.Fees:          {Cents: 2000},
		core.Others:        {Cents: 1000},
	}
	var total core.Money
	for _, m := range cats {
		total = total.Add(m)
	}
	return &core.Budget{
		Start:      core.NewDate(2024, 1, 1),
		End:        core.NewDate(2024, 1, 31),
		Categories: cats,
		Currency:   cur,
		Total:      total,
	}
}

func txn(id string, d core.Date, cat core.Category, cents int64, cur core.Currency) core.Transaction {
	return core.Transaction{ID: id, Date: d, Description: "x", Category: cat, Amount: core.Money{Cents: cents}, Currency: cur}
}

var midJanuary = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeNoBudget(t *testing.T) {
	e := NewEngine(nil)
	for _, b := range []*core.Budget{nil, {Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}} {
		got, err := e.Compute([]core.Transaction{txn("txn_1", core.NewDate(2024, 1, 2), core.Food, 100, core.USD)}, b, core.USD, midJanuary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, core.EmptyStats(core.USD)) {
			t.Fatalf("expected empty stats, got %+v", got)
		}
	}
}

func TestComputeScenario(t *testing.T) {
	e := NewEngine(nil)
	txns := []core.Transaction{txn("txn_1", core.NewDate(2024, 1, 15), core.Food, 3000, core.USD)}

	got, err := e.Compute(txns, januaryBudget(core.USD), core.USD, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := core.CategoryStats{Spent: 30, Remaining: 70, Percent: 70}
	if got.Categories[core.Food] != want {
		t.Fatalf("food: expected %+v, got %+v", want, got.Categories[core.Food])
	}
	if got.TotalBudget != 250 || got.TotalSpent != 30 || got.TotalRemaining != 220 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.PercentRemaining != 88 {
		t.Fatalf("expected 88%% remaining, got %d", got.PercentRemaining)
	}
	if got.DaysLeft != 12 {
		t.Fatalf("expected 12 days left, got %d", got.DaysLeft)
	}
}

func TestComputeConservation(t *testing.T) {
	e := NewEngine(nil)
	for _, display := range core.Currencies() {
		b := januaryBudget(core.USD)
		got, err := e.Compute(nil, b, display, midJanuary)
		if err != nil {
			t.Fatalf("%s: %v", display, err)
		}
		total, _ := e.conv.ConvertMoney(b.Total, core.USD, display)
		if got.TotalSpent != 0 || !approx(got.TotalRemaining, total) || got.PercentRemaining != 100 {
			t.Fatalf("%s: conservation broken: %+v", display, got)
		}
		for cat, cs := range got.Categories {
			if cs.Spent != 0 || cs.Percent != 100 {
				t.Fatalf("%s/%s: expected untouched category, got %+v", display, cat, cs)
			}
		}
	}
}

func TestComputeMonotonicity(t *testing.T) {
	e := NewEngine(nil)
	b := januaryBudget(core.EUR)
	base := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 3), core.Books, 1250, core.EUR),
		txn("txn_2", core.NewDate(2024, 1, 9), core.Fees, 70000, core.RWF),
	}
	before, err := e.Compute(base, b, core.RWF, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	added := txn("txn_3", core.NewDate(2024, 1, 19), core.Transport, 999, core.USD)
	after, err := e.Compute(append(base, added), b, core.RWF, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	delta, _ := e.conv.ConvertMoney(added.Amount, core.USD, core.RWF)
	if !(after.TotalSpent > before.TotalSpent) {
		t.Fatalf("total spent must strictly increase")
	}
	if !approx(after.TotalSpent-before.TotalSpent, delta) {
		t.Fatalf("spent grew by %v, want %v", after.TotalSpent-before.TotalSpent, delta)
	}
	if !approx(before.TotalRemaining-after.TotalRemaining, delta) {
		t.Fatalf("remaining shrank by %v, want %v", before.TotalRemaining-after.TotalRemaining, delta)
	}
}

func TestComputeDateRangeExclusion(t *testing.T) {
	e := NewEngine(nil)
	b := januaryBudget(core.USD)
	inside := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 1), core.Food, 1000, core.USD),
		txn("txn_2", core.NewDate(2024, 1, 31), core.Others, 500, core.USD),
	}
	outside := []core.Transaction{
		txn("txn_3", core.NewDate(2023, 12, 31), core.Food, 9999, core.USD),
		txn("txn_4", core.NewDate(2024, 2, 1), core.Others, 9999, core.USD),
		// unknown currency outside the window never reaches the converter
		txn("txn_5", core.NewDate(2024, 3, 1), core.Fees, 1, "GBP"),
	}
	now := time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)
	want, err := e.Compute(inside, b, core.USD, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got, err := e.Compute(append(append([]core.Transaction{}, inside...), outside...), b, core.USD, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("out-of-window transactions changed stats:\n got %+v\nwant %+v", got, want)
	}
	if got.TotalSpent != 15 {
		t.Fatalf("boundary dates must be inclusive, spent=%v", got.TotalSpent)
	}
}

func TestComputeConvertsBudgetAndSpend(t *testing.T) {
	e := NewEngine(nil)
	b := januaryBudget(core.RWF) // amounts read as RWF
	txns := []core.Transaction{txn("txn_1", core.NewDate(2024, 1, 10), core.Food, 1400*100, core.RWF)}

	got, err := e.Compute(txns, b, core.USD, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !approx(got.TotalBudget, 250.0/1400) {
		t.Fatalf("total budget not converted from budget currency: %v", got.TotalBudget)
	}
	if !approx(got.Categories[core.Food].Spent, 1) {
		t.Fatalf("expected 1 USD spent on food, got %v", got.Categories[core.Food].Spent)
	}
	// 1400 RWF spent against a 100 RWF allotment
	if got.Categories[core.Food].Percent != -1300 {
		t.Fatalf("per-category percent is not clamped, got %d", got.Categories[core.Food].Percent)
	}
	if got.PercentRemaining != 0 || got.TotalRemaining >= 0 {
		t.Fatalf("overspend: expected clamped percent and negative remaining, got %+v", got)
	}
}

func TestComputeUsesStoredTotal(t *testing.T) {
	e := NewEngine(nil)
	b := januaryBudget(core.USD)
	b.Total = core.Money{Cents: 50000} // snapshot differs from the category sum
	got, err := e.Compute(nil, b, core.USD, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got.TotalBudget != 500 {
		t.Fatalf("expected stored total 500, got %v", got.TotalBudget)
	}
}

func TestComputeUnknownCategoryExcludedFromTotals(t *testing.T) {
	e := NewEngine(nil)
	txns := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 18), core.Food, 1000, core.USD),
		txn("txn_2", core.NewDate(2024, 1, 18), "groceries", 5000, core.USD),
	}
	got, err := e.Compute(txns, januaryBudget(core.USD), core.USD, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got.TotalSpent != 10 {
		t.Fatalf("unknown category must not count toward total spent, got %v", got.TotalSpent)
	}
	if _, ok := got.Categories["groceries"]; ok {
		t.Fatalf("unknown category must not appear in categories")
	}
	if got.DailySpending["Thursday"] != 60 {
		t.Fatalf("the weekday histogram counts every in-window transaction, got %v", got.DailySpending)
	}
}

func TestComputeWeekdayHistogram(t *testing.T) {
	e := NewEngine(nil)
	// 2024-01-20 is a Saturday.
	txns := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 20), core.Food, 500, core.USD),  // Saturday, today
		txn("txn_2", core.NewDate(2024, 1, 20), core.Books, 250, core.USD), // Saturday, today
		txn("txn_3", core.NewDate(2024, 1, 15), core.Fees, 100, core.USD),  // Monday
		txn("txn_4", core.NewDate(2024, 1, 14), core.Fees, 100, core.USD),  // Sunday, 6 days ago
		txn("txn_5", core.NewDate(2024, 1, 13), core.Fees, 700, core.USD),  // Saturday, 7 days ago
		txn("txn_6", core.NewDate(2024, 1, 21), core.Fees, 300, core.USD),  // future
	}
	got, err := e.Compute(txns, januaryBudget(core.USD), core.USD, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(got.DailySpending) != 7 {
		t.Fatalf("expected 7 weekday buckets, got %d", len(got.DailySpending))
	}
	want := map[string]float64{
		"Monday": 1, "Tuesday": 0, "Wednesday": 0, "Thursday": 0,
		"Friday": 0, "Saturday": 7.5, "Sunday": 1,
	}
	if !reflect.DeepEqual(got.DailySpending, want) {
		t.Fatalf("histogram: got %v want %v", got.DailySpending, want)
	}
}

func TestComputeHistogramIgnoresTransactionsOutsideBudget(t *testing.T) {
	e := NewEngine(nil)
	now := time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC)
	txns := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 31), core.Food, 500, core.USD),
		txn("txn_2", core.NewDate(2024, 2, 1), core.Food, 900, core.USD),
	}
	got, err := e.Compute(txns, januaryBudget(core.USD), core.USD, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got.DailySpending["Wednesday"] != 5 || got.DailySpending["Thursday"] != 0 {
		t.Fatalf("unexpected histogram %v", got.DailySpending)
	}
	if got.DaysLeft != 0 {
		t.Fatalf("expected 0 days left after the end date, got %d", got.DaysLeft)
	}
}

func TestComputeUnknownCurrency(t *testing.T) {
	e := NewEngine(nil)
	txns := []core.Transaction{txn("txn_1", core.NewDate(2024, 1, 2), core.Food, 100, "GBP")}
	if _, err := e.Compute(txns, januaryBudget(core.USD), core.USD, midJanuary); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := e.Compute(nil, januaryBudget(core.USD), "GBP", midJanuary); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency for display currency, got %v", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	e := NewEngine(nil)
	txns := []core.Transaction{
		txn("txn_1", core.NewDate(2024, 1, 3), core.Books, 1233, core.EUR),
		txn("txn_2", core.NewDate(2024, 1, 9), core.Fees, 70011, core.RWF),
		txn("txn_3", core.NewDate(2024, 1, 19), core.Transport, 999, core.USD),
	}
	first, err := e.Compute(txns, januaryBudget(core.EUR), core.RWF, midJanuary)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, _ := e.Compute(txns, januaryBudget(core.EUR), core.RWF, midJanuary)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestDaysLeft(t *testing.T) {
	end := core.NewDate(2024, 1, 31)
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, 1, 30, 18, 0, 0, 0, time.UTC), 2},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := DaysLeft(end, tc.now); got != tc.want {
			t.Errorf("DaysLeft(%s) = %d, want %d", tc.now, got, tc.want)
		}
	}
	if DaysLeft(core.Date{}, time.Now()) != 0 {
		t.Errorf("missing end date must give 0")
	}
}
