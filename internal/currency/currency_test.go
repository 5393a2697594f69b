package currency

import (
	"context"
	"errors"
	"math"
	"testing"

	"fintrack/internal/core"
)

func TestConvertIdentity(t *testing.T) {
	c := NewConverter(nil)
	for _, code := range core.Currencies() {
		for _, x := range []float64{0, 0.01, 30, 1234.56, 1e9} {
			got, err := c.Convert(x, code, code)
			if err != nil {
				t.Fatalf("%s: unexpected error %v", code, err)
			}
			if got != x {
				t.Fatalf("%s: identity broke: %v != %v", code, got, x)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c := NewConverter(nil)
	for _, a := range core.Currencies() {
		for _, b := range core.Currencies() {
			for _, x := range []float64{0.01, 1, 30, 99.99, 250000} {
				there, err := c.Convert(x, a, b)
				if err != nil {
					t.Fatalf("%s->%s: %v", a, b, err)
				}
				back, err := c.Convert(there, b, a)
				if err != nil {
					t.Fatalf("%s->%s: %v", b, a, err)
				}
				if math.Abs(back-x) > 1e-9*math.Max(1, x) {
					t.Fatalf("%s->%s->%s: %v became %v", a, b, a, x, back)
				}
			}
		}
	}
}

func TestConvertViaBase(t *testing.T) {
	c := NewConverter(nil)
	got, err := c.Convert(1400, core.RWF, core.USD)
	if err != nil || math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected 1 USD, got %v err=%v", got, err)
	}
	got, err = c.Convert(100, core.USD, core.EUR)
	if err != nil || math.Abs(got-93) > 1e-9 {
		t.Fatalf("expected 93 EUR, got %v err=%v", got, err)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := NewConverter(nil)
	if _, err := c.Convert(1, "GBP", core.USD); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := c.Convert(1, core.USD, "GBP"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := c.Convert(1, "GBP", "GBP"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("identity on unknown currency must still fail, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount float64
		code   core.Currency
		want   string
	}{
		{12.346, core.USD, "$12.35"},
		{30, core.USD, "$30.00"},
		{27.9, core.EUR, "€27.90"},
		{42000.4, core.RWF, "RWF 42000"},
		{0, core.RWF, "RWF 0"},
	}
	for _, tc := range cases {
		if got := Format(tc.amount, tc.code); got != tc.want {
			t.Errorf("Format(%v, %s) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

type fakePrefs struct {
	saved   core.Currency
	has     bool
	saveErr error
	saves   int
}

func (f *fakePrefs) LoadCurrency(context.Context) (core.Currency, bool) { return f.saved, f.has }

func (f *fakePrefs) SaveCurrency(_ context.Context, c core.Currency) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved, f.has = c, true
	return nil
}

func TestServiceRestoresPersistedCurrency(t *testing.T) {
	ctx := context.Background()
	s := NewService(ctx, nil, &fakePrefs{saved: core.RWF, has: true}, core.EUR)
	if s.Current() != core.RWF {
		t.Fatalf("expected restored RWF, got %s", s.Current())
	}

	s = NewService(ctx, nil, &fakePrefs{}, core.EUR)
	if s.Current() != core.EUR {
		t.Fatalf("expected fallback EUR, got %s", s.Current())
	}

	s = NewService(ctx, nil, &fakePrefs{saved: "XYZ", has: true}, "")
	if s.Current() != core.BaseCurrency {
		t.Fatalf("expected base currency for bad selection, got %s", s.Current())
	}
}

func TestSetDisplayCurrencyRederivesFromOriginals(t *testing.T) {
	ctx := context.Background()
	prefs := &fakePrefs{}
	s := NewService(ctx, nil, prefs, core.USD)

	shown, err := s.Track("txn-1-amount", 1400, core.RWF)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if shown != "$1.00" {
		t.Fatalf("expected $1.00, got %q", shown)
	}

	// Bounce through every currency; the value must not drift.
	for _, code := range []core.Currency{core.EUR, core.RWF, core.EUR, core.USD} {
		if _, err := s.SetDisplayCurrency(ctx, code); err != nil {
			t.Fatalf("set %s: %v", code, err)
		}
	}
	if got := s.Rendered()["txn-1-amount"]; got != "$1.00" {
		t.Fatalf("expected $1.00 after switching back, got %q", got)
	}
	if prefs.saved != core.USD || prefs.saves != 4 {
		t.Fatalf("expected USD persisted 4 times, got %s/%d", prefs.saved, prefs.saves)
	}

	change, err := s.SetDisplayCurrency(ctx, core.RWF)
	if err != nil {
		t.Fatalf("set RWF: %v", err)
	}
	if change.Previous != core.USD || change.Current != core.RWF {
		t.Fatalf("unexpected change %+v", change)
	}
	if change.Rendered["txn-1-amount"] != "RWF 1400" {
		t.Fatalf("expected RWF 1400, got %q", change.Rendered["txn-1-amount"])
	}
}

func TestSetDisplayCurrencyRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewService(ctx, nil, nil, core.USD)
	_, err := s.SetDisplayCurrency(ctx, "GBP")
	var verr *core.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected validation error wrapping ErrUnknownCurrency, got %v", err)
	}
	if s.Current() != core.USD {
		t.Fatalf("currency must not change on rejection")
	}
}

func TestListenersRunInOrderAndAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewService(ctx, nil, &fakePrefs{saveErr: errors.New("disk full")}, core.USD)

	var calls []string
	s.Subscribe(ListenerFunc(func(context.Context, Change) error {
		calls = append(calls, "first")
		return errors.New("boom")
	}))
	s.Subscribe(ListenerFunc(func(context.Context, Change) error {
		calls = append(calls, "second")
		panic("listener bug")
	}))
	s.Subscribe(ListenerFunc(func(_ context.Context, c Change) error {
		calls = append(calls, "third:"+string(c.Current))
		return nil
	}))

	if _, err := s.SetDisplayCurrency(ctx, core.EUR); err != nil {
		t.Fatalf("listener or persistence failures must not surface: %v", err)
	}
	want := []string{"first", "second", "third:EUR"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
	if s.Current() != core.EUR {
		t.Fatalf("expected EUR, got %s", s.Current())
	}
}

func TestTrackUnknownCurrency(t *testing.T) {
	s := NewService(context.Background(), nil, nil, core.USD)
	if _, err := s.Track("x", 1, "GBP"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if len(s.Rendered()) != 0 {
		t.Fatalf("failed track must not register a surface")
	}
	if _, err := s.Track("y", 5, ""); err != nil {
		t.Fatalf("empty currency should default to base: %v", err)
	}
	s.Untrack("y")
	if len(s.Rendered()) != 0 {
		t.Fatalf("expected no tracked surfaces after untrack")
	}
}
