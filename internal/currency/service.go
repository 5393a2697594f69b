package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// PreferenceStore persists the selected display currency across sessions.
type PreferenceStore interface {
	LoadCurrency(ctx context.Context) (core.Currency, bool)
	SaveCurrency(ctx context.Context, c core.Currency) error
}

// Change describes a display currency switch delivered to listeners.
type Change struct {
	Previous core.Currency
	Current  core.Currency
	// Rendered holds every tracked surface re-derived in Current.
	Rendered map[string]string
}

// Listener is notified after the display currency changes.
type Listener interface {
	CurrencyChanged(ctx context.Context, change Change) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, change Change) error

func (f ListenerFunc) CurrencyChanged(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Tracked is the original value behind a display surface.
type Tracked struct {
	Value    float64
	Currency core.Currency
}

// Service owns the display currency, the tracked display surfaces and the
// listeners interested in currency switches.
type Service struct {
	mu        sync.Mutex
	conv      *Converter
	prefs     PreferenceStore
	current   core.Currency
	tracked   map[string]Tracked
	listeners []Listener
}

// NewService restores the persisted selection from prefs, falling back to
// fallback and then to the base currency. prefs may be nil.
func NewService(ctx context.Context, conv *Converter, prefs PreferenceStore, fallback core.Currency) *Service {
	if conv == nil {
		conv = NewConverter(nil)
	}
	s := &Service{
		conv:    conv,
		prefs:   prefs,
		current: core.BaseCurrency,
		tracked: make(map[string]Tracked),
	}
	if _, err := conv.Rate(fallback); err == nil {
		s.current = fallback
	}
	if prefs != nil {
		if saved, ok := prefs.LoadCurrency(ctx); ok {
			if _, err := conv.Rate(saved); err == nil {
				s.current = saved
			} else {
				slog.WarnContext(ctx, "Ignoring persisted display currency",
					log.FieldComponent, log.ComponentCurrency,
					log.FieldCurrency, string(saved))
			}
		}
	}
	return s
}

// Converter returns the rate table the service converts with.
func (s *Service) Converter() *Converter {
	return s.conv
}

// Current returns the display currency.
func (s *Service) Current() core.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers l. Listeners run in registration order.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Track registers a display surface and returns it rendered in the current
// display currency. Re-tracking a surface replaces its original value.
func (s *Service) Track(surface string, value float64, original core.Currency) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	original = original.OrBase()
	converted, err := s.conv.Convert(value, original, s.current)
	if err != nil {
		return "", fmt.Errorf("track %s: %w", surface, err)
	}
	s.tracked[surface] = Tracked{Value: value, Currency: original}
	return Format(converted, s.current), nil
}

func (s *Service) Untrack(surface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, surface)
}

// Rendered re-derives every tracked surface from its original value.
func (s *Service) Rendered() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *Service) renderLocked() map[string]string {
	out := make(map[string]string, len(s.tracked))
	for id, t := range s.tracked {
		v, err := s.conv.Convert(t.Value, t.Currency, s.current)
		if err != nil {
			// Track only admits known currencies.
			continue
		}
		out[id] = Format(v, s.current)
	}
	return out
}

// SetDisplayCurrency switches the display currency, persists the choice and
// notifies listeners. A persistence failure is logged and does not undo the switch.
func (s *Service) SetDisplayCurrency(ctx context.Context, code core.Currency) (Change, error) {
	if _, err := s.conv.Rate(code); err != nil {
		return Change{}, core.Invalid("currency", err)
	}

	s.mu.Lock()
	change := Change{Previous: s.current, Current: code}
	s.current = code
	change.Rendered = s.renderLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SaveCurrency(ctx, code); err != nil {
			slog.WarnContext(ctx, "Failed to persist display currency",
				log.FieldComponent, log.ComponentCurrency,
				log.FieldCurrency, string(code),
				log.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "Display currency changed",
		log.FieldComponent, log.ComponentCurrency,
		"previous", string(change.Previous),
		log.FieldCurrency, string(code),
		"tracked", len(change.Rendered))

	for i, l := range listeners {
		notify(ctx, i, l, change)
	}
	return change, nil
}

// notify isolates a single listener so a failure or panic cannot stop the fan-out.
func notify(ctx context.Context, index int, l Listener, change Change) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Currency listener panicked",
				log.FieldComponent, log.ComponentCurrency,
				"listener", index,
				"panic", fmt.Sprint(r))
		}
	}()
	if err := l.CurrencyChanged(ctx, change); err != nil {
		slog.ErrorContext(ctx, "Currency listener failed",
			log.FieldComponent, log.ComponentCurrency,
			"listener", index,
			log.FieldError, err)
	}
}
