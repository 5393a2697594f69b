package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	Food          Category = "food"
	Books         Category = "books"
	Transport     Category = "transport"
	Entertainment Category = "entertainment"
	Fees          Category = "fees"
	Others        Category = "others"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	RWF Currency = "RWF"

	// BaseCurrency is the unit every exchange rate is expressed against.
	BaseCurrency = USD
)

type (
	Category string

	Currency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string     `json:"id"`
		Date        Date       `json:"date"`
		Description string     `json:"description"`
		Category    Category   `json:"category"`
		Amount      Money      `json:"amount"`
		Currency    Currency   `json:"originalCurrency,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   *time.Time `json:"updated_at"`
	}

	Budget struct {
		Start      Date               `json:"start"`
		End        Date               `json:"end"`
		Categories map[Category]Money `json:"categories"`
		Currency   Currency           `json:"currency,omitempty"`
		Total      Money              `json:"total"` // sum of Categories at creation time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("date cannot be in the future")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrPaddedDescription  = errors.New("description has leading or trailing whitespace")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrUnknownCurrency    = errors.New("unknown currency")
)

// ValidationError reports which input field was rejected and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{Food, Books, Transport, Entertainment, Fees, Others}
}

func (c Category) Valid() bool {
	switch c {
	case Food, Books, Transport, Entertainment, Fees, Others:
		return true
	}
	return false
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Currencies returns every currency with a known exchange rate.
func Currencies() []Currency {
	return []Currency{USD, EUR, RWF}
}

func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, RWF:
		return true
	}
	return false
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
	}
	return c, nil
}

// OrBase returns c, or BaseCurrency when c is unset.
func (c Currency) OrBase() Currency {
	if c == "" {
		return BaseCurrency
	}
	return c
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// DaysUntil returns the whole number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// Midnight returns the start of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a transaction at the ingestion boundary. now bounds the date.
func (t Transaction) Validate(now time.Time) error {
	if t.Date.IsZero() {
		return Invalid("date", ErrInvalidDate)
	}
	if t.Date.After(DateOf(now).Time) {
		return Invalid("date", ErrFutureDate)
	}
	if err := ValidateDescription(t.Description); err != nil {
		return Invalid("description", err)
	}
	if !t.Category.Valid() {
		return Invalid("category", ErrInvalidCategory)
	}
	if err := t.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !t.Currency.OrBase().Valid() {
		return Invalid("originalCurrency", ErrUnknownCurrency)
	}
	return nil
}

func ValidateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(s) != s {
		return ErrPaddedDescription
	}
	if len(s) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Normalize fills defaults for legacy records that predate currency tracking.
func (t *Transaction) Normalize() {
	t.Currency = t.Currency.OrBase()
}

func (b *Budget) Normalize() {
	b.Currency = b.Currency.OrBase()
}

// Active reports whether the budget window has not yet closed at now.
// A budget without an end date is never active.
func (b *Budget) Active(now time.Time) bool {
	if b == nil || b.End.IsZero() {
		return false
	}
	return !DateOf(now).After(b.End.Time)
}

// Contains reports whether d falls within [Start, End] inclusive.
func (b *Budget) Contains(d Date) bool {
	return !d.Before(b.Start.Time) && !d.After(b.End.Time)
}
