// Package currency converts and formats amounts between the supported
// currencies using a static rate table expressed against the base currency.
package currency

import (
	"fmt"
	"strconv"

	"fintrack/internal/core"
)

// Rates maps a currency to how many units of it buy one unit of the base currency.
type Rates map[core.Currency]float64

// DefaultRates is the static rate table. 1 USD = 0.93 EUR = 1400 RWF.
func DefaultRates() Rates {
	return Rates{
		core.USD: 1,
		core.EUR: 0.93,
		core.RWF: 1400,
	}
}

// Converter converts via the base unit. It is immutable after construction.
type Converter struct {
	rates Rates
}

// NewConverter copies rates; a nil table selects DefaultRates.
func NewConverter(rates Rates) *Converter {
	if rates == nil {
		rates = DefaultRates()
	}
	cp := make(Rates, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &Converter{rates: cp}
}

// Rate returns the rate of c relative to the base currency.
func (c *Converter) Rate(code core.Currency) (float64, error) {
	r, ok := c.rates[code]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownCurrency, code)
	}
	return r, nil
}

// Convert computes amount / rate[from] * rate[to]. Converting a currency to
// itself returns amount unchanged.
func (c *Converter) Convert(amount float64, from, to core.Currency) (float64, error) {
	fromRate, err := c.Rate(from)
	if err != nil {
		return 0, err
	}
	toRate, err := c.Rate(to)
	if err != nil {
		return 0, err
	}
	if from == to {
		return amount, nil
	}
	return amount / fromRate * toRate, nil
}

// ConvertMoney converts a stored amount out of its original currency.
func (c *Converter) ConvertMoney(m core.Money, from, to core.Currency) (float64, error) {
	return c.Convert(m.Float(), from, to)
}

// Format renders amount with the fixed per-currency policy:
// USD and EUR use a symbol and two decimals, RWF a text prefix and none.
func Format(amount float64, code core.Currency) string {
	switch code {
	case core.USD:
		return "$" + strconv.FormatFloat(amount, 'f', 2, 64)
	case core.EUR:
		return "€" + strconv.FormatFloat(amount, 'f', 2, 64)
	case core.RWF:
		return "RWF " + strconv.FormatFloat(amount, 'f', 0, 64)
	default:
		return string(code) + " " + strconv.FormatFloat(amount, 'f', 2, 64)
	}
}
