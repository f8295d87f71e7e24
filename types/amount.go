// Package types provides common types used across the invoicing packages.
package types

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor currency units (cents, pence, ...).
//
// Amounts are plain float64 values because the summary engine works in
// unrounded double precision: percentage discounts and tax may leave
// fractional minor units (e.g. 980.1). Rounding only happens when an
// amount is rendered.
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"` // ISO 4217 lowercase: "usd", "eur", "gbp"
}

// NewAmount creates an Amount in the given currency.
func NewAmount(value float64, currency string) Amount {
	return Amount{Value: value, Currency: strings.ToLower(currency)}
}

// EUR creates an Amount in euro cents.
func EUR(cents float64) Amount { return NewAmount(cents, "eur") }

// USD creates an Amount in US cents.
func USD(cents float64) Amount { return NewAmount(cents, "usd") }

// GBP creates an Amount in pence.
func GBP(pence float64) Amount { return NewAmount(pence, "gbp") }

// JPY creates an Amount in yen (no minor unit).
func JPY(yen float64) Amount { return NewAmount(yen, "jpy") }

// Major converts the amount to major units, rounded half away from zero
// to the currency's number of decimals.
func (a Amount) Major() decimal.Decimal {
	decimals := currencyDecimals(a.Currency)
	return decimal.NewFromFloat(a.Value).Shift(-int32(decimals)).Round(int32(decimals))
}

// FormatMajor returns the major unit string without currency symbol.
// For currencies with 2 decimal places: "49.00" for USD(4900).
// For currencies with 0 decimal places (JPY): "100" for JPY(100).
func (a Amount) FormatMajor() string {
	return a.Major().StringFixed(int32(currencyDecimals(a.Currency)))
}

// String returns a human-readable string with currency symbol.
// Examples: "$49.00", "€9.80", "¥100"
func (a Amount) String() string {
	return currencySymbol(a.Currency) + a.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
		Display  string  `json:"display"`
	}{
		Value:    a.Value,
		Currency: a.Currency,
		Display:  a.String(),
	})
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"jpy": "¥",
		"cad": "C$",
		"aud": "A$",
		"chf": "CHF ",
		"sek": "kr ",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int {
	zeroDecimal := map[string]bool{
		"jpy": true,
		"krw": true,
		"vnd": true,
		"clp": true,
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}
