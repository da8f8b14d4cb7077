// Package core provides the record model and the reporting pipeline built on it.
//
// This file contains functions for parsing amounts from loosely typed input
// and formatting them for display.
package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional thousands separator of the other kind ("1.234,56", "1,234.56").
// Negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1,234.50") -> 1234.5, nil
//	ParseAmount("-1")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "€$£₹ ")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators rewrites s so the last separator is the decimal point
// and every other separator is dropped.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// CoerceAmount turns any wire value into a non-negative amount. Values that
// are not numeric become zero; negative values keep their magnitude, as the
// sign of a record is carried by its Kind.
func CoerceAmount(v any) decimal.Decimal {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		d = t
	case float64:
		d = decimal.NewFromFloat(t)
	case float32:
		d = decimal.NewFromFloat32(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case string:
		parsed, err := ParseAmount(strings.TrimPrefix(strings.TrimSpace(t), "-"))
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	return d.Abs()
}

// FormatAmount renders an amount in the given ISO 4217 currency,
// e.g. "$1,200.00". Unknown currency codes fall back to the plain decimal.
func FormatAmount(d decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		return d.StringFixed(2)
	}
	return money.NewFromFloat(d.InexactFloat64(), currency).Display()
}

// IsKnownCurrency reports whether code is a currency FormatAmount can render.
func IsKnownCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
