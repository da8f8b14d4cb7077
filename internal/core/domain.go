package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tags a record as income or expense.
	Kind string

	Category struct {
		ID   string
		Name string
		Icon string
		Type Kind
	}

	// Record is one income or expense entry after ingestion. A zero Date means
	// the date is unknown.
	Record struct {
		ID         string
		Name       string
		Amount     decimal.Decimal
		Date       time.Time
		Icon       string
		CategoryID string
		Category   *Category
		Kind       Kind
	}
)

var (
	ErrInvalidKind = errors.New("invalid kind")
)

// ParseKind accepts "income"/"expense" in any case, plus the plural forms
// used by some clients.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return Income, nil
	case "expense", "expenses":
		return Expense, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// HasDate reports whether the record carries a known date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// CategoryName returns the referenced category's name, or "" when the record
// has no category or only a bare id.
func (r Record) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.Name
}

// CategoryMismatch reports whether the record references a category whose
// type contradicts the record's kind.
func (r Record) CategoryMismatch() bool {
	if r.Category == nil || r.Category.Type == "" {
		return false
	}
	return r.Category.Type != r.Kind
}

// dateOr returns the record date, or fallback when the date is unknown.
func (r Record) dateOr(fallback time.Time) time.Time {
	if r.HasDate() {
		return r.Date
	}
	return fallback
}
