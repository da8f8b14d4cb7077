package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the aggregate view over a record set.
type Totals struct {
	Count        int
	Total        decimal.Decimal
	MonthlyTotal decimal.Decimal
	Average      decimal.Decimal
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
	Count  int
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}

// Aggregate sums records. MonthlyTotal only counts records dated in the given
// year and month; records with unknown dates are skipped there. Average is
// zero for an empty input.
func Aggregate(records []Record, year, month int) Totals {
	t := Totals{
		Count:        len(records),
		Total:        decimal.Zero,
		MonthlyTotal: decimal.Zero,
		Average:      decimal.Zero,
	}
	for _, r := range records {
		t.Total = t.Total.Add(r.Amount)
		if InMonth(r, year, month) {
			t.MonthlyTotal = t.MonthlyTotal.Add(r.Amount)
		}
	}
	if t.Count > 0 {
		t.Average = t.Total.Div(decimal.NewFromInt(int64(t.Count)))
	}
	return t
}

// InMonth reports whether r is dated in the given year and month.
func InMonth(r Record, year, month int) bool {
	if !r.HasDate() {
		return false
	}
	return r.Date.Year() == year && int(r.Date.Month()) == month
}

// Balance is income minus expense.
func Balance(income, expense Totals) decimal.Decimal {
	return income.Total.Sub(expense.Total)
}

// SumSince totals the records dated at or after since, and returns them in
// input order. Records with unknown dates are not included.
func SumSince(records []Record, since time.Time) (decimal.Decimal, []Record) {
	total := decimal.Zero
	var out []Record
	for _, r := range records {
		if !r.HasDate() || r.Date.Before(since) {
			continue
		}
		total = total.Add(r.Amount)
		out = append(out, r)
	}
	return total, out
}

// ByCategory groups amounts by category name, largest first. Records without
// a named category are grouped under UnknownName.
func ByCategory(records []Record) []CategoryAmount {
	idx := map[string]int{}
	var out []CategoryAmount
	for _, r := range records {
		name := r.CategoryName()
		if name == "" {
			name = UnknownName
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryAmount{Name: name, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Overview builds the month overview for one record set.
func Overview(records []Record, year, month int) MonthOverview {
	var inMonth []Record
	for _, r := range records {
		if InMonth(r, year, month) {
			inMonth = append(inMonth, r)
		}
	}
	return MonthOverview{
		Year:       year,
		Month:      month,
		Total:      Aggregate(inMonth, year, month).Total,
		ByCategory: ByCategory(inMonth),
	}
}
