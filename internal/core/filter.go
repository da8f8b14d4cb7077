package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	SortByNone     SortField = ""
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"

	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type (
	SortField string
	SortOrder string

	// FilterCriteria selects and orders a record set. Zero dates are unbounded,
	// an empty keyword matches everything and an empty SortField keeps input order.
	FilterCriteria struct {
		Kind      Kind
		StartDate time.Time
		EndDate   time.Time
		Keyword   string
		SortField SortField
		SortOrder SortOrder
	}
)

var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidDateRange = errors.New("start date after end date")
)

func (c FilterCriteria) Validate() error {
	if c.Kind != "" && !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	switch c.SortField {
	case SortByNone, SortByDate, SortByAmount, SortByCategory:
	default:
		return ErrInvalidSortField
	}
	switch c.SortOrder {
	case "", Asc, Desc:
	default:
		return ErrInvalidSortOrder
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && dayStart(c.StartDate).After(dayStart(c.EndDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// FilterAndSort applies the criteria to records and returns a new slice.
// Date bounds are whole calendar days, both inclusive. Records with unknown
// dates only pass when no bound is set. The sort is stable, so identical
// inputs always produce identical output.
func FilterAndSort(records []Record, c FilterCriteria) []Record {
	out := make([]Record, 0, len(records))
	keyword := strings.ToLower(c.Keyword)
	for _, r := range records {
		if c.Kind != "" && r.Kind != "" && r.Kind != c.Kind {
			continue
		}
		if !inRange(r, c.StartDate, c.EndDate) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(r.Name), keyword) {
			continue
		}
		out = append(out, r)
	}
	if c.SortField == SortByNone {
		return out
	}
	desc := c.SortOrder == Desc
	sort.SliceStable(out, func(i, j int) bool {
		cmp := compareBy(c.SortField, out[i], out[j])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

func inRange(r Record, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	if !r.HasDate() {
		return false
	}
	if !start.IsZero() && r.Date.Before(dayStart(start)) {
		return false
	}
	if !end.IsZero() && !r.Date.Before(dayStart(end).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func compareBy(field SortField, a, b Record) int {
	switch field {
	case SortByAmount:
		return a.Amount.Cmp(b.Amount)
	case SortByDate:
		return a.Date.Compare(b.Date)
	case SortByCategory:
		return strings.Compare(a.CategoryName(), b.CategoryName())
	}
	return 0
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
