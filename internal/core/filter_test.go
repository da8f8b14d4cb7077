package core

import (
	"fmt"
	"testing"
	"time"
)

func sampleExpenses() []Record {
	return []Record{
		{ID: "rent", Name: "Rent", Amount: amt("1200"), Date: day(2025, 1, 1), Category: &Category{Name: "Home"}},
		{ID: "coffee", Name: "Coffee", Amount: amt("5"), Date: day(2025, 1, 1), Category: &Category{Name: "Food"}},
		{ID: "beans", Name: "Coffee beans", Amount: amt("18"), Date: day(2025, 1, 20), Category: &Category{Name: "Food"}},
		{ID: "train", Name: "Train ticket", Amount: amt("42"), Date: day(2025, 2, 3)},
		{ID: "mystery", Name: "Cash", Amount: amt("9")},
	}
}

func TestFilterAndSortUnfilteredReturnsAll(t *testing.T) {
	recs := sampleExpenses()
	got := FilterAndSort(recs, FilterCriteria{})
	if !equalIDs(got, ids(recs)...) {
		t.Fatalf("expected input order, got %v", ids(got))
	}

	got = FilterAndSort(recs, FilterCriteria{SortField: SortByAmount, SortOrder: Asc})
	if !equalIDs(got, "coffee", "mystery", "beans", "train", "rent") {
		t.Fatalf("unexpected amount asc order: %v", ids(got))
	}
}

func TestFilterAndSortScenarioAmountDesc(t *testing.T) {
	recs := []Record{
		{Name: "Rent", Amount: amt("1200"), Date: day(2025, 1, 1)},
		{Name: "Coffee", Amount: amt("5"), Date: day(2025, 1, 1)},
	}
	got := FilterAndSort(recs, FilterCriteria{SortField: SortByAmount, SortOrder: Desc})
	if len(got) != 2 || got[0].Name != "Rent" || got[1].Name != "Coffee" {
		t.Fatalf("expected [Rent Coffee], got %+v", got)
	}
}

func TestFilterAndSortDateRange(t *testing.T) {
	recs := sampleExpenses()
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{"inclusive both ends", day(2025, 1, 1), time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), []string{"rent", "coffee", "beans"}},
		{"open end", day(2025, 1, 2), time.Time{}, []string{"beans", "train"}},
		{"open start", time.Time{}, day(2025, 1, 1), []string{"rent", "coffee"}},
		{"after everything", day(2026, 1, 1), time.Time{}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterAndSort(recs, FilterCriteria{StartDate: tc.start, EndDate: tc.end})
			if got == nil {
				t.Fatalf("expected non-nil result")
			}
			if !equalIDs(got, tc.want...) {
				t.Fatalf("got %v, want %v", ids(got), tc.want)
			}
		})
	}
}

func TestFilterAndSortKeywordAndCategory(t *testing.T) {
	recs := sampleExpenses()
	got := FilterAndSort(recs, FilterCriteria{Keyword: "COFFEE", SortField: SortByDate, SortOrder: Desc})
	if !equalIDs(got, "beans", "coffee") {
		t.Fatalf("unexpected keyword result: %v", ids(got))
	}

	got = FilterAndSort(recs, FilterCriteria{SortField: SortByCategory, SortOrder: Asc})
	// uncategorised records have an empty name and sort first, stable between themselves
	if !equalIDs(got, "train", "mystery", "coffee", "beans", "rent") {
		t.Fatalf("unexpected category order: %v", ids(got))
	}
}

func TestFilterAndSortKeywordKeepsWhitespace(t *testing.T) {
	recs := sampleExpenses()
	tests := []struct {
		keyword string
		want    []string
	}{
		{" ", []string{"beans", "train"}},
		{"coffee ", []string{"beans"}},
		{" rent", nil},
		{"", []string{"rent", "coffee", "beans", "train", "mystery"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.keyword), func(t *testing.T) {
			got := FilterAndSort(recs, FilterCriteria{Keyword: tt.keyword})
			if !equalIDs(got, tt.want...) {
				t.Fatalf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterAndSortKindAndIdempotence(t *testing.T) {
	recs := append(sampleExpenses(), Record{ID: "salary", Name: "Salary", Amount: amt("3000"), Kind: Income, Date: day(2025, 1, 31)})
	recs[0].Kind = Expense

	c := FilterCriteria{Kind: Expense, SortField: SortByAmount, SortOrder: Desc}
	first := FilterAndSort(recs, c)
	second := FilterAndSort(recs, c)
	if !equalIDs(first, ids(second)...) {
		t.Fatalf("non deterministic output: %v vs %v", ids(first), ids(second))
	}
	for _, r := range first {
		if r.ID == "salary" {
			t.Fatalf("income record leaked into expense filter")
		}
	}
	if recs[0].ID != "rent" || recs[5].ID != "salary" {
		t.Fatalf("input was mutated")
	}
}

func TestFilterCriteriaValidate(t *testing.T) {
	cases := []struct {
		c   FilterCriteria
		err error
	}{
		{FilterCriteria{}, nil},
		{FilterCriteria{Kind: Income, SortField: SortByDate, SortOrder: Desc}, nil},
		{FilterCriteria{Kind: "transfer"}, ErrInvalidKind},
		{FilterCriteria{SortField: "name"}, ErrInvalidSortField},
		{FilterCriteria{SortOrder: "up"}, ErrInvalidSortOrder},
		{FilterCriteria{StartDate: day(2025, 2, 1), EndDate: day(2025, 1, 1)}, ErrInvalidDateRange},
		{FilterCriteria{StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 1)}, nil},
	}
	for i, tc := range cases {
		if err := tc.c.Validate(); err != tc.err {
			t.Fatalf("case %d: expected %v, got %v", i, tc.err, err)
		}
	}
}
