package google

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"moneymanager/internal/core"
	"moneymanager/internal/source"
)

func TestParseRowsExpenseSheet(t *testing.T) {
	values := [][]any{
		{"Date", "Description", "Amount", "Category", "Notes"},
		{"2025-07-01", "Rent", 1200.0, "Housing"},
		{"2025-07-03", "Groceries", "81,50", "Food", "weekly"},
		{"", "", ""},
		{"not a date", "Gift", "abc"},
		{"2025-07-09", "", 12.0},
	}
	raws := parseRows(values)
	if len(raws) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(raws), raws)
	}
	recs := core.IngestAll(raws, core.Expense)

	if recs[0].Name != "Rent" || recs[0].CategoryName() != "Housing" || recs[0].Date.Day() != 1 {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if !recs[0].Amount.Equal(core.CoerceAmount(1200)) {
		t.Fatalf("unexpected amount: %s", recs[0].Amount)
	}
	if got := recs[1].Amount.String(); got != "81.5" {
		t.Fatalf("expected decimal comma amount 81.5, got %s", got)
	}
	if recs[2].HasDate() || !recs[2].Amount.IsZero() || recs[2].Category != nil {
		t.Fatalf("expected defaults for malformed row, got %+v", recs[2])
	}
	if recs[3].Name != core.UnknownName {
		t.Fatalf("expected unknown name, got %q", recs[3].Name)
	}
}

func TestParseRowsHeaderVariants(t *testing.T) {
	values := [][]any{
		{"id", "SOURCE", "value", "day", "emoji"},
		{"inc-1", "Salary", 3000.0, "2025-06-27", "💼"},
	}
	recs := core.IngestAll(parseRows(values), core.Income)
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	r := recs[0]
	if r.ID != "inc-1" || r.Name != "Salary" || r.Icon != "💼" || !r.HasDate() {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestParseRowsSerialDates(t *testing.T) {
	values := [][]any{
		{"Date", "Name", "Amount"},
		{45662.0, "Rent", 1200.0},
		{45658.5, "Lunch", 12.0},
		{"2025-01-03", "Taxi", 20.0},
	}
	recs := core.IngestAll(parseRows(values), core.Expense)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	want := []time.Time{
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if !recs[i].Date.Equal(w) {
			t.Fatalf("record %d: expected %v, got %v", i, w, recs[i].Date)
		}
	}
}

func TestParseRowsWithoutAmountColumn(t *testing.T) {
	got := parseRows([][]any{{"Date", "Name"}, {"2025-01-01", "x"}})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if got := parseRows(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for no values, got %#v", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&googleapi.Error{Code: 401}, source.ErrAuth},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 403}), source.ErrAuth},
		{&googleapi.Error{Code: 500}, source.ErrNetwork},
		{errors.New("dial tcp: timeout"), source.ErrNetwork},
	}
	for i, tc := range cases {
		if got := classify(tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}
