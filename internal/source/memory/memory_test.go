package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneymanager/internal/core"
)

func TestStoreFetch(t *testing.T) {
	s := New(
		core.Record{Name: "Rent", Amount: decimal.NewFromInt(1200), Kind: core.Expense},
		core.Record{Name: "x"},
	)
	if _, err := s.FetchRecords(context.Background(), "bogus"); err != core.ErrInvalidKind {
		t.Fatalf("expected invalid kind, got %v", err)
	}

	exp, err := s.FetchRecords(context.Background(), core.Expense)
	if err != nil || len(exp) != 1 || exp[0].ID == "" || exp[0].Icon == "" {
		t.Fatalf("unexpected expenses: %+v err=%v", exp, err)
	}
	inc, err := s.FetchRecords(context.Background(), core.Income)
	if err != nil || inc == nil || len(inc) != 0 {
		t.Fatalf("expected empty income slice, got %#v err=%v", inc, err)
	}

	// returned slices are copies
	exp[0].Name = "changed"
	again, _ := s.FetchRecords(context.Background(), core.Expense)
	if again[0].Name != "Rent" {
		t.Fatalf("store was mutated through returned slice")
	}
}

func TestStoreApplyFilter(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	s := New(Sample(now)...)
	got, err := s.ApplyFilter(context.Background(), core.FilterCriteria{
		Kind:      core.Expense,
		Keyword:   "groceries",
		SortField: core.SortByAmount,
		SortOrder: core.Desc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].Amount.Equal(decimal.RequireFromString("86.40")) {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestNewFromFile(t *testing.T) {
	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	s, err := NewFromFile(filepath.Join(t.TempDir(), "missing.json"), now)
	if err != nil {
		t.Fatalf("missing file should fall back to sample: %v", err)
	}
	inc, _ := s.FetchRecords(context.Background(), core.Income)
	if len(inc) == 0 {
		t.Fatalf("expected sample income records")
	}

	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{"income":[{"source":"Salary","amount":"2500","date":"2025-06-01"}],
		"expense":[{"_id":"e1","name":"Rent","amount":900},{"amount":"bad"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inc, _ = s.FetchRecords(context.Background(), core.Income)
	exp, _ := s.FetchRecords(context.Background(), core.Expense)
	if len(inc) != 1 || inc[0].Name != "Salary" || inc[0].ID == "" {
		t.Fatalf("unexpected income: %+v", inc)
	}
	if len(exp) != 2 || exp[0].ID != "e1" || exp[1].Name != core.UnknownName || !exp[1].Amount.IsZero() {
		t.Fatalf("unexpected expenses: %+v", exp)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path, now); err == nil {
		t.Fatalf("expected parse error")
	}
}
