// Package memory provides an in-process record source for development and
// tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"moneymanager/internal/core"
	"moneymanager/internal/source"
)

var (
	_ source.Fetcher  = (*Store)(nil)
	_ source.Filterer = (*Store)(nil)
)

type Store struct {
	mu      sync.Mutex
	records map[core.Kind][]core.Record
}

// seedFile is the on-disk layout accepted by NewFromFile.
type seedFile struct {
	Income  []core.RawRecord `json:"income"`
	Expense []core.RawRecord `json:"expense"`
}

func New(records ...core.Record) *Store {
	s := &Store{records: map[core.Kind][]core.Record{}}
	for _, r := range records {
		s.put(r)
	}
	return s
}

// NewFromFile loads records from a JSON seed file. A missing path yields the
// built-in sample data set anchored at now.
func NewFromFile(path string, now time.Time) (*Store, error) {
	if path == "" {
		return New(Sample(now)...), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(Sample(now)...), nil
		}
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	s := New()
	for _, r := range core.IngestAll(seed.Income, core.Income) {
		s.put(r)
	}
	for _, r := range core.IngestAll(seed.Expense, core.Expense) {
		s.put(r)
	}
	return s, nil
}

// FetchRecords implements source.Fetcher.
func (s *Store) FetchRecords(_ context.Context, kind core.Kind) ([]core.Record, error) {
	if !kind.IsValid() {
		return nil, core.ErrInvalidKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record{}, s.records[kind]...), nil
}

// ApplyFilter implements source.Filterer using the local filter engine.
func (s *Store) ApplyFilter(ctx context.Context, c core.FilterCriteria) ([]core.Record, error) {
	recs, err := s.FetchRecords(ctx, c.Kind)
	if err != nil {
		return nil, err
	}
	return core.FilterAndSort(recs, c), nil
}

// put is only called while the store is being built. Records with an
// invalid kind are dropped.
func (s *Store) put(r core.Record) {
	if !r.Kind.IsValid() {
		return
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Icon == "" {
		r.Icon = core.DefaultIcon(r.Kind)
	}
	s.records[r.Kind] = append(s.records[r.Kind], r)
}

// Sample returns a small data set spread over the two months before now.
func Sample(now time.Time) []core.Record {
	d := func(daysAgo int) time.Time {
		y, m, dd := now.AddDate(0, 0, -daysAgo).Date()
		return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	}
	salary := &core.Category{ID: "cat-salary", Name: "Salary", Icon: "💼", Type: core.Income}
	freelance := &core.Category{ID: "cat-freelance", Name: "Freelance", Icon: "🧑‍💻", Type: core.Income}
	home := &core.Category{ID: "cat-home", Name: "Home", Icon: "🏠", Type: core.Expense}
	food := &core.Category{ID: "cat-food", Name: "Food", Icon: "🍝", Type: core.Expense}
	transport := &core.Category{ID: "cat-transport", Name: "Transport", Icon: "🚆", Type: core.Expense}

	rec := func(kind core.Kind, name, amount string, date time.Time, cat *core.Category) core.Record {
		return core.Record{
			Name:       name,
			Amount:     decimal.RequireFromString(amount),
			Date:       date,
			Icon:       cat.Icon,
			CategoryID: cat.ID,
			Category:   cat,
			Kind:       kind,
		}
	}
	return []core.Record{
		rec(core.Income, "Salary", "3200", d(3), salary),
		rec(core.Income, "Salary", "3200", d(33), salary),
		rec(core.Income, "Website project", "850", d(12), freelance),
		rec(core.Expense, "Rent", "1200", d(2), home),
		rec(core.Expense, "Rent", "1200", d(32), home),
		rec(core.Expense, "Groceries", "86.40", d(1), food),
		rec(core.Expense, "Coffee", "4.50", d(1), food),
		rec(core.Expense, "Dinner out", "58", d(9), food),
		rec(core.Expense, "Train ticket", "42", d(15), transport),
		rec(core.Expense, "Groceries", "74.10", d(40), food),
	}
}
