package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneymanager/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "snapshots.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestLoadSnapshotMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LoadSnapshot(context.Background(), core.Income); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fetched := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	recs := []core.Record{
		{
			ID:         "e1",
			Name:       "Rent",
			Amount:     decimal.RequireFromString("1200.50"),
			Date:       time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
			Icon:       "🏠",
			CategoryID: "c1",
			Category:   &core.Category{ID: "c1", Name: "Home", Icon: "🏠", Type: core.Expense},
			Kind:       core.Expense,
		},
		{ID: "e2", Name: "Cash", Amount: decimal.NewFromInt(9), CategoryID: "c9", Kind: core.Expense},
	}
	if err := repo.SaveSnapshot(ctx, core.Expense, recs, fetched); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := repo.LoadSnapshot(ctx, core.Expense)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !snap.FetchedAt.Equal(fetched) {
		t.Fatalf("expected fetched_at %v, got %v", fetched, snap.FetchedAt)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap.Records))
	}
	first := snap.Records[0]
	if first.ID != "e1" || !first.Amount.Equal(recs[0].Amount) || !first.Date.Equal(recs[0].Date) {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Category == nil || first.Category.Name != "Home" || first.Category.Type != core.Expense {
		t.Fatalf("category not restored: %+v", first.Category)
	}
	second := snap.Records[1]
	if second.HasDate() || second.Category != nil || second.CategoryID != "c9" {
		t.Fatalf("unexpected second record: %+v", second)
	}

	// saving again replaces the previous set
	if err := repo.SaveSnapshot(ctx, core.Expense, recs[:1], fetched.Add(time.Hour)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	snap, err = repo.LoadSnapshot(ctx, core.Expense)
	if err != nil || len(snap.Records) != 1 {
		t.Fatalf("expected replaced snapshot with one record, got %+v err=%v", snap, err)
	}

	// kinds are independent
	if _, err := repo.LoadSnapshot(ctx, core.Income); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected no income snapshot, got %v", err)
	}
}

func TestSaveSnapshotEmptyAndInvalidKind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.SaveSnapshot(ctx, "transfer", nil, time.Now()); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
	if err := repo.SaveSnapshot(ctx, core.Income, nil, time.Now()); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	snap, err := repo.LoadSnapshot(ctx, core.Income)
	if err != nil || snap.Records == nil || len(snap.Records) != 0 {
		t.Fatalf("expected empty non-nil snapshot, got %#v err=%v", snap.Records, err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if v, _, err := SchemaVersion(path); err != nil || v != 0 {
		t.Fatalf("fresh database: version=%d err=%v", v, err)
	}
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	v, dirty, err := SchemaVersion(path)
	if err != nil || dirty || v != 1 {
		t.Fatalf("expected clean version 1, got %d dirty=%v err=%v", v, dirty, err)
	}
}
