// Package storage keeps the last successful fetch of each record kind in
// SQLite so reports can fall back to it when the record source is down.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"moneymanager/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is the record set of one kind as last fetched.
type Snapshot struct {
	Kind      core.Kind
	FetchedAt time.Time
	Records   []core.Record
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSnapshot replaces the stored records of kind in one transaction.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, kind core.Kind, records []core.Record, fetchedAt time.Time) error {
	if !kind.IsValid() {
		return core.ErrInvalidKind
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	if err := q.UpsertSnapshot(ctx, kind.String(), fetchedAt, int64(len(records))); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	if err := q.DeleteSnapshotRecords(ctx, kind.String()); err != nil {
		return fmt.Errorf("clear snapshot records: %w", err)
	}
	for i, rec := range records {
		if err := q.InsertSnapshotRecord(ctx, toRow(kind, int64(i), rec)); err != nil {
			return fmt.Errorf("insert snapshot record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved",
		"kind", kind,
		"records", len(records),
		"fetched_at", fetchedAt)
	return nil
}

// LoadSnapshot returns the stored records of kind, or ErrNoSnapshot.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, kind core.Kind) (Snapshot, error) {
	h, err := r.queries.GetSnapshot(ctx, kind.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	rows, err := r.queries.ListSnapshotRecords(ctx, kind.String())
	if err != nil {
		return Snapshot{}, fmt.Errorf("list snapshot records: %w", err)
	}
	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromRow(row))
	}
	return Snapshot{Kind: kind, FetchedAt: h.FetchedAt, Records: records}, nil
}

func toRow(kind core.Kind, pos int64, rec core.Record) SnapshotRow {
	row := SnapshotRow{
		Kind:       kind.String(),
		Position:   pos,
		RecordID:   rec.ID,
		Name:       rec.Name,
		Amount:     rec.Amount.String(),
		Icon:       rec.Icon,
		CategoryID: rec.CategoryID,
	}
	if rec.HasDate() {
		row.OccurredAt = rec.Date.Format(time.RFC3339Nano)
	}
	if rec.Category != nil {
		row.CategoryName = rec.Category.Name
		row.CategoryIcon = rec.Category.Icon
		row.CategoryType = rec.Category.Type.String()
	}
	return row
}

func fromRow(row SnapshotRow) core.Record {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	rec := core.Record{
		ID:         row.RecordID,
		Name:       row.Name,
		Amount:     amount,
		Icon:       row.Icon,
		CategoryID: row.CategoryID,
		Kind:       core.Kind(row.Kind),
	}
	if t, ok := core.ParseDate(row.OccurredAt); ok {
		rec.Date = t
	}
	if row.CategoryName != "" {
		rec.Category = &core.Category{
			ID:   row.CategoryID,
			Name: row.CategoryName,
			Icon: row.CategoryIcon,
			Type: core.Kind(row.CategoryType),
		}
	}
	return rec
}
