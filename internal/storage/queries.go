package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// SnapshotRow is one stored record, flattened.
type SnapshotRow struct {
	Kind         string
	Position     int64
	RecordID     string
	Name         string
	Amount       string
	OccurredAt   string
	Icon         string
	CategoryID   string
	CategoryName string
	CategoryIcon string
	CategoryType string
}

type SnapshotHeader struct {
	Kind        string
	FetchedAt   time.Time
	RecordCount int64
}

const upsertSnapshot = `-- name: UpsertSnapshot :exec
INSERT INTO snapshots (kind, fetched_at, record_count) VALUES (?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET fetched_at = excluded.fetched_at, record_count = excluded.record_count
`

func (q *Queries) UpsertSnapshot(ctx context.Context, kind string, fetchedAt time.Time, count int64) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, kind, fetchedAt.UTC(), count)
	return err
}

const deleteSnapshotRecords = `-- name: DeleteSnapshotRecords :exec
DELETE FROM snapshot_records WHERE kind = ?
`

func (q *Queries) DeleteSnapshotRecords(ctx context.Context, kind string) error {
	_, err := q.db.ExecContext(ctx, deleteSnapshotRecords, kind)
	return err
}

const insertSnapshotRecord = `-- name: InsertSnapshotRecord :exec
INSERT INTO snapshot_records (
    kind, position, record_id, name, amount, occurred_at, icon,
    category_id, category_name, category_icon, category_type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertSnapshotRecord(ctx context.Context, r SnapshotRow) error {
	_, err := q.db.ExecContext(ctx, insertSnapshotRecord,
		r.Kind,
		r.Position,
		r.RecordID,
		r.Name,
		r.Amount,
		r.OccurredAt,
		r.Icon,
		r.CategoryID,
		r.CategoryName,
		r.CategoryIcon,
		r.CategoryType,
	)
	return err
}

const getSnapshot = `-- name: GetSnapshot :one
SELECT kind, fetched_at, record_count FROM snapshots WHERE kind = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, kind string) (SnapshotHeader, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, kind)
	var h SnapshotHeader
	err := row.Scan(&h.Kind, &h.FetchedAt, &h.RecordCount)
	return h, err
}

const listSnapshotRecords = `-- name: ListSnapshotRecords :many
SELECT kind, position, record_id, name, amount, occurred_at, icon,
       category_id, category_name, category_icon, category_type
FROM snapshot_records
WHERE kind = ?
ORDER BY position
`

func (q *Queries) ListSnapshotRecords(ctx context.Context, kind string) ([]SnapshotRow, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshotRecords, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRow
	for rows.Next() {
		var i SnapshotRow
		if err := rows.Scan(
			&i.Kind,
			&i.Position,
			&i.RecordID,
			&i.Name,
			&i.Amount,
			&i.OccurredAt,
			&i.Icon,
			&i.CategoryID,
			&i.CategoryName,
			&i.CategoryIcon,
			&i.CategoryType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
