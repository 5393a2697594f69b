package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Blob struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

const getBlob = `SELECT key, value, updated_at FROM kv_blobs WHERE key = ?`

func (q *Queries) GetBlob(ctx context.Context, key string) (Blob, error) {
	var b Blob
	err := q.db.QueryRowContext(ctx, getBlob, key).Scan(&b.Key, &b.Value, &b.UpdatedAt)
	return b, err
}

const upsertBlob = `INSERT INTO kv_blobs (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type UpsertBlobParams struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

func (q *Queries) UpsertBlob(ctx context.Context, arg UpsertBlobParams) error {
	_, err := q.db.ExecContext(ctx, upsertBlob, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteBlob = `DELETE FROM kv_blobs WHERE key = ?`

func (q *Queries) DeleteBlob(ctx context.Context, key string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBlob, key)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
