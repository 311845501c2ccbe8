package schemadelta

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConnection implements Connection over a pgx connection pool.
// The pool is borrowed; closing it is the caller's job.
type PoolConnection struct {
	pool *pgxpool.Pool
}

// NewPoolConnection wraps pool.
func NewPoolConnection(pool *pgxpool.Pool) *PoolConnection {
	return &PoolConnection{pool: pool}
}

// ProductName implements Connection by reading the server's version banner.
func (c *PoolConnection) ProductName(ctx context.Context) (string, error) {
	var banner string
	if err := c.pool.QueryRow(ctx, `SELECT version()`).Scan(&banner); err != nil {
		return "", &ConnectivityError{Op: "read database product name", Err: err}
	}
	return productFromVersion(banner), nil
}

// ChangeLogTableExists implements Connection.
func (c *PoolConnection) ChangeLogTableExists(ctx context.Context, d Dialect) (bool, error) {
	query, args := d.tableExistsQuery()
	var n int64
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, &ConnectivityError{Op: "check change log table", Err: err}
	}
	return n > 0, nil
}

// QueryChangeLog implements Connection.
func (c *PoolConnection) QueryChangeLog(ctx context.Context, d Dialect) ([]ChangeLogEntry, error) {
	rows, err := c.pool.Query(ctx, d.selectChangeLogSQL())
	if err != nil {
		return nil, &ConnectivityError{Op: "query change log", Err: err}
	}
	defer rows.Close()

	var entries []ChangeLogEntry
	for rows.Next() {
		var (
			id   int64
			at   pgtype.Timestamp
			by   pgtype.Text
			desc pgtype.Text
		)
		if err := rows.Scan(&id, &at, &by, &desc); err != nil {
			return nil, &ConnectivityError{Op: "scan change log", Err: err}
		}
		var appliedAt time.Time
		if at.Valid {
			appliedAt = at.Time
		}
		entries = append(entries, ChangeLogEntry{
			ID:          int(id),
			AppliedAt:   appliedAt,
			AppliedBy:   by.String,
			Description: desc.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectivityError{Op: "query change log", Err: err}
	}
	return entries, nil
}
