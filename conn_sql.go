package schemadelta

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
)

// SQLConnection implements Connection over a database/sql handle.
type SQLConnection struct {
	db      *sql.DB
	product string
}

// NewSQLConnection wraps db. When product is empty the product name is
// detected from the registered driver, falling back to asking the server.
func NewSQLConnection(db *sql.DB, product string) *SQLConnection {
	return &SQLConnection{db: db, product: product}
}

// ProductName implements Connection.
func (c *SQLConnection) ProductName(ctx context.Context) (string, error) {
	if c.product != "" {
		return c.product, nil
	}
	if p := driverProduct(c.db.Driver()); p != "" {
		return p, nil
	}

	var banner string
	err := c.db.QueryRowContext(ctx, `SELECT version()`).Scan(&banner)
	if err == nil {
		return productFromVersion(banner), nil
	}
	if sqliteErr := c.db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&banner); sqliteErr == nil {
		return SQLite.Name(), nil
	}
	return "", &ConnectivityError{Op: "read database product name", Err: err}
}

// driverProduct maps well-known drivers to the product they speak.
func driverProduct(drv driver.Driver) string {
	if _, ok := drv.(*stdlib.Driver); ok {
		return PostgreSQL.Name()
	}
	switch fmt.Sprintf("%T", drv) {
	case "*pq.Driver":
		return PostgreSQL.Name()
	case "*sqlite3.SQLiteDriver", "*sqlite.Driver":
		return SQLite.Name()
	}
	return ""
}

// ChangeLogTableExists implements Connection.
func (c *SQLConnection) ChangeLogTableExists(ctx context.Context, d Dialect) (bool, error) {
	query, args := d.tableExistsQuery()
	var n int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, &ConnectivityError{Op: "check change log table", Err: err}
	}
	return n > 0, nil
}

// QueryChangeLog implements Connection.
func (c *SQLConnection) QueryChangeLog(ctx context.Context, d Dialect) ([]ChangeLogEntry, error) {
	rows, err := c.db.QueryContext(ctx, d.selectChangeLogSQL())
	if err != nil {
		return nil, &ConnectivityError{Op: "query change log", Err: err}
	}
	defer rows.Close()

	var entries []ChangeLogEntry
	for rows.Next() {
		var (
			e    ChangeLogEntry
			at   scanTime
			by   sql.NullString
			desc sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &by, &desc); err != nil {
			return nil, &ConnectivityError{Op: "scan change log", Err: err}
		}
		e.AppliedAt, e.AppliedBy, e.Description = at.t, by.String, desc.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectivityError{Op: "query change log", Err: err}
	}
	return entries, nil
}
