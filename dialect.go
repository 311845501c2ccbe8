package schemadelta

import (
	"fmt"
	"strings"
	"sync"
)

type dialectKind int

const (
	kindPostgres dialectKind = iota + 1
	kindSQLite
	kindH2
)

// DefaultChangeLogTable is the change log table name used when none is configured.
const DefaultChangeLogTable = "changelog"

// Dialect is one supported SQL variant. The set of variants is closed; obtain
// one through ResolveDialect or the package-level values.
type Dialect struct {
	kind  dialectKind
	name  string
	table string
}

// Built-in dialects, keyed by the product name the database reports.
var (
	PostgreSQL = Dialect{kind: kindPostgres, name: "PostgreSQL", table: DefaultChangeLogTable}
	SQLite     = Dialect{kind: kindSQLite, name: "SQLite", table: DefaultChangeLogTable}
	H2         = Dialect{kind: kindH2, name: "H2", table: DefaultChangeLogTable}
)

var (
	registryMu sync.RWMutex
	registry   = []Dialect{PostgreSQL, SQLite, H2}
)

// RegisterDialect appends d to the registry consulted by ResolveDialect.
// Earlier registrations win when two dialects share a product name.
func RegisterDialect(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// ResolveDialect returns the first registered dialect whose product name
// matches product case-insensitively.
func ResolveDialect(product string) (Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	wanted := strings.TrimSpace(product)
	for _, d := range registry {
		if strings.EqualFold(d.name, wanted) {
			return d, nil
		}
	}
	return Dialect{}, &UnsupportedDialectError{Product: product}
}

// Named returns a copy of d registered under a different product name, for
// databases that speak an existing dialect but report another name.
func (d Dialect) Named(product string) Dialect {
	d.name = product
	return d
}

// WithChangeLogTable returns a copy of d that records changes in table.
// Dotted names are treated as schema-qualified.
func (d Dialect) WithChangeLogTable(table string) Dialect {
	if table != "" {
		d.table = table
	}
	return d
}

// Name returns the product name the dialect is registered under.
func (d Dialect) Name() string { return d.name }

// IsZero reports whether d is the zero Dialect.
func (d Dialect) IsZero() bool { return d.kind == 0 }

func (d Dialect) String() string { return d.name }

// CurrentTimestampExpr returns the SQL expression evaluated to the current time
// when the generated script runs.
func (d Dialect) CurrentTimestampExpr() string {
	return "CURRENT_TIMESTAMP"
}

// CurrentUserExpr returns the SQL expression naming the executing principal.
// SQLite has no notion of a user, so a fixed literal is recorded.
func (d Dialect) CurrentUserExpr() string {
	switch d.kind {
	case kindPostgres:
		return "CURRENT_USER"
	case kindH2:
		return "USER()"
	default:
		return "'sqlite'"
	}
}

// QuoteIdentifier double-quotes name, quoting each part of a dotted name
// separately and doubling embedded quotes.
func (d Dialect) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// ChangeLogTableName returns the unquoted change log table name.
func (d Dialect) ChangeLogTableName() string {
	if d.table == "" {
		return DefaultChangeLogTable
	}
	return d.table
}

// CreatesChangeLog reports whether generated scripts must create the change
// log table when the database does not have one yet.
func (d Dialect) CreatesChangeLog() bool {
	return d.kind != 0
}

// DeltaDir is the directory, inside a packaged delta tree, holding this
// dialect's scripts.
func (d Dialect) DeltaDir() string {
	switch d.kind {
	case kindPostgres:
		return "pgdeltas"
	case kindH2:
		return "h2deltas"
	default:
		return "sqlitedeltas"
	}
}

// splitTable separates an optional schema from the change log table name.
func (d Dialect) splitTable() (schema, table string) {
	name := d.ChangeLogTableName()
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// CreateChangeLogSQL returns the DDL creating the change log table, each
// statement terminated by delimiter.
func (d Dialect) CreateChangeLogSQL(delimiter string) string {
	idType, timeType, userType, descType := "INTEGER", "TIMESTAMP", "VARCHAR(100)", "VARCHAR(500)"
	switch d.kind {
	case kindPostgres:
		idType = "BIGINT"
	case kindSQLite:
		userType, descType = "TEXT", "TEXT"
	}

	schema, table := d.splitTable()
	var b strings.Builder
	if schema != "" && d.kind == kindPostgres {
		fmt.Fprintf(&b, "CREATE SCHEMA IF NOT EXISTS %s%s\n\n", d.QuoteIdentifier(schema), delimiter)
	}
	fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %s (
  change_number %s NOT NULL,
  complete_dt %s NOT NULL,
  applied_by %s NOT NULL,
  description %s NOT NULL,
  CONSTRAINT %s PRIMARY KEY (change_number)
)%s
`, d.QuoteIdentifier(d.ChangeLogTableName()), idType, timeType, userType, descType,
		d.QuoteIdentifier("pk_"+table), delimiter)
	return b.String()
}

// tableExistsQuery returns a query yielding a single count of tables named
// like the change log, with its arguments.
func (d Dialect) tableExistsQuery() (string, []any) {
	schema, table := d.splitTable()
	switch d.kind {
	case kindPostgres:
		if schema == "" {
			return `SELECT COUNT(*) FROM information_schema.tables
      WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
		}
		return `SELECT COUNT(*) FROM information_schema.tables
      WHERE table_schema = $1 AND table_name = $2`, []any{schema, table}
	case kindH2:
		if schema == "" {
			return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
      WHERE UPPER(TABLE_NAME) = UPPER(?)`, []any{table}
		}
		return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
      WHERE UPPER(TABLE_SCHEMA) = UPPER(?) AND UPPER(TABLE_NAME) = UPPER(?)`, []any{schema, table}
	default:
		if schema == "" {
			return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, []any{table}
		}
		// Each attached database has its own catalog.
		return fmt.Sprintf(`SELECT COUNT(*) FROM %s.sqlite_master WHERE type = 'table' AND name = ?`,
			d.QuoteIdentifier(schema)), []any{table}
	}
}

// selectChangeLogSQL returns the query listing applied changes by id.
func (d Dialect) selectChangeLogSQL() string {
	return fmt.Sprintf(`
      SELECT change_number, complete_dt, applied_by, description
      FROM %s
      ORDER BY change_number;`, d.QuoteIdentifier(d.ChangeLogTableName()))
}
