package schemadelta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDialect(t *testing.T) {
	testCases := []struct {
		product string
		want    Dialect
	}{
		{"PostgreSQL", PostgreSQL},
		{"postgresql", PostgreSQL},
		{"POSTGRESQL", PostgreSQL},
		{"H2", H2},
		{"h2", H2},
		{"SQLite", SQLite},
		{" sqlite ", SQLite},
	}
	for _, tc := range testCases {
		t.Run(tc.product, func(t *testing.T) {
			got, err := ResolveDialect(tc.product)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDialectUnsupported(t *testing.T) {
	_, err := ResolveDialect("Oracle")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDialect)

	var unsupported *UnsupportedDialectError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "Oracle", unsupported.Product)
	assert.Equal(t, `unsupported DB "Oracle"`, err.Error())
}

func TestRegisterDialect(t *testing.T) {
	registryMu.RLock()
	saved := append([]Dialect(nil), registry...)
	registryMu.RUnlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})

	_, err := ResolveDialect("EnterpriseDB")
	require.ErrorIs(t, err, ErrUnsupportedDialect)

	RegisterDialect(PostgreSQL.Named("EnterpriseDB"))
	got, err := ResolveDialect("enterprisedb")
	require.NoError(t, err)
	assert.Equal(t, "EnterpriseDB", got.Name())
	assert.Equal(t, "CURRENT_USER", got.CurrentUserExpr())

	// Earlier registrations win.
	RegisterDialect(SQLite.Named("PostgreSQL"))
	got, err = ResolveDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, PostgreSQL, got)
}

func TestDialectTokens(t *testing.T) {
	testCases := []struct {
		d         Dialect
		timestamp string
		user      string
		dir       string
	}{
		{PostgreSQL, "CURRENT_TIMESTAMP", "CURRENT_USER", "pgdeltas"},
		{SQLite, "CURRENT_TIMESTAMP", "'sqlite'", "sqlitedeltas"},
		{H2, "CURRENT_TIMESTAMP", "USER()", "h2deltas"},
	}
	for _, tc := range testCases {
		t.Run(tc.d.Name(), func(t *testing.T) {
			assert.Equal(t, tc.timestamp, tc.d.CurrentTimestampExpr())
			assert.Equal(t, tc.user, tc.d.CurrentUserExpr())
			assert.Equal(t, tc.dir, tc.d.DeltaDir())
			assert.Equal(t, DefaultChangeLogTable, tc.d.ChangeLogTableName())
			assert.True(t, tc.d.CreatesChangeLog())
		})
	}
	assert.True(t, Dialect{}.IsZero())
	assert.False(t, Dialect{}.CreatesChangeLog())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"changelog"`, PostgreSQL.QuoteIdentifier("changelog"))
	assert.Equal(t, `"ops"."changelog"`, PostgreSQL.QuoteIdentifier("ops.changelog"))
	assert.Equal(t, `"we""ird"`, SQLite.QuoteIdentifier(`we"ird`))
}

func TestWithChangeLogTable(t *testing.T) {
	d := PostgreSQL.WithChangeLogTable("ops.changes")
	assert.Equal(t, "ops.changes", d.ChangeLogTableName())
	assert.Equal(t, DefaultChangeLogTable, PostgreSQL.ChangeLogTableName())
	assert.Equal(t, "changelog", PostgreSQL.WithChangeLogTable("").ChangeLogTableName())

	schema, table := d.splitTable()
	assert.Equal(t, "ops", schema)
	assert.Equal(t, "changes", table)
}

func TestCreateChangeLogSQL(t *testing.T) {
	pg := PostgreSQL.WithChangeLogTable("ops.changes").CreateChangeLogSQL(";")
	assert.Contains(t, pg, `CREATE SCHEMA IF NOT EXISTS "ops";`)
	assert.Contains(t, pg, `CREATE TABLE IF NOT EXISTS "ops"."changes" (`)
	assert.Contains(t, pg, "change_number BIGINT NOT NULL")
	assert.Contains(t, pg, `CONSTRAINT "pk_changes" PRIMARY KEY (change_number)`)

	lite := SQLite.CreateChangeLogSQL(";")
	assert.NotContains(t, lite, "CREATE SCHEMA")
	assert.Contains(t, lite, "change_number INTEGER NOT NULL")
	assert.Contains(t, lite, "applied_by TEXT NOT NULL")
}

func TestTableExistsQuery(t *testing.T) {
	q, args := PostgreSQL.tableExistsQuery()
	assert.Contains(t, q, "current_schema()")
	assert.Equal(t, []any{"changelog"}, args)

	q, args = PostgreSQL.WithChangeLogTable("ops.changes").tableExistsQuery()
	assert.Contains(t, q, "table_schema = $1")
	assert.Equal(t, []any{"ops", "changes"}, args)

	q, args = SQLite.tableExistsQuery()
	assert.Contains(t, q, "FROM sqlite_master")
	assert.Equal(t, []any{"changelog"}, args)

	q, args = SQLite.WithChangeLogTable("ops.changelog").tableExistsQuery()
	assert.Contains(t, q, `FROM "ops".sqlite_master`)
	assert.Equal(t, []any{"changelog"}, args)

	q, _ = H2.tableExistsQuery()
	assert.Contains(t, q, "INFORMATION_SCHEMA.TABLES")
}
