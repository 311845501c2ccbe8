// SPDX-License-Identifier: MIT

// Package schemadelta computes the SQL that brings a database schema up to
// date with a set of numbered delta scripts. It reads which deltas a
// database has applied from a change log table, picks the ones still
// pending, and renders them into a single script together with the change
// log inserts recording them. The script is returned, never executed.
//
// A small dialect layer (PostgreSQL, SQLite and H2) supplies the few SQL
// differences involved. Companion CLI tools live under sub-packages *pg*
// and *sqlite*; the core logic is here.
//
// # Install
//
//	go get github.com/bcomnes/schemadelta@latest
//
// # Quick start
//
//	import (
//	    "context"
//	    "database/sql"
//	    "embed"
//	    "fmt"
//	    "os"
//
//	    _ "github.com/jackc/pgx/v5/stdlib"
//	    "github.com/bcomnes/schemadelta"
//	)
//
//	//go:embed pgdeltas/*.sql
//	var deltas embed.FS
//
//	func main() {
//	    db, _ := sql.Open("pgx", os.Getenv("DATABASE_URL"))
//	    m, _ := schemadelta.NewMigrator(schemadelta.Config{}, schemadelta.NewSQLConnection(db, ""), deltas)
//	    script, _ := m.MigrationSQL(context.Background())
//	    fmt.Print(script)
//	}
//
// # Delta files
//
// A delta is a *.sql file whose name starts with its numeric ID:
//
//	001_create_users.sql
//	002_add_email_to_users.sql
//
// IDs need not be contiguous but must be unique. Anything after a
// "--//@UNDO" line is ignored. The packaged tree holds one directory per
// dialect: pgdeltas, sqlitedeltas and h2deltas.
//
// # Change log
//
// Applied deltas are recorded in a table (default "changelog") with the
// columns change_number, complete_dt, applied_by and description. When the
// table is missing, the generated script creates it before the first insert.
//
// # Configuration
//
//   - Product: override the detected database product
//   - ChangeLogTable: table that records applied deltas
//   - DeltaDir: directory within the packaged tree
//   - TempDir: base directory for the extracted deltas
//   - LastChange: highest delta ID to include (0 for all)
//   - Delimiter: statement terminator (default ";")
//   - AppliedBy: literal recorded instead of the database user
//
// # Errors
//
// Failures match one of ErrUnsupportedDialect, ErrConnectivity,
// ErrScriptSource, ErrDuplicateDelta, ErrUnorderedDeltas or
// ErrInvalidConfig with errors.Is. Nothing is retried.
package schemadelta
