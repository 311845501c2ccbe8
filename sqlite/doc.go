// SPDX-License-Identifier: MIT

// Package main provides schemadelta-sqlite, a SQLite‑specific command‑line
// interface for the schemadelta library.
//
// # Install
//
//	go install github.com/bcomnes/schemadelta/sqlite@latest
//
// # Synopsis
//
//	schemadelta-sqlite [command] [arguments] [flags]
//
// # Commands
//
//	sql                 Print the SQL applying every pending delta (never executed).
//	status              List available deltas and mark which are applied.
//	new <desc>          Scaffold the next numbered, empty delta labelled *desc*.
//
// # Global flags
//
//	--conn string             SQLite connection URL. Overrides $SQLITE_URL and the
//	                          "conn" field in --config.
//	--config string           Optional JSON, YAML or TOML file mirroring schemadelta.Config.
//	--deltas string           Directory holding delta scripts (default "deltas").
//	--delta-dir string        Subdirectory of --deltas to read (default ".").
//	--changelog-table string  Table recording applied deltas (default "changelog").
//	--last-change int         Highest delta ID to include (default 0, meaning all).
//	--applied-by string       Literal recorded in the change log instead of the user.
//	--log-level string        debug, info, warn or error (default "info").
//	--log-json                Emit logs as JSON.
//	--version                 Print schemadelta-sqlite version.
//
// *Precedence:* --conn flag ➜ $SQLITE_URL ➜ "conn" in --config. Other settings can
// also be given as SCHEMADELTA_* environment variables, e.g.
// SCHEMADELTA_CHANGELOG_TABLE. A .env file in the working directory is loaded first.
//
// # Examples
//
//	# Print the pending SQL for ./db/sqlitedeltas
//	schemadelta-sqlite --conn ./db.sqlite --deltas db --delta-dir sqlitedeltas sql
//
//	# Write it to a file and apply it yourself
//	schemadelta-sqlite sql -o pending.sql
//
//	# Create the next delta
//	schemadelta-sqlite --deltas db --delta-dir sqlitedeltas new "add users table"
//
// # Configuration file
//
//	{
//	  "conn":            "./db.sqlite",
//	  "changelog_table": "changelog",
//	  "delta_dir":       "sqlitedeltas",
//	  "last_change":     0
//	}
//
// # Exit status
//
// The program exits non‑zero on any error. Each command runs with a context that
// times out after ten minutes.
//
// For driver‑agnostic details see the root schemadelta package.
package main
