// Package main implements a SQLite-specific CLI for schemadelta.
// It accepts a connection URL via the --conn flag or SQLITE_URL environment variable
// (typically a file path like "./db.sqlite").
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/bcomnes/schemadelta"
	"github.com/bcomnes/schemadelta/internal/cli"
)

var driver = cli.Driver{
	Name:      "schemadelta-sqlite",
	SQLDriver: "sqlite3",
	EnvVar:    "SQLITE_URL",
	Product:   schemadelta.SQLite.Name(),
	ConnHelp:  "SQLite connection URL (typically a file path, e.g., \"./db.sqlite\"). Can also be set via SQLITE_URL env var.",
}

func main() {
	os.Exit(cli.Main(driver, os.Args[1:]))
}
