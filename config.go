package schemadelta

import (
	"fmt"
	"strings"
)

// Config holds settings for computing migration scripts.
type Config struct {
	// Product overrides the database product reported by the connection
	// (e.g. "PostgreSQL"). Leave empty to detect it.
	Product string `json:"product,omitempty" mapstructure:"product"`

	// ChangeLogTable is the table recording applied deltas. It may be schema
	// qualified ("ops.changelog").
	ChangeLogTable string `json:"changelog_table,omitempty" mapstructure:"changelog_table"`

	// DeltaDir is the directory inside the packaged deltas holding the
	// scripts. Defaults to the dialect's directory (pgdeltas, sqlitedeltas, h2deltas).
	DeltaDir string `json:"delta_dir,omitempty" mapstructure:"delta_dir"`

	// TempDir is where deltas are extracted while a script is computed.
	// Defaults to the system temporary directory.
	TempDir string `json:"temp_dir,omitempty" mapstructure:"temp_dir"`

	// LastChange caps the generated script at this delta ID (0 means all).
	LastChange int `json:"last_change,omitempty" mapstructure:"last_change"`

	// Delimiter terminates generated statements.
	Delimiter string `json:"delimiter,omitempty" mapstructure:"delimiter"`

	// AppliedBy is recorded in the change log instead of the database user.
	AppliedBy string `json:"applied_by,omitempty" mapstructure:"applied_by"`

	// Conn is the connection string, used by the command line tools only.
	Conn string `json:"conn,omitempty" mapstructure:"conn"`
}

// DefaultConfig provides default values for configuration.
var DefaultConfig = Config{
	ChangeLogTable: DefaultChangeLogTable,
	Delimiter:      DefaultDelimiter,
}

// withDefaults merges DefaultConfig into unset fields.
func (c Config) withDefaults() Config {
	if c.ChangeLogTable == "" {
		c.ChangeLogTable = DefaultConfig.ChangeLogTable
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultConfig.Delimiter
	}
	return c
}

// Validate reports unusable values.
func (c Config) Validate() error {
	if c.LastChange < 0 {
		return fmt.Errorf("%w: last change must not be negative, got %d", ErrInvalidConfig, c.LastChange)
	}
	if strings.Count(c.ChangeLogTable, ".") > 1 {
		return fmt.Errorf("%w: change log table %q has more than one schema qualifier", ErrInvalidConfig, c.ChangeLogTable)
	}
	if strings.TrimSpace(c.Delimiter) == "" && c.Delimiter != "" {
		return fmt.Errorf("%w: delimiter must not be blank", ErrInvalidConfig)
	}
	return nil
}
