package schemadelta

import (
	"errors"
	"fmt"
)

// Base error types. Typed errors below match these with errors.Is.
var (
	// ErrUnsupportedDialect is returned when the connection reports a database
	// product with no registered dialect.
	ErrUnsupportedDialect = errors.New("unsupported database")

	// ErrConnectivity is returned when metadata or the change log cannot be read.
	ErrConnectivity = errors.New("database connectivity error")

	// ErrScriptSource is returned when delta scripts cannot be listed or read.
	ErrScriptSource = errors.New("delta scripts unavailable")

	// ErrDuplicateDelta is returned when two delta scripts share an id.
	ErrDuplicateDelta = errors.New("duplicate delta id")

	// ErrUnorderedDeltas is returned when delta scripts are not ascending by id.
	ErrUnorderedDeltas = errors.New("delta scripts are not in ascending id order")

	// ErrInvalidConfig is returned for unusable configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UnsupportedDialectError carries the product name that failed to match.
type UnsupportedDialectError struct {
	Product string
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported DB %q", e.Product)
}

// Is reports whether target is ErrUnsupportedDialect.
func (e *UnsupportedDialectError) Is(target error) bool {
	return target == ErrUnsupportedDialect
}

// ConnectivityError wraps an I/O failure against the live database.
type ConnectivityError struct {
	// Op names what was being read, e.g. "query change log".
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// ScriptSourceError wraps a failure to enumerate or read delta scripts.
type ScriptSourceError struct {
	Path string
	Err  error
}

func (e *ScriptSourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("delta scripts: %v", e.Err)
	}
	return fmt.Sprintf("delta scripts %s: %v", e.Path, e.Err)
}

func (e *ScriptSourceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrScriptSource.
func (e *ScriptSourceError) Is(target error) bool {
	return target == ErrScriptSource
}
