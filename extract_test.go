package schemadelta

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failRemoval makes extraction cleanup fail for the rest of the test.
func failRemoval(t *testing.T) error {
	t.Helper()
	errRemove := errors.New("device busy")
	saved := removeAll
	removeAll = func(string) error { return errRemove }
	t.Cleanup(func() { removeAll = saved })
	return errRemove
}

func TestCleanupFailureIsOnlyLogged(t *testing.T) {
	errRemove := failRemoval(t)
	core, logs := observer.New(zap.WarnLevel)
	tmp := t.TempDir()

	deltas := fstest.MapFS{
		"sqlitedeltas/001_create_users.sql": {Data: []byte("CREATE TABLE users (id INTEGER PRIMARY KEY);\n")},
	}
	m, err := NewMigrator(Config{TempDir: tmp}, NewSQLConnection(openDB(t, "sqlite3"), ""), deltas,
		WithLogger(zap.New(core)))
	require.NoError(t, err)

	script, err := m.MigrationSQL(context.Background())
	require.NoError(t, err)
	assert.Contains(t, script, "-- START CHANGE SCRIPT #1: 001_create_users.sql")

	entries := logs.FilterMessage("failed to remove delta extraction directory").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, errRemove.Error(), fields["error"])
	assert.NotEmpty(t, fields["dir"])
}

func TestCleanupFailureKeepsPrimaryError(t *testing.T) {
	failRemoval(t)
	core, logs := observer.New(zap.WarnLevel)
	tmp := t.TempDir()
	boom := errors.New("resolve failed")

	err := withExtractedDeltas(zap.New(core), tmp, fstest.MapFS{}, ".", func(ScriptSource) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, logs.FilterMessage("failed to remove delta extraction directory").Len())
}
