package schemadelta_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/schemadelta"
)

// fakeConn is an in-memory Connection.
type fakeConn struct {
	product   string
	noTable   bool
	applied   []int
	productEr error
	existsErr error
	queryErr  error
	queried   bool
}

func (c *fakeConn) ProductName(context.Context) (string, error) {
	return c.product, c.productEr
}

func (c *fakeConn) ChangeLogTableExists(context.Context, schemadelta.Dialect) (bool, error) {
	if c.existsErr != nil {
		return false, c.existsErr
	}
	return !c.noTable, nil
}

func (c *fakeConn) QueryChangeLog(context.Context, schemadelta.Dialect) ([]schemadelta.ChangeLogEntry, error) {
	c.queried = true
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	var entries []schemadelta.ChangeLogEntry
	for _, id := range c.applied {
		entries = append(entries, schemadelta.ChangeLogEntry{ID: id, AppliedBy: "tester"})
	}
	return entries, nil
}

func scripts(ids ...int) []schemadelta.DeltaScript {
	out := make([]schemadelta.DeltaScript, len(ids))
	for i, id := range ids {
		out[i] = schemadelta.DeltaScript{ID: id, Body: "SELECT 1;"}
	}
	return out
}

func ids(plan *schemadelta.Plan) []int {
	return plan.IDs()
}

func TestResolvePending(t *testing.T) {
	ctx := context.Background()

	t.Run("skips applied deltas", func(t *testing.T) {
		available := []schemadelta.DeltaScript{
			{ID: 1, Description: "create table", Body: "CREATE TABLE t (id INT);"},
			{ID: 2, Description: "add column", Body: "ALTER TABLE t ADD COLUMN name TEXT;"},
		}
		plan, err := schemadelta.ResolvePending(ctx, available, &fakeConn{applied: []int{1}}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, plan.Scripts, 1)
		assert.Equal(t, available[1], plan.Scripts[0])
		assert.Equal(t, []int{1}, plan.Applied)
		assert.True(t, plan.ChangeLogExists)
	})

	t.Run("empty input", func(t *testing.T) {
		plan, err := schemadelta.ResolvePending(ctx, nil, &fakeConn{}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		assert.True(t, plan.Empty())
	})

	t.Run("missing change log", func(t *testing.T) {
		conn := &fakeConn{noTable: true, applied: []int{1}}
		plan, err := schemadelta.ResolvePending(ctx, scripts(1, 2), conn, schemadelta.SQLite, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, ids(plan))
		assert.False(t, plan.ChangeLogExists)
		assert.False(t, conn.queried, "change log must not be queried when the table is absent")
	})

	t.Run("gaps in ids are kept", func(t *testing.T) {
		plan, err := schemadelta.ResolvePending(ctx, scripts(1, 5, 10, 11), &fakeConn{applied: []int{5}}, schemadelta.H2, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 10, 11}, ids(plan))
	})

	t.Run("unknown change log entries are ignored", func(t *testing.T) {
		plan, err := schemadelta.ResolvePending(ctx, scripts(2, 3), &fakeConn{applied: []int{1, 2, 99}}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []int{3}, ids(plan))
		assert.Equal(t, []int{1, 2, 99}, plan.Applied)
	})

	t.Run("last change caps the plan", func(t *testing.T) {
		plan, err := schemadelta.ResolvePending(ctx, scripts(1, 2, 3, 4), &fakeConn{applied: []int{1}}, schemadelta.PostgreSQL,
			schemadelta.ResolveOptions{LastChange: 3})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, ids(plan))
	})
}

func TestResolvePendingPrecondition(t *testing.T) {
	ctx := context.Background()

	_, err := schemadelta.ResolvePending(ctx, scripts(2, 1), &fakeConn{}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
	assert.ErrorIs(t, err, schemadelta.ErrUnorderedDeltas)

	_, err = schemadelta.ResolvePending(ctx, scripts(1, 2, 2), &fakeConn{}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
	assert.ErrorIs(t, err, schemadelta.ErrDuplicateDelta)
}

func TestResolvePendingConnectivity(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	_, err := schemadelta.ResolvePending(ctx, scripts(1), &fakeConn{
		existsErr: &schemadelta.ConnectivityError{Op: "check change log table", Err: boom},
	}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
	assert.ErrorIs(t, err, schemadelta.ErrConnectivity)
	assert.ErrorIs(t, err, boom)

	plan, err := schemadelta.ResolvePending(ctx, scripts(1), &fakeConn{
		queryErr: &schemadelta.ConnectivityError{Op: "query change log", Err: boom},
	}, schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
	assert.ErrorIs(t, err, schemadelta.ErrConnectivity)
	assert.Nil(t, plan)
}

// TestResolvePendingMatchesFilter checks the pending set against a direct
// filter over many generated inputs.
func TestResolvePendingMatchesFilter(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		var available []int
		next := 0
		for n := rng.Intn(12); n > 0; n-- {
			next += 1 + rng.Intn(3)
			available = append(available, next)
		}
		var applied []int
		want := []int{}
		for _, id := range available {
			if rng.Intn(2) == 0 {
				applied = append(applied, id)
			} else {
				want = append(want, id)
			}
		}
		if rng.Intn(4) == 0 {
			applied = append(applied, next+100)
		}

		plan, err := schemadelta.ResolvePending(ctx, scripts(available...), &fakeConn{applied: applied},
			schemadelta.PostgreSQL, schemadelta.ResolveOptions{})
		require.NoError(t, err)
		got := ids(plan)
		if got == nil {
			got = []int{}
		}
		assert.Equal(t, want, got, "available=%v applied=%v", available, applied)
	}
}
