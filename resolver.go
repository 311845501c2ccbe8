package schemadelta

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// ResolveOptions tunes ResolvePending.
type ResolveOptions struct {
	// LastChange caps the plan at this delta ID. Zero means no cap.
	LastChange int

	Logger *zap.Logger
}

// ResolvePending compares scripts against conn's change log and returns the
// deltas not applied yet, in ascending ID order.
//
// scripts must already be sorted ascending by ID; it is not re-sorted and
// an out-of-order or duplicated ID fails with ErrUnorderedDeltas or
// ErrDuplicateDelta. A missing change log table counts as an empty log.
// The change log is only read, never written.
func ResolvePending(ctx context.Context, scripts []DeltaScript, conn Connection, d Dialect, opts ResolveOptions) (*Plan, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := checkOrder(scripts); err != nil {
		return nil, err
	}

	exists, err := conn.ChangeLogTableExists(ctx, d)
	if err != nil {
		return nil, err
	}

	applied := make(map[int]bool)
	plan := &Plan{ChangeLogExists: exists}
	if exists {
		entries, err := conn.QueryChangeLog(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !applied[e.ID] {
				applied[e.ID] = true
				plan.Applied = append(plan.Applied, e.ID)
			}
		}
		sort.Ints(plan.Applied)
	} else {
		logger.Info("change log table not found, treating as empty",
			zap.String("table", d.ChangeLogTableName()))
	}

	available := make([]int, 0, len(scripts))
	for _, s := range scripts {
		available = append(available, s.ID)
		if applied[s.ID] {
			continue
		}
		if opts.LastChange > 0 && s.ID > opts.LastChange {
			continue
		}
		plan.Scripts = append(plan.Scripts, s)
	}

	logger.Info("resolved pending deltas",
		zap.String("dialect", d.Name()),
		zap.String("available", formatIDs(available)),
		zap.String("applied", formatIDs(plan.Applied)),
		zap.String("to_apply", formatIDs(plan.IDs())))
	return plan, nil
}
