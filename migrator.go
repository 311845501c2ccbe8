package schemadelta

import (
	"context"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
)

// Migrator computes the SQL bringing one database up to date with a tree of
// packaged deltas. It never executes what it generates.
//
// The packaged tree holds one directory per dialect (pgdeltas, sqlitedeltas,
// h2deltas) unless Config.DeltaDir names a single directory to use.
type Migrator struct {
	cfg    Config
	conn   Connection
	deltas fs.FS
	logger *zap.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMigrator creates a Migrator reading deltas from the packaged tree and
// change log state from conn.
func NewMigrator(cfg Config, conn Connection, deltas fs.FS, opts ...Option) (*Migrator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: connection is required", ErrInvalidConfig)
	}
	if deltas == nil {
		return nil, fmt.Errorf("%w: packaged deltas are required", ErrInvalidConfig)
	}
	m := &Migrator{
		cfg:    cfg,
		conn:   conn,
		deltas: deltas,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Migrator) Config() Config {
	return m.cfg
}

// Dialect resolves the dialect of the connected database, bound to the
// configured change log table.
func (m *Migrator) Dialect(ctx context.Context) (Dialect, error) {
	product := m.cfg.Product
	if product == "" {
		var err error
		product, err = m.conn.ProductName(ctx)
		if err != nil {
			return Dialect{}, err
		}
	}
	d, err := ResolveDialect(product)
	if err != nil {
		return Dialect{}, err
	}
	return d.WithChangeLogTable(m.cfg.ChangeLogTable), nil
}

// MigrationSQL returns the script applying every pending delta, or "" when
// the database is up to date. Deltas are extracted to a temporary directory
// for the duration of the call and removed on every exit path.
func (m *Migrator) MigrationSQL(ctx context.Context) (string, error) {
	d, err := m.Dialect(ctx)
	if err != nil {
		return "", err
	}

	var script string
	err = m.withDeltas(d, func(src ScriptSource) error {
		_, plan, err := m.resolve(ctx, src, d)
		if err != nil {
			return err
		}
		script = Render(plan, d, RenderOptions{
			Delimiter: m.cfg.Delimiter,
			AppliedBy: m.cfg.AppliedBy,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return script, nil
}

// ScriptStatus pairs an available delta with whether it has been applied.
type ScriptStatus struct {
	DeltaScript
	Applied bool
}

// Status describes the available deltas against the change log.
type Status struct {
	Dialect         Dialect
	ChangeLogExists bool
	Scripts         []ScriptStatus

	// Pending holds the IDs MigrationSQL would render, honouring LastChange.
	Pending []int

	// Orphaned holds change log IDs with no available delta.
	Orphaned []int
}

// Status reports which deltas are applied without generating a script.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	d, err := m.Dialect(ctx)
	if err != nil {
		return nil, err
	}

	var st *Status
	err = m.withDeltas(d, func(src ScriptSource) error {
		scripts, plan, err := m.resolve(ctx, src, d)
		if err != nil {
			return err
		}

		applied := make(map[int]bool, len(plan.Applied))
		for _, id := range plan.Applied {
			applied[id] = true
		}
		st = &Status{
			Dialect:         d,
			ChangeLogExists: plan.ChangeLogExists,
			Pending:         plan.IDs(),
		}
		known := make(map[int]bool, len(scripts))
		for _, s := range scripts {
			known[s.ID] = true
			st.Scripts = append(st.Scripts, ScriptStatus{DeltaScript: s, Applied: applied[s.ID]})
		}
		for _, id := range plan.Applied {
			if !known[id] {
				st.Orphaned = append(st.Orphaned, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Migrator) resolve(ctx context.Context, src ScriptSource, d Dialect) ([]DeltaScript, *Plan, error) {
	scripts, err := src.ListScripts(ctx)
	if err != nil {
		return nil, nil, err
	}
	plan, err := ResolvePending(ctx, scripts, m.conn, d, ResolveOptions{
		LastChange: m.cfg.LastChange,
		Logger:     m.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return scripts, plan, nil
}

func (m *Migrator) withDeltas(d Dialect, f func(ScriptSource) error) error {
	dir := m.cfg.DeltaDir
	if dir == "" {
		dir = d.DeltaDir()
	}
	return withExtractedDeltas(m.logger, m.cfg.TempDir, m.deltas, dir, f)
}
