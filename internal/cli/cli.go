// Package cli implements the command line front end shared by the
// driver-specific schemadelta binaries.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bcomnes/schemadelta"
	"github.com/bcomnes/schemadelta/internal/logging"
)

// Driver describes one database flavour a binary is built for.
type Driver struct {
	// Name is the binary name, e.g. "schemadelta-pg".
	Name string

	// SQLDriver is the database/sql driver name, e.g. "pgx".
	SQLDriver string

	// EnvVar holds the connection string when --conn is omitted.
	EnvVar string

	// Product is the database product the driver speaks.
	Product string

	// ConnHelp describes the connection string format.
	ConnHelp string
}

// commandTimeout bounds every database round trip made by a command.
const commandTimeout = 10 * time.Minute

type app struct {
	drv    Driver
	v      *viper.Viper
	logger *zap.Logger
}

// Main runs the command line and returns the process exit code.
func Main(drv Driver, args []string) int {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}
	cmd := NewRootCommand(drv)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		var r reportedError
		if !errors.As(err, &r) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// loadDotEnv loads environment variables from path when the file exists.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// NewRootCommand builds the command tree for drv.
func NewRootCommand(drv Driver) *cobra.Command {
	a := &app{drv: drv, v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   drv.Name,
		Short: fmt.Sprintf("Compute the SQL bringing a %s schema up to date with numbered deltas", drv.Product),
		Long: fmt.Sprintf(`%s compares the delta scripts in a directory against the change log
table of a %s database and prints the SQL applying the pending ones.
The generated SQL is never executed.

Connection precedence: --conn flag, then $%s, then "conn" in --config.`,
			drv.Name, drv.Product, drv.EnvVar),
		Version:           schemadelta.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetVersionTemplate(fmt.Sprintf("%s version: {{.Version}}\n", drv.Name))

	flags := root.PersistentFlags()
	flags.String("conn", "", drv.ConnHelp)
	flags.String("config", "", "Path to a JSON, YAML or TOML configuration file (optional)")
	flags.String("deltas", "deltas", "Directory holding the delta scripts")
	flags.String("delta-dir", ".", "Subdirectory of --deltas to read (e.g. pgdeltas)")
	flags.String("changelog-table", schemadelta.DefaultChangeLogTable, "Name of the change log table")
	flags.Int("last-change", 0, "Highest delta ID to include (0 for all)")
	flags.String("applied-by", "", "Record this name in the change log instead of the database user")
	flags.String("delimiter", schemadelta.DefaultDelimiter, "Statement delimiter used in generated SQL")
	flags.String("temp-dir", "", "Base directory for extracting deltas (default: system temp dir)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Bool("log-json", false, "Write logs as JSON")

	// A bind failure is a wiring mistake in this file, not a user error.
	if err := bindConfig(a.v, root, drv.EnvVar, configFlags...); err != nil {
		panic(err)
	}

	root.AddCommand(a.sqlCommand(), a.statusCommand(), a.newCommand())
	return root
}

// configFlags are the persistent flags mirrored into the configuration.
var configFlags = []string{
	"conn", "deltas", "delta-dir", "changelog-table", "last-change",
	"applied-by", "delimiter", "temp-dir", "log-level", "log-json",
}

// bindConfig binds the named persistent flags of cmd to v, maps envVar onto
// the connection string and enables SCHEMADELTA_* environment overrides.
func bindConfig(v *viper.Viper, cmd *cobra.Command, envVar string, flagNames ...string) error {
	for _, name := range flagNames {
		if err := v.BindPFlag(configKey(name), cmd.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	if envVar != "" {
		if err := v.BindEnv("conn", envVar); err != nil {
			return fmt.Errorf("bind env %s: %w", envVar, err)
		}
	}
	v.SetEnvPrefix("SCHEMADELTA")
	v.AutomaticEnv()
	return nil
}

// configKey maps a flag name to its configuration key.
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// setup reads the configuration file and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return a.fail(cmd, "Error loading config file: %v", err)
		}
	}
	logger, err := logging.New(cmd.ErrOrStderr(), a.v.GetString("log_level"), a.v.GetBool("log_json"))
	if err != nil {
		return a.fail(cmd, "Error: %v", err)
	}
	a.logger = logger
	return nil
}

// config returns the library configuration assembled from flags, env and file.
func (a *app) config() (schemadelta.Config, error) {
	var cfg schemadelta.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.Product = a.drv.Product
	return cfg, nil
}

// deltaFS returns the directory of delta scripts on disk.
func (a *app) deltaFS() fs.FS {
	return os.DirFS(a.v.GetString("deltas"))
}

// withMigrator opens the database and hands f a ready Migrator.
func (a *app) withMigrator(cmd *cobra.Command, f func(ctx context.Context, m *schemadelta.Migrator) error) error {
	cfg, err := a.config()
	if err != nil {
		return a.fail(cmd, "Error: %v", err)
	}
	if cfg.Conn == "" {
		return a.fail(cmd, "Error: connection URL must be provided via --conn flag, %s env var, or \"conn\" in config file", a.drv.EnvVar)
	}

	db, err := sql.Open(a.drv.SQLDriver, cfg.Conn)
	if err != nil {
		return a.fail(cmd, "Error opening database: %v", err)
	}
	defer db.Close()

	m, err := schemadelta.NewMigrator(cfg, schemadelta.NewSQLConnection(db, a.drv.Product), a.deltaFS(),
		schemadelta.WithLogger(a.logger))
	if err != nil {
		return a.fail(cmd, "Error initializing schemadelta: %v", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return f(ctx, m)
}

func (a *app) sqlCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL applying every pending delta",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(cmd, func(ctx context.Context, m *schemadelta.Migrator) error {
				script, err := m.MigrationSQL(ctx)
				if err != nil {
					return a.fail(cmd, "Migration SQL error: %v", err)
				}
				if script == "" {
					a.logger.Info("database is up to date")
				}
				if output == "" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), script)
					return err
				}
				if err := os.WriteFile(output, []byte(script), 0644); err != nil {
					return a.fail(cmd, "Error writing %s: %v", output, err)
				}
				a.logger.Info("wrote migration script", zap.String("path", output))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the SQL to this file instead of stdout")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List available deltas and whether each has been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrator(cmd, func(ctx context.Context, m *schemadelta.Migrator) error {
				st, err := m.Status(ctx)
				if err != nil {
					return a.fail(cmd, "Status error: %v", err)
				}
				out := cmd.OutOrStdout()
				table := st.Dialect.ChangeLogTableName()
				if st.ChangeLogExists {
					fmt.Fprintf(out, "Change log table: %s\n", table)
				} else {
					fmt.Fprintf(out, "Change log table: %s (missing)\n", table)
				}
				fmt.Fprintln(out, "Available deltas:")
				for _, s := range st.Scripts {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "Delta %d: %s (%s) [%s]\n", s.ID, s.Description, s.FileName, state)
				}
				for _, id := range st.Orphaned {
					fmt.Fprintf(out, "Delta %d: applied but no longer available\n", id)
				}
				fmt.Fprintf(out, "Pending: %d\n", len(st.Pending))
				return nil
			})
		},
	}
}

func (a *app) newCommand() *cobra.Command {
	var newline string
	cmd := &cobra.Command{
		Use:   "new <description>",
		Short: "Create the next numbered, empty delta file",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return a.fail(cmd, "Error: a description is required for the new command.")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Join(a.v.GetString("deltas"), a.v.GetString("delta_dir"))
			path, err := schemadelta.CreateDelta(dir, strings.Join(args, " "), newline)
			if err != nil {
				return a.fail(cmd, "Error creating new delta: %v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&newline, "newline", "LF", "Line endings of the new file: LF, CR or CRLF")
	return cmd
}

// reportedError is an error already printed for the user.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// fail prints a message to stderr and returns it as an error.
func (a *app) fail(cmd *cobra.Command, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return reportedError{err: err}
}
