// Package cmd provides the CLI commands for indexwrap.
package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexwrap/internal/config"
	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/logging"
	"github.com/Aman-CERP/indexwrap/internal/profiling"
	"github.com/Aman-CERP/indexwrap/pkg/version"
)

// Global flags
var (
	configDir   string
	debugMode   bool
	noColor     bool
	profileOpts profiling.Options
)

var (
	loggingCleanup func()
	profileSession *profiling.Session
)

// NewRootCmd creates the root command for the indexwrap CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexwrap",
		Short: "Route secondary indexes to delegate engines or legacy indexes",
		Long: `indexwrap decides, per index, which backend serves it.

Each index rule on <label>.<property> is looked up in the route table of the
project configuration (.indexwrap.yaml). A route names either a registered
index engine, optionally pinned to a version, or a legacy index that is
created on first use. Indexes without a route use the default engine.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("indexwrap version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&configDir, "config-dir", "", "Project directory (default: nearest parent with .indexwrap.yaml or .git)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.indexwrap/logs/")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	pf.StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error { return finish() }

	cmd.AddCommand(newRoutesCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newPopulateCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error in CLI form, or as a
// JSON object when the failing command was run with --json.
func Execute() error {
	root := NewRootCmd()
	cmd, err := root.ExecuteC()
	if err != nil {
		reportError(cmd, err)
	}
	_ = finish()
	return err
}

func reportError(cmd *cobra.Command, err error) {
	if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
		if data, jerr := werrors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), string(data))
			return
		}
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), werrors.FormatForCLI(err, debugMode))
}

// projectRoot returns --config-dir, or the nearest project root above the
// working directory.
func projectRoot() (string, error) {
	if configDir != "" {
		return filepath.Abs(configDir)
	}
	return config.FindProjectRoot(".")
}

// startLoggingAndProfiling configures slog from the project configuration
// (falling back to defaults when it does not load) and starts profiling.
func startLoggingAndProfiling(cmd *cobra.Command, _ []string) error {
	lc := logging.DefaultConfig()
	if root, err := projectRoot(); err == nil {
		if cfg, err := config.Load(root); err == nil {
			lc = cfg.LogConfig()
		}
	}
	lc.Stderr = cmd.ErrOrStderr()
	if debugMode {
		lc = lc.WithDebug()
	}

	cleanup, err := logging.SetupDefault(lc)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	if debugMode {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", lc.FilePath),
			slog.String("version", version.Version))
	}

	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profileSession = s
	}
	return nil
}

// finish stops profiling and logging. It is safe to call more than once.
func finish() error {
	var err error
	if profileSession != nil {
		err = profileSession.Stop()
		profileSession = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}
