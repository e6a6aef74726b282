package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/preflight"
)

// doctorReport is the --json output of `indexwrap doctor`.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd() *cobra.Command {
	var verbose, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project and diagnose issues",
		Long: `Run diagnostics on the project without opening its indexes.

Checks:
  - Configuration loads and every route parses
  - Disk space (100MB minimum) and write permissions
  - File descriptor limit
  - Legacy store backend and whether another process holds its lock
  - Catalog rules, and routes that can never match a rule`,
		Example: `  indexwrap doctor
  indexwrap doctor --verbose
  indexwrap doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(cmd.Context(), root)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return werrors.New(werrors.ErrCodeInternal, "project check failed", nil).
					WithSuggestion("Fix the FAIL entries above and run 'indexwrap doctor' again")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
