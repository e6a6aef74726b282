package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
		level  string
		filter string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View indexwrap debug logs",
		Long: `Show the structured log written by commands run with --debug.

By default the last 50 records of ~/.indexwrap/logs/indexwrap.log are
printed. Use --follow to keep watching the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vc := logging.ViewerConfig{Level: level, NoColor: noColor}
			if filter != "" {
				re, err := regexp.Compile(filter)
				if err != nil {
					return werrors.ValidationError("invalid --filter pattern", err)
				}
				vc.Pattern = re
			}

			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}
			viewer := logging.NewViewer(vc, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			if !follow {
				return nil
			}
			return followLog(cmd.Context(), viewer, path)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show records whose line matches this regexp")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default: ~/.indexwrap/logs/indexwrap.log)")

	return cmd
}

func followLog(ctx context.Context, viewer *logging.Viewer, path string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries := make(chan logging.LogEntry, 64)
	errc := make(chan error, 1)
	go func() {
		errc <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			viewer.Print([]logging.LogEntry{entry})
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("follow %s: %w", path, err)
			}
			return nil
		}
	}
}
