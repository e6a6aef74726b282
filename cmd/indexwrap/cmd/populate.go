package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexwrap/internal/output"
	"github.com/Aman-CERP/indexwrap/internal/route"
	"github.com/Aman-CERP/indexwrap/internal/ui"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func newPopulateCmd() *cobra.Command {
	var (
		inputPath  string
		recreate   bool
		batchSize  int
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "populate ID",
		Short: "Build an index from entity/value records",
		Long: `Populate index rule ID from a stream of JSON records:

  {"entity": 1, "value": "alice@example.com"}
  {"entity": 2, "value": 42}

The population is closed successfully only when every record was added.
Legacy indexes are then marked online for later invocations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIndexID(args[0])
			if err != nil {
				return err
			}
			in, err := openInput(inputPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()
			entries, err := readEntries(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close(ctx) }()

			if _, err := e.catalog.IndexDefinition(ctx, id); err != nil {
				return err
			}
			kind, backend := e.routeLabel(id)
			progressOut := cmd.ErrOrStderr()
			if noProgress {
				progressOut = io.Discard
			}
			renderer := ui.NewRenderer(ui.NewConfig(progressOut,
				ui.WithNoColor(noColor),
				ui.WithTitle(fmt.Sprintf("index %d (%s: %s)", id, kind, backend))))
			if err := renderer.Start(ctx); err != nil {
				return err
			}
			err = populate(ctx, e, id, entries, populateOptions{
				recreate:  recreate,
				batchSize: batchSize,
				renderer:  renderer,
				target:    kind + ": " + backend,
			})
			_ = renderer.Stop()
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout(), noColor)
			out.Successf("populated index %d with %d records (%s: %s)", id, len(entries), kind, backend)
			if kind != route.KindLegacy.String() {
				out.Warningf("%s keeps data in process memory; it is not persisted", backend)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "-", "Record file (\"-\" reads stdin)")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Discard existing entries before populating")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1000, "Records between progress updates")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not show progress on stderr")
	return cmd
}

// recreate discards what an earlier population left behind. Legacy data
// outlives Drop, so a legacy route is cleared and its populated mark removed.
func recreate(ctx context.Context, e *env, id int64, pop index.Populator) error {
	target, ok := e.provider.Route(id)
	if !ok || target.Kind() != route.KindLegacy {
		return pop.Drop(ctx)
	}
	if err := target.Legacy().Clear(ctx); err != nil {
		return err
	}
	if err := e.catalog.ClearPopulated(ctx, id); err != nil {
		return err
	}
	slog.Info("legacy_index_recreated", slog.Int64("index_id", id))
	return nil
}

type populateOptions struct {
	recreate  bool
	batchSize int
	renderer  ui.Renderer
	target    string
}

// populate runs a full population of id. Any failure closes the population
// unsuccessfully, leaving the index not online.
func populate(ctx context.Context, e *env, id int64, entries []entry, opts populateOptions) error {
	start := time.Now()
	r := opts.renderer

	pop, err := e.provider.Populator(ctx, id)
	if err != nil {
		return err
	}
	r.UpdateProgress(ui.ProgressEvent{Stage: ui.StageCreating, Message: fmt.Sprintf("preparing index %d", id)})
	if opts.recreate {
		if err := recreate(ctx, e, id, pop); err != nil {
			return err
		}
	}
	if err := pop.Create(ctx); err != nil {
		return err
	}

	done := 0
	r.UpdateProgress(ui.ProgressEvent{Stage: ui.StageAdding, Total: len(entries)})
	for _, batch := range batches(entries, opts.batchSize) {
		for _, en := range batch {
			done++
			if err := pop.Add(ctx, en.EntityID, en.Value); err != nil {
				r.AddError(ui.ErrorEvent{Record: done, Err: err})
				slog.Warn("population_failed",
					slog.Int64("index_id", id),
					slog.Int("record", done),
					slog.String("error", err.Error()))
				return errors.Join(err, pop.ClosePopulation(ctx, false))
			}
		}
		r.UpdateProgress(ui.ProgressEvent{Stage: ui.StageAdding, Current: done, Total: len(entries)})
		slog.Debug("population_progress",
			slog.Int64("index_id", id),
			slog.Int("records", done),
			slog.Int("total", len(entries)))
	}

	r.UpdateProgress(ui.ProgressEvent{Stage: ui.StageClosing, Message: "closing population"})
	if err := pop.ClosePopulation(ctx, true); err != nil {
		return err
	}
	if target, ok := e.provider.Route(id); ok && target.Kind() == route.KindLegacy {
		if err := e.catalog.MarkPopulated(ctx, id); err != nil {
			return err
		}
	}
	r.Complete(ui.CompletionStats{
		IndexID:  id,
		Records:  len(entries),
		Target:   opts.target,
		Duration: time.Since(start),
	})
	slog.Info("population_complete",
		slog.Int64("index_id", id),
		slog.Int("records", len(entries)))
	return nil
}
