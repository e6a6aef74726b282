package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexwrap/internal/output"
)

func newUpdateCmd() *cobra.Command {
	var (
		inputPath string
		recovery  bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Apply mutation records to an online index",
		Long: `Apply a stream of JSON mutation records to online index ID, in order:

  {"entity": 1, "mode": "added", "after": "a@example.com"}
  {"entity": 1, "mode": "changed", "before": "a@example.com", "after": "b@example.com"}
  {"entity": 1, "mode": "removed", "before": "b@example.com"}

With --recover the records are replayed as crash recovery; replaying
records that were already applied is harmless.`,
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
			records, err := readMutations(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close(ctx) }()

			acc, err := e.provider.OnlineAccessor(ctx, id)
			if err != nil {
				return err
			}
			defer func() { _ = acc.Close() }()

			for _, batch := range batches(records, batchSize) {
				if recovery {
					err = acc.Recover(ctx, batch)
				} else {
					err = acc.UpdateAndCommit(ctx, batch)
				}
				if err != nil {
					return err
				}
			}
			if err := acc.Force(ctx); err != nil {
				return err
			}

			verb := "applied"
			if recovery {
				verb = "recovered"
			}
			output.New(cmd.OutOrStdout(), noColor).Successf("%s %d records to index %d", verb, len(records), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "-", "Record file (\"-\" reads stdin)")
	cmd.Flags().BoolVar(&recovery, "recover", false, "Replay records as crash recovery")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1000, "Records applied per commit")
	return cmd
}
