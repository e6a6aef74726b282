package cmd

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexwrap/internal/catalog"
	"github.com/Aman-CERP/indexwrap/internal/output"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage schema rules in the catalog",
	}
	cmd.AddCommand(newSchemaCreateCmd("create-index", index.KindIndex, "Create an index rule on LABEL.PROPERTY"))
	cmd.AddCommand(newSchemaCreateCmd("create-constraint", index.KindConstraint, "Create a constraint rule on LABEL.PROPERTY"))
	cmd.AddCommand(newSchemaListCmd())
	cmd.AddCommand(newSchemaDropCmd())
	return cmd
}

func newSchemaCreateCmd(use string, kind index.RuleKind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " LABEL PROPERTY",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cat, err := openCatalog()
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			def, err := cat.CreateRule(cmd.Context(), kind, args[0], args[1])
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout(), noColor).
				Successf("%s %d on %s.%s", ruleName(kind), def.ID, args[0], args[1])
			return nil
		},
	}
}

type schemaRow struct {
	ID        int64  `json:"id"`
	Rule      string `json:"rule"`
	Label     string `json:"label"`
	Property  string `json:"property"`
	Populated bool   `json:"populated"`
}

func newSchemaListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schema rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cat, err := openCatalog()
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			rows, err := schemaRows(cmd.Context(), cat)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{
					strconv.FormatInt(r.ID, 10), r.Rule, r.Label, r.Property, strconv.FormatBool(r.Populated),
				})
			}
			output.New(cmd.OutOrStdout(), noColor).
				Table([]string{"ID", "RULE", "LABEL", "PROPERTY", "POPULATED"}, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func schemaRows(ctx context.Context, cat *catalog.SQLiteCatalog) ([]schemaRow, error) {
	defs, err := cat.IndexDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]schemaRow, 0, len(defs))
	for _, def := range defs {
		label, err := cat.LabelName(ctx, def.LabelID)
		if err != nil {
			return nil, err
		}
		property, err := cat.PropertyKeyName(ctx, def.PropertyKeyID)
		if err != nil {
			return nil, err
		}
		populated, err := cat.Populated(ctx, def.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, schemaRow{
			ID: def.ID, Rule: ruleName(def.Kind), Label: label, Property: property, Populated: populated,
		})
	}
	return rows, nil
}

func newSchemaDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop ID",
		Short: "Drop a schema rule",
		Long: `Drop a schema rule from the catalog.

Legacy index data written for the rule is kept: other rules routed to the
same legacy index may still use it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIndexID(args[0])
			if err != nil {
				return err
			}
			_, cat, err := openCatalog()
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()

			if err := cat.DropIndex(cmd.Context(), id); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout(), noColor).Successf("dropped rule %d", id)
			return nil
		},
	}
}
