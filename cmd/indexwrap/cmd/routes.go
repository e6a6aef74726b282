package cmd

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexwrap/internal/output"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// routeRow is one line of `indexwrap routes`.
type routeRow struct {
	ID       int64  `json:"id"`
	Rule     string `json:"rule"`
	Label    string `json:"label"`
	Property string `json:"property"`
	Route    string `json:"route"`
	Backend  string `json:"backend"`
	State    string `json:"state,omitempty"`
}

func newRoutesCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show which backend serves each index rule",
		Long: `List every schema rule in the catalog together with the backend that serves it.

ROUTE is "delegate" for a configured engine, "legacy" for a legacy index and
"default" when no route is configured for the rule's label and property.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close(ctx) }()

			defs, err := e.catalog.IndexDefinitions(ctx)
			if err != nil {
				return err
			}

			rows := make([]routeRow, 0, len(defs))
			for _, def := range defs {
				label, err := e.catalog.LabelName(ctx, def.LabelID)
				if err != nil {
					return err
				}
				property, err := e.catalog.PropertyKeyName(ctx, def.PropertyKeyID)
				if err != nil {
					return err
				}
				row := routeRow{ID: def.ID, Rule: ruleName(def.Kind), Label: label, Property: property}
				if def.Kind != index.KindIndex {
					row.Route, row.Backend = "-", "-"
					rows = append(rows, row)
					continue
				}
				row.Route, row.Backend = e.routeLabel(def.ID)
				state, err := e.provider.InitialState(ctx, def.ID)
				if err != nil {
					return err
				}
				row.State = state.String()
				rows = append(rows, row)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			out := output.New(cmd.OutOrStdout(), noColor)
			if len(rows) == 0 {
				out.Status("", "No index rules. Create one with 'indexwrap schema create-index'.")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				state := r.State
				if state == "" {
					state = "-"
				}
				table = append(table, []string{
					strconv.FormatInt(r.ID, 10), r.Rule, r.Label, r.Property, r.Route, r.Backend, state,
				})
			}
			out.Table([]string{"ID", "RULE", "LABEL", "PROPERTY", "ROUTE", "BACKEND", "STATE"}, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func ruleName(k index.RuleKind) string {
	if k == index.KindConstraint {
		return "constraint"
	}
	return "index"
}
