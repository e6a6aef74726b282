package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/output"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func newLookupCmd() *cobra.Command {
	var (
		as      string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "lookup ID VALUE",
		Short: "Find entities whose indexed property equals VALUE",
		Long: `Look VALUE up in online index ID and print the matching entity ids.

Values are typed: the string "42" and the integer 42 are different keys.
Use --as to choose how VALUE is interpreted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIndexID(args[0])
			if err != nil {
				return err
			}
			value, err := parseValue(args[1], as)
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

			r, err := acc.NewReader()
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			hits, err := r.Lookup(ctx, value)
			if err != nil {
				return err
			}
			ids, err := index.Collect(hits)
			if err != nil {
				return err
			}

			if jsonOut {
				if ids == nil {
					ids = []int64{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
			}
			out := output.New(cmd.OutOrStdout(), noColor)
			if len(ids) == 0 {
				out.Status("", "No matching entities.")
				return nil
			}
			for _, hit := range ids {
				out.Line(strconv.FormatInt(hit, 10))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "string", "Value type: string, int, float or bool")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// parseValue converts a command-line value to the typed key it is looked up by.
func parseValue(s, as string) (any, error) {
	var (
		v   any
		err error
	)
	switch strings.ToLower(as) {
	case "string", "":
		return s, nil
	case "int":
		v, err = strconv.ParseInt(s, 10, 64)
	case "float":
		v, err = strconv.ParseFloat(s, 64)
	case "bool":
		v, err = strconv.ParseBool(s)
	default:
		return nil, werrors.ValidationError(
			fmt.Sprintf("unknown value type %q (valid options: string, int, float, bool)", as), nil)
	}
	if err != nil {
		return nil, werrors.ValidationError(fmt.Sprintf("cannot parse %q as %s", s, as), err)
	}
	return v, nil
}
