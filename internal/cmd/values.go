package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steipete/quotesheet/internal/outfmt"
	"github.com/steipete/quotesheet/internal/spreadsheet"
	"github.com/steipete/quotesheet/internal/ui"
)

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <range>",
		Short: "Print the values of a single-column range",
		Long:  "Print the values of a single-column range, one per line.\nEvery row of the range must hold exactly one cell.\nExample: quotesheet get 'Quotes!A2:A'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())
			rng := args[0]

			client, err := requireClient(cmd.Context(), flags)
			if err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				values, err := client.Column(cmd.Context(), rng)
				if err != nil {
					return err
				}
				return outfmt.WriteJSON(os.Stdout, map[string]any{
					"range":  rng,
					"values": values,
				})
			}

			n := 0
			for v, err := range client.Values(cmd.Context(), rng) {
				if err != nil {
					return err
				}
				u.Out().Println(v)
				n++
			}
			if n == 0 {
				u.Err().Println("No data found")
			}
			return nil
		},
	}
}

type writeOptions struct {
	valuesJSON string
	sortColumn int64
	order      string
}

func newAppendCmd(flags *rootFlags) *cobra.Command {
	var opts writeOptions

	cmd := &cobra.Command{
		Use:   "append <range> [row...]",
		Short: "Append rows after the last row with data",
		Long:  "Append rows after the last row with data in the range.\nEach row argument is a '|'-separated list of cells. Values are parsed as if typed by a user.\nExample: quotesheet append 'Quotes!A:C' 'Alice|Hello world|http://a'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd.Context(), flags, "append", args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.valuesJSON, "values-json", "", `Rows as a JSON array of arrays, e.g. '[["a","b"]]'`)
	cmd.Flags().Int64Var(&opts.sortColumn, "sort-column", -1, "Sort the worksheet by this zero-based column afterwards")
	cmd.Flags().StringVar(&opts.order, "order", string(spreadsheet.Ascending), "Sort order used with --sort-column: ASCENDING or DESCENDING")
	return cmd
}

func newUpdateCmd(flags *rootFlags) *cobra.Command {
	var opts writeOptions

	cmd := &cobra.Command{
		Use:   "update <range> [row...]",
		Short: "Overwrite a range",
		Long:  "Overwrite the range with the given rows.\nEach row argument is a '|'-separated list of cells. Values are parsed as if typed by a user.\nExample: quotesheet update 'Quotes!D2' 1234",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.sortColumn = -1
			return runWrite(cmd.Context(), flags, "update", args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.valuesJSON, "values-json", "", `Rows as a JSON array of arrays, e.g. '[["a","b"]]'`)
	return cmd
}

func runWrite(ctx context.Context, flags *rootFlags, verb, rng string, rowArgs []string, opts writeOptions) error {
	u := ui.FromContext(ctx)

	rows, err := parseRows(opts.valuesJSON, rowArgs)
	if err != nil {
		return err
	}

	sheetName := ""
	if opts.sortColumn >= 0 {
		name, ok := spreadsheet.SheetFromRange(rng)
		if !ok {
			return newUsageError(fmt.Errorf("cannot sort: no worksheet name in range %q", rng))
		}
		sheetName = name
	}

	client, err := requireClient(ctx, flags)
	if err != nil {
		return err
	}

	if verb == "append" {
		err = client.Append(ctx, rng, rows)
	} else {
		err = client.Update(ctx, rng, rows)
	}
	if err != nil {
		return err
	}

	sorted := false
	if sheetName != "" {
		order := spreadsheet.SortOrder(strings.ToUpper(strings.TrimSpace(opts.order)))
		if err := client.Sort(ctx, sheetName, opts.sortColumn, order); err != nil {
			return fmt.Errorf("%s succeeded but sort failed: %w", verb, err)
		}
		sorted = true
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"range":  rng,
			"rows":   len(rows),
			"sorted": sorted,
		})
	}
	u.Out().Printf("%s\t%d row(s)\t%s", verb, len(rows), rng)
	return nil
}

// parseRows builds rows from either --values-json or '|'-separated args.
func parseRows(valuesJSON string, args []string) ([][]string, error) {
	valuesJSON = strings.TrimSpace(valuesJSON)
	switch {
	case valuesJSON != "" && len(args) > 0:
		return nil, newUsageError(errors.New("use either row arguments or --values-json, not both"))
	case valuesJSON == "" && len(args) == 0:
		return nil, newUsageError(errors.New("missing values: pass row arguments or --values-json"))
	case valuesJSON == "":
		rows := make([][]string, len(args))
		for i, a := range args {
			rows[i] = strings.Split(a, "|")
		}
		return rows, nil
	}

	var raw [][]any
	if err := json.Unmarshal([]byte(valuesJSON), &raw); err != nil {
		return nil, newUsageError(fmt.Errorf("invalid --values-json: %w", err))
	}
	rows := make([][]string, len(raw))
	for i, row := range raw {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cellString(cell)
		}
	}
	return rows, nil
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		b, _ := json.Marshal(c)
		return string(b)
	}
}
