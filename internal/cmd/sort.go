package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steipete/quotesheet/internal/outfmt"
	"github.com/steipete/quotesheet/internal/spreadsheet"
	"github.com/steipete/quotesheet/internal/ui"
)

func newSortCmd(flags *rootFlags) *cobra.Command {
	var column int64
	var order string

	cmd := &cobra.Command{
		Use:   "sort <worksheet>",
		Short: "Sort a worksheet's rows, keeping the header row in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())
			name := args[0]

			client, err := requireClient(cmd.Context(), flags)
			if err != nil {
				return err
			}

			o := spreadsheet.SortOrder(strings.ToUpper(strings.TrimSpace(order)))
			if cmd.Flags().Changed("column") || cmd.Flags().Changed("order") {
				err = client.Sort(cmd.Context(), name, column, o)
			} else {
				err = client.SortDefault(cmd.Context(), name)
			}
			if err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{
					"worksheet": name,
					"column":    column,
					"order":     o,
				})
			}
			u.Out().Printf("sorted\t%s\tcolumn %d\t%s", name, column, o)
			return nil
		},
	}

	cmd.Flags().Int64Var(&column, "column", 0, "Zero-based column to sort by")
	cmd.Flags().StringVar(&order, "order", string(spreadsheet.Ascending), "ASCENDING or DESCENDING")
	return cmd
}
