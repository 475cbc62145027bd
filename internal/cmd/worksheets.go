package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/steipete/quotesheet/internal/outfmt"
	"github.com/steipete/quotesheet/internal/spreadsheet"
	"github.com/steipete/quotesheet/internal/ui"
)

func newWorksheetsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worksheets",
		Aliases: []string{"ws"},
		Short:   "List worksheets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := ui.FromContext(cmd.Context())
			client, err := requireClient(cmd.Context(), flags)
			if err != nil {
				return err
			}

			all, err := client.Worksheets(cmd.Context())
			if err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{
					"spreadsheetId": client.ID(),
					"title":         client.Title(),
					"worksheets":    all,
				})
			}

			if len(all) == 0 {
				u.Err().Println("No worksheets")
				return nil
			}

			if outfmt.IsPlain(cmd.Context()) {
				for _, ws := range all {
					fmt.Fprintf(os.Stdout, "%d\t%s\t%d\t%d\n", ws.ID, ws.Title, ws.RowCount, ws.ColumnCount)
				}
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Rows", "Columns"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			for _, ws := range all {
				table.Append([]string{
					strconv.FormatInt(ws.ID, 10),
					ws.Title,
					strconv.FormatInt(ws.RowCount, 10),
					strconv.FormatInt(ws.ColumnCount, 10),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.AddCommand(newWorksheetsCreateCmd(flags))
	return cmd
}

func newWorksheetsCreateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a formatted worksheet with the Author/Phrase/Url header",
		Aliases: []string{"add", "new"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())
			name := args[0]
			if strings.TrimSpace(name) == "" {
				return newUsageError(errors.New("empty worksheet name"))
			}

			client, err := requireClient(cmd.Context(), flags)
			if err != nil {
				return err
			}

			ws, err := client.CreateWorksheet(cmd.Context(), name)
			if err != nil {
				var createErr *spreadsheet.CreateError
				if errors.As(err, &createErr) && outfmt.IsJSON(cmd.Context()) {
					_ = outfmt.WriteJSON(os.Stdout, map[string]any{
						"worksheet": createErr.Worksheet,
						"completed": createErr.Completed,
						"failed":    createErr.Failed,
					})
				}
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{"worksheet": ws})
			}
			u.Out().Printf("id\t%d", ws.ID)
			u.Out().Printf("title\t%s", ws.Title)
			return nil
		},
	}
}
