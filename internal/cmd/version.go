package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/steipete/quotesheet/internal/outfmt"
)

// Set via -ldflags at release time.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func VersionString() string {
	s := "quotesheet " + version
	if commit != "" {
		s += " (" + commit + ")"
	}
	if date != "" {
		s += " " + date
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{
					"version": version,
					"commit":  commit,
					"date":    date,
					"go":      runtime.Version(),
				})
			}
			_, err := fmt.Fprintln(os.Stdout, VersionString())
			return err
		},
	}
}
