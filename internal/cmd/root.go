package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/steipete/quotesheet/internal/config"
	"github.com/steipete/quotesheet/internal/errfmt"
	"github.com/steipete/quotesheet/internal/outfmt"
	"github.com/steipete/quotesheet/internal/ui"
)

type rootFlags struct {
	Color          string
	Credentials    string
	Spreadsheet    string
	KeyringBackend string
	JSON           bool
	Plain          bool
	Force          bool
	NoInput        bool
	Verbose        bool
}

func Execute(args []string) error {
	settings, err := config.Load(context.Background())
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errfmt.Format(err))
		return err
	}

	flags := rootFlags{
		Color:          settings.Color,
		Credentials:    settings.CredentialsFile,
		Spreadsheet:    settings.SpreadsheetID,
		KeyringBackend: settings.KeyringBackend,
	}
	envMode, err := outfmt.Parse(settings.Output)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errfmt.Format(err))
		return &ExitError{Code: 2, Err: err}
	}
	flags.JSON = envMode.JSON
	flags.Plain = envMode.Plain

	// Avoid dangerous prefix-matching for commands (future-proofing).
	cobra.EnablePrefixMatching = false

	if hasExactArg(args, "--version") {
		fmt.Fprintln(os.Stdout, VersionString())
		return nil
	}

	root := &cobra.Command{
		Use:           "quotesheet",
		Short:         "Google Sheets helper for scraped quotes (service account auth)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Example: strings.TrimSpace(`
  # One-time setup (service account key, shared on the spreadsheet)
  quotesheet auth credentials ~/keys/scraper.json
  quotesheet auth default 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms

  # Or per invocation / via env
  export QUOTESHEET_CREDENTIALS=~/keys/scraper.json
  export QUOTESHEET_SPREADSHEET=1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms

  # Worksheets
  quotesheet worksheets
  quotesheet worksheets create Quotes

  # Values
  quotesheet append 'Quotes!A:C' 'Alice|Hello world|http://a'
  quotesheet append 'Quotes!A:C' --values-json '[["Bob","Hi","http://b"]]' --sort-column 0
  quotesheet update 'Quotes!D2' 1234
  quotesheet get 'Quotes!A2:A'
  quotesheet sort Quotes --column 1 --order DESCENDING

  # Parseable output
  quotesheet --json worksheets | jq .
`),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logLevel := slog.LevelWarn
			if flags.Verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})))

			mode, err := outfmt.FromFlags(flags.JSON, flags.Plain)
			if err != nil {
				return err
			}
			cmd.SetContext(outfmt.WithMode(cmd.Context(), mode))

			u, err := ui.New(ui.Options{
				Stdout: os.Stdout,
				Stderr: os.Stderr,
				Color: func() string {
					if outfmt.IsJSON(cmd.Context()) || outfmt.IsPlain(cmd.Context()) {
						return "never"
					}
					return flags.Color
				}(),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(ui.WithUI(cmd.Context(), u))
			return nil
		},
	}

	root.SetArgs(args)
	root.PersistentFlags().StringVar(&flags.Color, "color", flags.Color, "Color output: auto|always|never")
	root.PersistentFlags().StringVar(&flags.Credentials, "credentials", flags.Credentials, "Service account key file (default: key stored in the keyring)")
	root.PersistentFlags().StringVar(&flags.Spreadsheet, "spreadsheet", flags.Spreadsheet, "Spreadsheet ID or URL")
	root.PersistentFlags().StringVar(&flags.KeyringBackend, "keyring-backend", flags.KeyringBackend, "Keyring backend: auto|keychain|secret-service|kwallet|wincred|pass|keyctl|file")
	root.PersistentFlags().BoolVar(&flags.JSON, "json", flags.JSON, "Output JSON to stdout (best for scripting)")
	root.PersistentFlags().BoolVar(&flags.Plain, "plain", flags.Plain, "Output stable, parseable text to stdout (TSV; no colors)")
	root.PersistentFlags().BoolVar(&flags.Force, "force", false, "Skip confirmations for destructive commands")
	root.PersistentFlags().BoolVar(&flags.NoInput, "no-input", false, "Never prompt; fail instead (useful for CI)")
	root.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")

	root.AddCommand(newAuthCmd(&flags))
	root.AddCommand(newWorksheetsCmd(&flags))
	root.AddCommand(newGetCmd(&flags))
	root.AddCommand(newAppendCmd(&flags))
	root.AddCommand(newUpdateCmd(&flags))
	root.AddCommand(newSortCmd(&flags))
	root.AddCommand(newVersionCmd())

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		// pflag already includes helpful context ("unknown flag", "invalid argument", ...).
		return newUsageError(err)
	})
	root.AddCommand(newCompletionCmd())

	err = root.Execute()
	if err == nil {
		return nil
	}
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}

	if ExitCode(err) == 1 && isUsageError(err) {
		err = &ExitError{Code: 2, Err: err}
	}

	if u := ui.FromContext(root.Context()); u != nil {
		u.Err().Error(errfmt.Format(err))
		return err
	}
	_, _ = fmt.Fprintln(os.Stderr, errfmt.Format(err))
	return err
}

func hasExactArg(args []string, target string) bool {
	for _, a := range args {
		if a == target {
			return true
		}
	}
	return false
}

// newUsageError wraps errors in a way main() can map to exit code 2.
func newUsageError(err error) error {
	if err == nil {
		return nil
	}
	// Preserve pflag.ErrHelp (should not be treated as failure).
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return &ExitError{Code: 2, Err: err}
}

func isUsageError(err error) bool {
	var outErr *outfmt.ParseError
	if errors.As(err, &outErr) {
		return true
	}
	var uiErr *ui.ParseError
	if errors.As(err, &uiErr) {
		return true
	}
	msg := strings.TrimSpace(err.Error())
	switch {
	case strings.HasPrefix(msg, "accepts "),
		strings.HasPrefix(msg, "requires "),
		strings.HasPrefix(msg, "unknown command"),
		strings.HasPrefix(msg, "invalid argument"),
		strings.HasPrefix(msg, "unknown flag"),
		strings.HasPrefix(msg, "unknown shorthand flag"),
		strings.HasPrefix(msg, "missing --"):
		return true
	default:
		return false
	}
}
