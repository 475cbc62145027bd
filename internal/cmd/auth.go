package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steipete/quotesheet/internal/config"
	"github.com/steipete/quotesheet/internal/googleauth"
	"github.com/steipete/quotesheet/internal/outfmt"
	"github.com/steipete/quotesheet/internal/secrets"
	"github.com/steipete/quotesheet/internal/ui"
)

var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func newAuthCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the service account key and default spreadsheet",
	}
	cmd.AddCommand(newAuthCredentialsCmd(flags))
	cmd.AddCommand(newAuthDefaultCmd(flags))
	cmd.AddCommand(newAuthStatusCmd(flags))
	cmd.AddCommand(newAuthRemoveCmd(flags))
	cmd.AddCommand(newAuthKeyringCmd(flags))
	return cmd
}

func newAuthCredentialsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "credentials <key.json>",
		Short: "Store a service account key in the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())
			path := expandHome(args[0])

			data, err := afero.ReadFile(appFs, path)
			if err != nil {
				return err
			}
			sa, err := googleauth.ParseServiceAccount(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			store, err := openSecretsStore(flags.KeyringBackend)
			if err != nil {
				return err
			}
			if err := store.SetServiceAccount(data); err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{
					"stored":      true,
					"clientEmail": sa.ClientEmail,
				})
			}
			u.Out().Printf("stored\t%s", sa.ClientEmail)
			u.Err().Printf("Share the spreadsheet with %s (Editor) so it can be opened.", sa.ClientEmail)
			return nil
		},
	}
}

func newAuthDefaultCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "default <spreadsheetId|url>",
		Short: "Remember the spreadsheet used when --spreadsheet is not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())
			id := normalizeSpreadsheetID(args[0])

			store, err := openSecretsStore(flags.KeyringBackend)
			if err != nil {
				return err
			}
			if err := store.SetDefaultSpreadsheet(id); err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{"defaultSpreadsheet": id})
			}
			u.Out().Printf("default\t%s", id)
			return nil
		},
	}
}

func newAuthKeyringCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keyring [auto|keychain|secret-service|kwallet|wincred|pass|keyctl|file]",
		Short: "Show or set the keyring backend saved in the config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := ui.FromContext(cmd.Context())

			path, err := config.ConfigPath()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				backend := flags.KeyringBackend
				if backend == "" {
					backend = "auto"
				}
				if outfmt.IsJSON(cmd.Context()) {
					return outfmt.WriteJSON(os.Stdout, map[string]any{"keyringBackend": backend, "path": path})
				}
				u.Out().Printf("keyring_backend\t%s", backend)
				return nil
			}

			backend := strings.ToLower(strings.TrimSpace(args[0]))
			if err := secrets.ValidateBackend(backend); err != nil {
				return newUsageError(err)
			}

			cfg, err := config.ReadConfig()
			if err != nil {
				return err
			}
			cfg.KeyringBackend = backend
			if err := config.WriteConfig(cfg); err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{"keyringBackend": backend, "path": path})
			}
			u.Out().Successf("keyring_backend\t%s", backend)
			if os.Getenv("QUOTESHEET_KEYRING_BACKEND") != "" {
				u.Err().Warnf("QUOTESHEET_KEYRING_BACKEND is set and overrides the config file")
			}
			return nil
		},
	}
}

func newAuthStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where credentials and the spreadsheet id come from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := ui.FromContext(cmd.Context())

			configPath, _ := config.ConfigPath()
			status := map[string]any{
				"configPath":  configPath,
				"credentials": "",
				"source":      "",
				"clientEmail": "",
				"spreadsheet": normalizeSpreadsheetID(flags.Spreadsheet),
			}

			if path := strings.TrimSpace(flags.Credentials); path != "" {
				status["credentials"] = path
				status["source"] = "file"
				if sa, err := googleauth.LoadServiceAccount(appFs, expandHome(path)); err == nil {
					status["clientEmail"] = sa.ClientEmail
				} else {
					status["error"] = err.Error()
				}
			}

			if store, err := openSecretsStore(flags.KeyringBackend); err == nil {
				if status["source"] == "" {
					if key, err := store.GetServiceAccount(); err == nil {
						status["source"] = "keyring"
						if sa, err := googleauth.ParseServiceAccount(key); err == nil {
							status["clientEmail"] = sa.ClientEmail
						}
					} else if !errors.Is(err, keyring.ErrKeyNotFound) {
						status["error"] = err.Error()
					}
				}
				if status["spreadsheet"] == "" {
					if id, err := store.GetDefaultSpreadsheet(); err == nil {
						status["spreadsheet"] = id
					}
				}
			} else {
				status["keyringError"] = err.Error()
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, status)
			}
			for _, k := range []string{"configPath", "source", "credentials", "clientEmail", "spreadsheet", "error", "keyringError"} {
				if v, ok := status[k]; ok && v != "" {
					u.Out().Printf("%s\t%v", k, v)
				}
			}
			if status["source"] == "" {
				u.Err().Warnf("No service account configured. Run: quotesheet auth credentials <key.json>")
			}
			return nil
		},
	}
}

func newAuthRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm", "logout"},
		Short:   "Delete the stored service account key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := ui.FromContext(cmd.Context())

			if err := confirmDestructive(flags, "delete the stored service account key"); err != nil {
				return err
			}

			store, err := openSecretsStore(flags.KeyringBackend)
			if err != nil {
				return err
			}
			if err := store.DeleteServiceAccount(); err != nil {
				return err
			}

			if outfmt.IsJSON(cmd.Context()) {
				return outfmt.WriteJSON(os.Stdout, map[string]any{"deleted": true})
			}
			u.Out().Println("deleted\tservice account")
			return nil
		},
	}
}

func confirmDestructive(flags *rootFlags, action string) error {
	if flags.Force {
		return nil
	}
	if flags.NoInput || !stdinIsTerminal() {
		return newUsageError(fmt.Errorf("refusing to %s without --force", action))
	}

	fmt.Fprintf(os.Stderr, "About to %s. Continue? [y/N] ", action)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("cancelled")
	}
}
