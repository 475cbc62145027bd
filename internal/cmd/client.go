package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/99designs/keyring"
	"github.com/spf13/afero"

	"github.com/steipete/quotesheet/internal/googleauth"
	"github.com/steipete/quotesheet/internal/secrets"
	"github.com/steipete/quotesheet/internal/spreadsheet"
)

var (
	appFs            = afero.NewOsFs()
	openSecretsStore = secrets.Open
	openSpreadsheet  = spreadsheet.Open
)

var spreadsheetURLRe = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/([^/?#]+)`)

// normalizeSpreadsheetID accepts either a bare id or a spreadsheet URL.
func normalizeSpreadsheetID(s string) string {
	s = strings.TrimSpace(s)
	if m := spreadsheetURLRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// resolveServiceAccount prefers an explicit key file (flag, env or config)
// over the key stored in the keyring.
func resolveServiceAccount(flags *rootFlags) (googleauth.ServiceAccount, error) {
	if path := strings.TrimSpace(flags.Credentials); path != "" {
		return googleauth.LoadServiceAccount(appFs, expandHome(path))
	}

	store, err := openSecretsStore(flags.KeyringBackend)
	if err != nil {
		return googleauth.ServiceAccount{}, &googleauth.CredentialsMissingError{Cause: err}
	}
	key, err := store.GetServiceAccount()
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return googleauth.ServiceAccount{}, &googleauth.CredentialsMissingError{Cause: err}
		}
		return googleauth.ServiceAccount{}, err
	}
	return googleauth.ParseServiceAccount(key)
}

func resolveSpreadsheetID(flags *rootFlags) (string, error) {
	if id := normalizeSpreadsheetID(flags.Spreadsheet); id != "" {
		return id, nil
	}
	if store, err := openSecretsStore(flags.KeyringBackend); err == nil {
		if id, err := store.GetDefaultSpreadsheet(); err == nil && id != "" {
			return id, nil
		}
	}
	return "", newUsageError(errors.New("missing --spreadsheet (or QUOTESHEET_SPREADSHEET, or run: quotesheet auth default <id>)"))
}

func requireClient(ctx context.Context, flags *rootFlags) (*spreadsheet.Client, error) {
	id, err := resolveSpreadsheetID(flags)
	if err != nil {
		return nil, err
	}
	sa, err := resolveServiceAccount(flags)
	if err != nil {
		return nil, err
	}
	return openSpreadsheet(ctx, sa, id)
}
