package googleauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"google.golang.org/api/sheets/v4"
)

// FeedsScope is the legacy spreadsheet feed scope. Service accounts shared on
// a spreadsheet through the old feeds UI still need it alongside the v4 scope.
const FeedsScope = "https://spreadsheets.google.com/feeds"

var errNotServiceAccount = errors.New("credentials are not a service account key")

// Scopes returns the OAuth scopes requested for the service account.
func Scopes() []string {
	return []string{FeedsScope, sheets.SpreadsheetsScope}
}

type CredentialsMissingError struct {
	Path  string
	Cause error
}

func (e *CredentialsMissingError) Error() string {
	if e.Path == "" {
		return "service account credentials missing"
	}
	return fmt.Sprintf("service account credentials missing: %s", e.Path)
}

func (e *CredentialsMissingError) Unwrap() error {
	return e.Cause
}

// ServiceAccount is the subset of a Google service-account key file that is
// inspected locally. The raw JSON is kept for the oauth2 JWT flow.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`

	Raw []byte `json:"-"`
}

// LoadServiceAccount reads and validates a service-account key file.
func LoadServiceAccount(fs afero.Fs, path string) (ServiceAccount, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ServiceAccount{}, &CredentialsMissingError{}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ServiceAccount{}, &CredentialsMissingError{Path: path, Cause: err}
		}
		return ServiceAccount{}, fmt.Errorf("read credentials %s: %w", path, err)
	}

	sa, err := ParseServiceAccount(data)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("%s: %w", path, err)
	}
	return sa, nil
}

// ParseServiceAccount validates a service-account key held in memory.
func ParseServiceAccount(data []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("parse credentials: %w", err)
	}
	if sa.Type != "service_account" {
		return ServiceAccount{}, fmt.Errorf("%w (type %q)", errNotServiceAccount, sa.Type)
	}
	if strings.TrimSpace(sa.ClientEmail) == "" || strings.TrimSpace(sa.PrivateKey) == "" {
		return ServiceAccount{}, fmt.Errorf("%w (missing client_email or private_key)", errNotServiceAccount)
	}
	sa.Raw = data
	return sa, nil
}
