package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const AppName = "quotesheet"

// File is the on-disk config. JSON5 is accepted so users can leave comments.
type File struct {
	CredentialsFile string `json:"credentials_file,omitempty"`
	SpreadsheetID   string `json:"spreadsheet_id,omitempty"`
	KeyringBackend  string `json:"keyring_backend,omitempty"`
}

// Env holds the environment overrides.
type Env struct {
	CredentialsFile string `env:"QUOTESHEET_CREDENTIALS"`
	SpreadsheetID   string `env:"QUOTESHEET_SPREADSHEET"`
	KeyringBackend  string `env:"QUOTESHEET_KEYRING_BACKEND"`
	Color           string `env:"QUOTESHEET_COLOR,default=auto"`
	Output          string `env:"QUOTESHEET_OUTPUT"`
}

// Settings is the config file with the environment applied on top.
type Settings struct {
	CredentialsFile string
	SpreadsheetID   string
	KeyringBackend  string
	Color           string
	Output          string
}

func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureKeyringDir returns the directory used by the keyring "file" backend,
// creating it if needed.
func EnsureKeyringDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("create keyring dir: %w", err)
	}
	return keyringDir, nil
}

// ReadConfig returns an empty config when the file does not exist.
func ReadConfig() (File, error) {
	path, err := ConfigPath()
	if err != nil {
		return File{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, err
	}

	var cfg File
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig writes plain JSON, which is valid JSON5.
func WriteConfig(cfg File) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Load reads the config file and applies QUOTESHEET_* environment variables.
func Load(ctx context.Context) (Settings, error) {
	file, err := ReadConfig()
	if err != nil {
		return Settings{}, err
	}

	var env Env
	if err := envconfig.Process(ctx, &env); err != nil {
		return Settings{}, fmt.Errorf("environment: %w", err)
	}

	return Settings{
		CredentialsFile: firstNonEmpty(env.CredentialsFile, file.CredentialsFile),
		SpreadsheetID:   firstNonEmpty(env.SpreadsheetID, file.SpreadsheetID),
		KeyringBackend:  firstNonEmpty(env.KeyringBackend, file.KeyringBackend),
		Color:           env.Color,
		Output:          env.Output,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
