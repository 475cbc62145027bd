package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"golang.org/x/term"

	"github.com/steipete/quotesheet/internal/config"
	"github.com/steipete/quotesheet/internal/googleauth"
)

const (
	serviceAccountKey     = "service-account"
	defaultSpreadsheetKey = "default-spreadsheet"

	keyringPasswordEnv = "QUOTESHEET_KEYRING_PASSWORD"
)

var (
	errNoTTY                 = errors.New("keyring password needed but no TTY available (set " + keyringPasswordEnv + ")")
	errInvalidKeyringBackend = errors.New("invalid keyring backend")
)

type Store interface {
	Keys() ([]string, error)
	SetServiceAccount(key []byte) error
	GetServiceAccount() ([]byte, error)
	DeleteServiceAccount() error
	SetDefaultSpreadsheet(id string) error
	GetDefaultSpreadsheet() (string, error)
}

type KeyringStore struct {
	ring keyring.Keyring
}

// Open opens the OS keyring, restricted to backend when it is set. On hosts
// without a keychain service github.com/99designs/keyring falls back to the
// "file" backend, which needs a directory and a password prompt.
func Open(backend string) (Store, error) {
	allowed, err := allowedBackends(backend)
	if err != nil {
		return nil, err
	}

	keyringDir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, err
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:      config.AppName,
		AllowedBackends:  allowed,
		FileDir:          keyringDir,
		FilePasswordFunc: fileKeyringPasswordFunc(),
	})
	if err != nil {
		return nil, err
	}
	return &KeyringStore{ring: ring}, nil
}

func (s *KeyringStore) Keys() ([]string, error) {
	return s.ring.Keys()
}

// SetServiceAccount stores a service-account key after validating it.
func (s *KeyringStore) SetServiceAccount(key []byte) error {
	if _, err := googleauth.ParseServiceAccount(key); err != nil {
		return err
	}
	return s.ring.Set(keyring.Item{
		Key:         serviceAccountKey,
		Data:        key,
		Label:       config.AppName + " service account",
		Description: "Google service account key",
	})
}

func (s *KeyringStore) GetServiceAccount() ([]byte, error) {
	it, err := s.ring.Get(serviceAccountKey)
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

func (s *KeyringStore) DeleteServiceAccount() error {
	return s.ring.Remove(serviceAccountKey)
}

func (s *KeyringStore) SetDefaultSpreadsheet(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("missing spreadsheet id")
	}
	return s.ring.Set(keyring.Item{Key: defaultSpreadsheetKey, Data: []byte(id)})
}

// GetDefaultSpreadsheet returns "" without error when none is stored.
func (s *KeyringStore) GetDefaultSpreadsheet() (string, error) {
	it, err := s.ring.Get(defaultSpreadsheetKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(it.Data)), nil
}

// ValidateBackend reports whether s names a keyring backend Open accepts.
func ValidateBackend(s string) error {
	_, err := allowedBackends(s)
	return err
}

func allowedBackends(s string) ([]keyring.BackendType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return nil, nil
	}
	for _, b := range []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.KWalletBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.KeyCtlBackend,
		keyring.FileBackend,
	} {
		if string(b) == s {
			return []keyring.BackendType{b}, nil
		}
	}
	return nil, fmt.Errorf("%w %q (expected auto|keychain|secret-service|kwallet|wincred|pass|keyctl|file)", errInvalidKeyringBackend, s)
}

func fileKeyringPasswordFunc() keyring.PromptFunc {
	return fileKeyringPasswordFuncFrom(os.Getenv(keyringPasswordEnv), term.IsTerminal(int(os.Stdin.Fd())))
}

func fileKeyringPasswordFuncFrom(password string, tty bool) keyring.PromptFunc {
	if password != "" {
		return keyring.FixedStringPrompt(password)
	}
	if tty {
		return keyring.TerminalPrompt
	}
	return func(string) (string, error) {
		return "", errNoTTY
	}
}
