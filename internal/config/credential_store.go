package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fastanime/fastanime-core/internal/atomicfile"
)

type storedCredentials struct {
	Token string `json:"token"`
}

// CredentialStore persists a single auth token encrypted at rest in
// <data>/credentials.json, keyed by a machine-local secret kept alongside
// it at <data>/.secret.
type CredentialStore struct {
	path      string
	encryptor *CredentialEncryptor
}

// NewCredentialStore loads or creates the machine secret under dataDir and
// builds a CredentialStore backed by <dataDir>/credentials.json.
func NewCredentialStore(dataDir string) (*CredentialStore, error) {
	secret, err := LoadOrCreateMachineSecret(filepath.Join(dataDir, ".secret"))
	if err != nil {
		return nil, fmt.Errorf("loading machine secret: %w", err)
	}
	encryptor, err := NewCredentialEncryptor(secret)
	if err != nil {
		return nil, fmt.Errorf("building credential encryptor: %w", err)
	}
	return &CredentialStore{path: filepath.Join(dataDir, "credentials.json"), encryptor: encryptor}, nil
}

// Load decrypts and returns the persisted token. It returns "" with no
// error if no credentials have been saved yet.
func (s *CredentialStore) Load() (string, error) {
	var stored storedCredentials
	if err := atomicfile.ReadJSON(s.path, &stored); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading credentials file: %w", err)
	}
	if stored.Token == "" {
		return "", nil
	}
	token, err := s.encryptor.Decrypt(stored.Token)
	if err != nil {
		return "", fmt.Errorf("decrypting stored token: %w", err)
	}
	return token, nil
}

// Save encrypts and persists token, overwriting any previously stored value.
func (s *CredentialStore) Save(token string) error {
	encrypted, err := s.encryptor.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}
	if err := atomicfile.WriteJSON(s.path, storedCredentials{Token: encrypted}); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}
