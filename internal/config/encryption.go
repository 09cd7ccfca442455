// This file implements credential encryption for at-rest storage of
// provider/player auth tokens in <data>/credentials.json.
//
// Encryption Algorithm:
//   - AES-256-GCM (authenticated encryption)
//   - 12-byte random nonce per encryption
//   - Key derived via HKDF-SHA256 from a machine-local secret
//
// The machine secret itself is a random 32-byte value generated once and
// persisted at <data>/.secret (0600); it never leaves the local machine
// and is never derived from user input, since there is no auth server to
// share a JWT signing key with.
package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	credentialEncryptionSalt = "fastanime-credential-store"
	credentialEncryptionInfo = "credential-encryption-v1"
	aesKeySize               = 32
	gcmNonceSize             = 12
	machineSecretSize        = 32
)

var (
	ErrEmptySecret        = errors.New("machine secret cannot be empty")
	ErrEmptyPlaintext     = errors.New("plaintext cannot be empty")
	ErrEmptyCiphertext    = errors.New("ciphertext cannot be empty")
	ErrDecryptionFailed   = errors.New("decryption failed: invalid ciphertext or authentication tag")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext format")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// CredentialEncryptor provides AES-256-GCM encryption for credentials
// persisted to disk (provider session cookies, player auth tokens).
type CredentialEncryptor struct {
	cipher cipher.AEAD
}

// NewCredentialEncryptor derives a 256-bit AES key from machineSecret via
// HKDF-SHA256 and builds the AES-GCM cipher.
func NewCredentialEncryptor(machineSecret string) (*CredentialEncryptor, error) {
	if machineSecret == "" {
		return nil, ErrEmptySecret
	}

	key, err := deriveKey(machineSecret)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &CredentialEncryptor{cipher: gcm}, nil
}

// Encrypt returns a base64-encoded "nonce || ciphertext || tag".
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := e.cipher.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *CredentialEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed: %s", ErrInvalidCiphertext, err.Error())
	}

	minLength := gcmNonceSize + 1 + e.cipher.Overhead()
	if len(data) < minLength {
		return "", ErrCiphertextTooShort
	}

	nonce := data[:gcmNonceSize]
	encryptedData := data[gcmNonceSize:]

	plaintext, err := e.cipher.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// MaskCredential returns a version of a credential safe to log: only the
// last 4 characters are shown, e.g. "****...abc1".
func MaskCredential(credential string) string {
	if credential == "" {
		return ""
	}
	if len(credential) <= 4 {
		return "****"
	}
	return "****..." + credential[len(credential)-4:]
}

func deriveKey(machineSecret string) ([]byte, error) {
	hkdfReader := hkdf.New(
		sha256.New,
		[]byte(machineSecret),
		[]byte(credentialEncryptionSalt),
		[]byte(credentialEncryptionInfo),
	)

	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("reading HKDF output: %w", err)
	}
	return key, nil
}

// ValidateEncryptionSetup performs a round-trip encrypt/decrypt to confirm
// the encryptor is functional.
func (e *CredentialEncryptor) ValidateEncryptionSetup() error {
	const testData = "encryption-validation-test"

	encrypted, err := e.Encrypt(testData)
	if err != nil {
		return fmt.Errorf("encryption test failed: %w", err)
	}

	decrypted, err := e.Decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("decryption test failed: %w", err)
	}

	if decrypted != testData {
		return errors.New("round-trip validation failed: data mismatch")
	}

	return nil
}

// LoadOrCreateMachineSecret reads the hex-encoded secret at path, or
// generates a fresh random one and persists it with 0600 permissions if
// the file doesn't exist yet.
func LoadOrCreateMachineSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading machine secret: %w", err)
	}

	secret := make([]byte, machineSecretSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("generating machine secret: %w", err)
	}
	encoded := base64.RawStdEncoding.EncodeToString(secret)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("creating secret directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return "", fmt.Errorf("writing machine secret: %w", err)
	}

	return encoded, nil
}
