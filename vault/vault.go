// Package vault implements the at-rest encryption for document bytes.
// Nothing outside this package ever handles the content key directly
// and no plaintext is ever written to durable storage.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrIntegrity is returned when a ciphertext was not produced under the
// current key or has been tampered with. It is deliberately the only
// decrypt failure callers can observe.
var ErrIntegrity = errors.New("ciphertext integrity check failed")

const nonceSize = 12

type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault from a 32 byte AES-256 key.
func New(key []byte) (*Vault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("vault key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher, %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM, %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random nonce. The nonce is
// prepended to the returned ciphertext so blobs are self-contained.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce, %w", err)
	}

	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Any authentication failure,
// including a truncated blob, comes back as ErrIntegrity so callers
// never see partially decrypted bytes.
func (v *Vault) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < nonceSize {
		return nil, ErrIntegrity
	}

	// A non-nil destination keeps empty plaintexts round-tripping to an
	// empty slice instead of nil
	plaintext, err := v.aead.Open(make([]byte, 0), blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}
