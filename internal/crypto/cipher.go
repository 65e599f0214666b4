package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMissingKey indicates the cipher was constructed without key material.
	ErrMissingKey = errors.New("crypto: encryption key is required")
	// ErrDecryptionFailed indicates the ciphertext is malformed, was produced
	// with a different key, or is not valid ciphertext at all.
	ErrDecryptionFailed = errors.New("crypto: decryption failed")
)

// CipherConfig carries the process-wide symmetric key material.
type CipherConfig struct {
	// Key is the raw configured secret. It is hashed to derive the AES key,
	// so any non-empty string is acceptable.
	Key string

	// RandomSource overrides the nonce source. Nil defaults to crypto/rand.
	RandomSource io.Reader
}

// Cipher seals and opens note content with AES-256-GCM under a single
// process-wide key. Ciphertext is base64(nonce || sealed), with a fresh
// random nonce per call, so identical plaintexts do not produce identical
// ciphertexts.
type Cipher struct {
	aead       cipher.AEAD
	randSource io.Reader
}

// NewCipher derives an AES-256-GCM AEAD from the configured key string.
func NewCipher(cfg CipherConfig) (*Cipher, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrMissingKey
	}

	key := sha256.Sum256([]byte(cfg.Key))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: create AEAD: %w", err)
	}

	randSource := cfg.RandomSource
	if randSource == nil {
		randSource = rand.Reader
	}

	return &Cipher{aead: aead, randSource: randSource}, nil
}

// Encrypt seals the plaintext and returns a base64-encoded ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.randSource, nonce); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any malformed input,
// including plaintext accidentally passed in, yields ErrDecryptionFailed.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryptionFailed)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}
