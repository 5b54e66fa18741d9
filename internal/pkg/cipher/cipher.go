// Package cipher seals uploaded file contents at rest with XChaCha20-Poly1305.
package cipher

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "properforms file encryption v1"

var (
	ErrEmptySecret = errors.New("cipher secret is empty")
	ErrCorrupt     = errors.New("ciphertext is corrupt or was sealed with another key")
)

// Sealer encrypts with one process-wide key and a fresh random nonce per call.
type Sealer struct {
	aead cipher.AEAD
}

// New derives the file key from secret with HKDF-SHA256.
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns the random nonce and the ciphertext bound to aad.
func (s *Sealer) Seal(plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return nonce, s.aead.Seal(nil, nonce, plaintext, aad), nil
}

func (s *Sealer) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != chacha20poly1305.NonceSizeX || len(ciphertext) < s.aead.Overhead() {
		return nil, ErrCorrupt
	}
	out, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrCorrupt
	}
	return out, nil
}
