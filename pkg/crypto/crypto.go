// Package crypto defines the reversible transform used to store
// document content encrypted at rest under a per-document key. The
// default implementation is a non-cryptographic mock: production
// deployments substitute a real AEAD behind the same interface.
package crypto

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidKey is returned when an empty key is supplied to Encrypt
// or Decrypt.
var ErrInvalidKey = errors.New("invalid encryption key")

// DecryptionFailedError is returned when Decrypt rejects data: the
// ciphertext is too short, its length suffix is malformed, or the
// suffix does not match the length of the key supplied.
type DecryptionFailedError struct {
	Reason string
}

func (e *DecryptionFailedError) Error() string {
	return fmt.Sprintf("decryption failed: %s", e.Reason)
}

// Encryptor is a reversible keyed transform over document content.
// Implementations must satisfy Decrypt(Encrypt(x, k), k) == x for
// every x and every non-empty k.
type Encryptor interface {
	Encrypt(data, key string) (string, error)
	Decrypt(data, key string) (string, error)
}

// ReversibleCipher is the default Encryptor: it reverses the input
// string and appends the zero-padded decimal length of the key as a
// 4-digit suffix, so Decrypt can check the supplied key's length
// against the one used to encrypt without storing the key anywhere. A
// different key of the same length is not detected.
type ReversibleCipher struct{}

// NewReversibleCipher constructs the default mock Encryptor.
func NewReversibleCipher() *ReversibleCipher {
	return &ReversibleCipher{}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Encrypt reverses data and appends the key's length, zero-padded to
// 4 digits. An empty key is rejected with ErrInvalidKey.
func (c *ReversibleCipher) Encrypt(data, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	suffix := fmt.Sprintf("%04d", len(key))
	return reverse(data) + suffix, nil
}

// Decrypt validates the trailing 4-digit length suffix against key,
// then reverses the remainder back to plaintext.
func (c *ReversibleCipher) Decrypt(data, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	if len(data) < 4 {
		return "", &DecryptionFailedError{Reason: "ciphertext too short"}
	}
	body, suffix := data[:len(data)-4], data[len(data)-4:]
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", &DecryptionFailedError{Reason: "malformed length suffix"}
	}
	if n != len(key) {
		return "", &DecryptionFailedError{Reason: "key mismatch"}
	}
	return reverse(body), nil
}
