// Package secret seals and opens short authenticated messages, used for
// login cookies and encrypted URL parameters.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeyLength is the secretbox key size.
const KeyLength = 32

// nonceLength is the secretbox nonce size.
const nonceLength = 24

// Key is a symmetric secretbox key.
type Key [KeyLength]byte

// NormalizeKey turns a configured secret of any length into a usable key.
// A secret of exactly KeyLength bytes is used as-is; anything else is
// hashed. Empty secrets yield nil: the caller must provide an ephemeral
// key instead.
func NormalizeKey(secret string) *Key {
	if secret == "" {
		return nil
	}
	var k Key
	if len(secret) == KeyLength {
		copy(k[:], secret)
		return &k
	}
	sum := sha256.Sum256([]byte(secret))
	copy(k[:], sum[:])
	return &k
}

// GenerateKey returns a fresh random key.
func GenerateKey() (*Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &k, nil
}

// Seal encrypts and authenticates plaintext. The wire format is
// base64(nonce‖box) with a random nonce per message.
func Seal(plaintext []byte, key *Key) (string, error) {
	if key == nil {
		return "", fmt.Errorf("no key provided")
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, (*[KeyLength]byte)(key))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open authenticates and decrypts a payload produced by Seal. Any failure
// (bad base64, short payload, wrong key, tampered box) returns nil: a
// broken payload means re-authenticate, not an error page.
func Open(payload string, key *Key) []byte {
	if key == nil {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) <= nonceLength {
		return nil
	}
	var nonce [nonceLength]byte
	copy(nonce[:], raw[:nonceLength])
	plain, ok := secretbox.Open(nil, raw[nonceLength:], &nonce, (*[KeyLength]byte)(key))
	if !ok {
		return nil
	}
	return plain
}
