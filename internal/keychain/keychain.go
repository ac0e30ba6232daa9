// Package keychain holds named symmetric keys and encrypts/decrypts strings
// under them.
//
// Ciphertexts are cryptox envelopes rendered as strict, unpadded base64url
// text, so they can be stored in text columns, headers or URLs. Each one is
// self-contained: only the ciphertext and the key it was sealed with are
// needed to decrypt it.
//
// A Keychain is safe for concurrent use. Lookups and encryption take a read
// lock; AddKey and RemoveKey are serialized against them.
package keychain

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/shared"
)

// KeySize is the length of keys produced by GenerateKey.
const KeySize = 32

var textEncoding = base64.RawURLEncoding.Strict()

// Keychain maps key identifiers to key material.
type Keychain struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// New returns an empty Keychain.
func New() *Keychain {
	return &Keychain{keys: make(map[string][]byte)}
}

// NewWithKeys returns a Keychain seeded with copies of the given entries.
// The caller's map is not retained.
func NewWithKeys(keys map[string][]byte) *Keychain {
	kc := New()
	for id, key := range keys {
		kc.keys[id] = bytes.Clone(key)
	}
	return kc
}

// GenerateKey returns KeySize random bytes suitable for AddKey.
func GenerateKey() []byte {
	return shared.GenerateRandByteArray(KeySize)
}

// AddKey stores key under id, replacing any previous entry.
func (k *Keychain) AddKey(id string, key []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[id] = bytes.Clone(key)
}

// RemoveKey deletes the entry for id. Removing an unknown id is a no-op.
func (k *Keychain) RemoveKey(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if key, ok := k.keys[id]; ok {
		shared.WipeByteArray(key)
		delete(k.keys, id)
	}
}

// GetKey returns a copy of the key stored under id, and false when there is
// none.
func (k *Keychain) GetKey(id string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[id]
	if !ok {
		return nil, false
	}
	return bytes.Clone(key), true
}

// IDs returns the stored key identifiers in sorted order.
func (k *Keychain) IDs() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Sorted(maps.Keys(k.keys))
}

// Len returns the number of stored keys.
func (k *Keychain) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Encrypt seals plaintext under the key stored as id.
// It fails with common.ErrInvalidKey when there is no usable key.
func (k *Keychain) Encrypt(id string, plaintext string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.keys[id]
	if !ok || len(key) == 0 {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidKey, id)
	}

	envelope, err := cryptox.Seal(key, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("encrypt with %q: %w", id, err)
	}
	return textEncoding.EncodeToString(envelope), nil
}

// Decrypt opens a ciphertext produced by Encrypt with the key stored as id.
// It fails with common.ErrInvalidKey when there is no usable key and with
// common.ErrInvalidCiphertext when the text is malformed, was sealed under
// another key, or has been tampered with.
func (k *Keychain) Decrypt(id string, ciphertext string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.keys[id]
	if !ok || len(key) == 0 {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidKey, id)
	}

	envelope, err := textEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidCiphertext, err)
	}

	plaintext, err := cryptox.Open(key, envelope, nil)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCiphertext) {
			return "", err
		}
		return "", fmt.Errorf("decrypt with %q: %w", id, err)
	}
	return string(plaintext), nil
}
