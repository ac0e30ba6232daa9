// Package cryptox wraps the vetted primitives gophauth relies on:
// AES-256-GCM sealing with a versioned envelope, HKDF key expansion,
// argon2id passphrase derivation and bcrypt password hashing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/shared"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

// EnvelopeVersion is the first byte of every sealed envelope.
const EnvelopeVersion byte = 0x01

const (
	nonceSize  = 12
	keySize    = 32
	expandInfo = "gophauth/keychain/v1"
)

// ErrEmptyKey is returned when key material of zero length is used.
var ErrEmptyKey = errors.New("empty key material")

// DeriveKey stretches a passphrase into 32 bytes of key material using
// argon2id. The same password and salt always yield the same key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// ExpandKey turns opaque key material of any non-zero length into an
// AES-256 key with HKDF-SHA256.
func ExpandKey(material []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, ErrEmptyKey
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(expandInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(material []byte) (cipher.AEAD, error) {
	key, err := ExpandKey(material)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under the key material and returns a
// self-contained envelope:
//
//	version (1 byte) || nonce (12 bytes) || ciphertext || GCM tag (16 bytes)
//
// A fresh random nonce is generated for every call. aad, which may be nil,
// is authenticated but not stored; Open must be given the same value.
func Seal(material, plaintext, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(material)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 1, 1+nonceSize+len(plaintext)+aesgcm.Overhead())
	header[0] = EnvelopeVersion
	nonce := shared.GenerateRandByteArray(nonceSize)
	header = append(header, nonce...)

	return aesgcm.Seal(header, nonce, plaintext, additionalData(EnvelopeVersion, aad)), nil
}

// additionalData binds the version byte to the caller's aad.
func additionalData(version byte, aad []byte) []byte {
	return append([]byte{version}, aad...)
}

// Open reverses Seal. Short or unknown-version envelopes and failed
// authentication all yield common.ErrInvalidCiphertext.
func Open(material, envelope, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(material)
	if err != nil {
		return nil, err
	}

	if len(envelope) < 1+nonceSize+aesgcm.Overhead() {
		return nil, fmt.Errorf("%w: envelope too short", common.ErrInvalidCiphertext)
	}
	if envelope[0] != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unknown version %d", common.ErrInvalidCiphertext, envelope[0])
	}

	nonce := envelope[1 : 1+nonceSize]
	plaintext, err := aesgcm.Open(nil, nonce, envelope[1+nonceSize:], additionalData(envelope[0], aad))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCiphertext, err)
	}
	return plaintext, nil
}

// HashPassword returns a salted bcrypt hash of the password.
func HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}

// CheckPassword reports whether password matches the bcrypt hash.
// The comparison runs in constant time with respect to the hash.
func CheckPassword(hash, password []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, password) == nil
}
