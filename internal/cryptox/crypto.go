// Package cryptox wraps the key derivation and AEAD primitives used by
// SimpleShare: passcode verifiers for sign-in and per-file encryption for
// file shares.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of derived and generated keys (AES-256).
const KeySize = 32

var ErrInvalidKey = errors.New("invalid key size")

// DeriveKey stretches a passcode with Argon2id.
func DeriveKey(passcode []byte, salt []byte) []byte {
	return argon2.IDKey(passcode, salt, 1, 64*1024, 4, KeySize)
}

// MakeVerifier hashes a derived key. The server stores only the verifier,
// never the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// Sealed is an encrypted payload with the material needed to open it.
type Sealed struct {
	Ciphertext []byte
	Key        []byte
	Nonce      []byte
}

// Seal encrypts plaintext with a fresh random AES-256-GCM key.
func Seal(plaintext []byte) (*Sealed, error) {
	key := common.GenerateRandByteArray(KeySize)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &Sealed{Ciphertext: ciphertext, Key: key, Nonce: nonce}, nil
}

// Open reverses Seal.
func Open(ciphertext, key, nonce []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
