// Package crypto protects connection secrets: at rest under a key bound to the
// local machine, and inside export bundles under a user-supplied password.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	keyLen    = 32
	ivLen     = 12
	gcmTagLen = 16
	saltLen   = 16
)

const minSealedLen = ivLen + gcmTagLen // 28 bytes minimum

var errShortCiphertext = errors.New("ciphertext too short")

// seal encrypts plaintext using AES-256-GCM.
// Output format: iv(12) || ciphertext+tag
func seal(key [keyLen]byte, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}

	ct := gcm.Seal(nil, iv, plaintext, nil)

	out := make([]byte, 0, ivLen+len(ct))
	out = append(out, iv...)
	out = append(out, ct...)
	return out, nil
}

// open reverses seal.
func open(key [keyLen]byte, data []byte) ([]byte, error) {
	if len(data) < minSealedLen {
		return nil, errShortCiphertext
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, data[:ivLen], data[ivLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key [keyLen]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
