package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrIntegrity reports a stored secret that cannot be decrypted with this
// machine's key: the store was tampered with or copied from another host.
var ErrIntegrity = errors.New("stored secret failed integrity check")

var (
	atRestSalt = []byte("dccm-at-rest-v1")
	atRestInfo = []byte("connection secrets")
)

// AtRest encrypts secrets for storage on the local machine.
type AtRest struct {
	key [keyLen]byte
}

// NewAtRest derives the at-rest key from the machine identity.
func NewAtRest(machineID string) (*AtRest, error) {
	if machineID == "" {
		return nil, errors.New("machine identity is empty")
	}
	var key [keyLen]byte
	r := hkdf.New(sha256.New, []byte(machineID), atRestSalt, atRestInfo)
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, fmt.Errorf("derive at-rest key: %w", err)
	}
	return &AtRest{key: key}, nil
}

// Encrypt returns base64(iv || ciphertext+tag).
func (a *AtRest) Encrypt(plaintext string) (string, error) {
	sealed, err := seal(a.key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure is reported as ErrIntegrity.
func (a *AtRest) Decrypt(token string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	plaintext, err := open(a.key, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return string(plaintext), nil
}
