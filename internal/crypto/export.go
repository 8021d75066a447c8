package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch = errors.New("export password does not match")
	ErrEmptyPassword    = errors.New("export password is empty")
)

const (
	argonTime    = 2
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
)

func exportKey(password string, salt []byte) [keyLen]byte {
	var key [keyLen]byte
	copy(key[:], argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen))
	return key
}

// EncryptForExport encrypts plaintext under password.
// Output format: base64(salt(16) || iv(12) || ciphertext+tag)
func EncryptForExport(plaintext, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sealed, err := seal(exportKey(password, salt), []byte(plaintext))
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltLen+len(sealed))
	out = append(out, salt...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptForExport reverses EncryptForExport. A wrong password yields
// ErrPasswordMismatch.
func DecryptForExport(token, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode export token: %w", err)
	}
	if len(data) < saltLen+minSealedLen {
		return "", errShortCiphertext
	}

	plaintext, err := open(exportKey(password, data[:saltLen]), data[saltLen:])
	if err != nil {
		return "", ErrPasswordMismatch
	}
	return string(plaintext), nil
}

// Fingerprint is the deterministic SHA-256 hex digest stored in an export
// header so an import can reject a wrong password before touching any record.
func Fingerprint(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckFingerprint reports ErrPasswordMismatch when password does not match fp.
func CheckFingerprint(password, fp string) error {
	if Fingerprint(password) != fp {
		return ErrPasswordMismatch
	}
	return nil
}
