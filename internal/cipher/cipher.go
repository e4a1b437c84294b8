// Package cipher implements password-based authenticated encryption for
// persisted wallet artifacts. A 256-bit key is derived from the password
// with scrypt and a fresh random salt, and the padded plaintext is sealed
// with AES-256-GCM under a fresh random nonce. The serialized blob is
// base64(salt || nonce || ciphertext || tag).
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/scrypt"

	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const (
	// scryptN is the scrypt CPU/memory cost parameter.
	scryptN = 1 << 18
	// scryptR is the scrypt block size parameter.
	scryptR = 8
	// scryptP is the scrypt parallelization parameter.
	scryptP = 1

	keyLen    = 32
	saltSize  = 16
	nonceSize = 12
	tagSize   = 16

	// minBlobSize is salt + nonce + one padded block + tag.
	minBlobSize = saltSize + nonceSize + aes.BlockSize + tagSize
)

// ErrDecryptionFailed covers both authentication failure and malformed
// input. A single error kind is deliberate: callers must not be able to
// distinguish padding errors from tag verification errors.
var ErrDecryptionFailed = &walleterr.WalletError{
	Code:     "DECRYPTION_FAILED",
	Message:  "decryption failed - wrong password or tampered data",
	ExitCode: walleterr.ExitAuth,
}

// Encrypt seals plaintext under a password-derived key and returns the
// base64-encoded blob. Every call draws a fresh salt and nonce; reuse of
// either under the same key would break the AEAD guarantees.
func Encrypt(password string, plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key, err := deriveKey([]byte(password), salt)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}
	defer key.Destroy()

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	aead, err := newGCM(key.Bytes())
	if err != nil {
		return "", err
	}

	// Seal appends the 16-byte tag to the ciphertext.
	sealed := aead.Seal(nil, nonce, pad(plaintext), nil)

	blob := make([]byte, 0, saltSize+nonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. It fails with ErrDecryptionFailed when the
// password is wrong, the blob has been tampered with, or the input is
// structurally malformed.
func Decrypt(password, encoded string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(blob) < minBlobSize {
		return nil, ErrDecryptionFailed
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	sealed := blob[saltSize+nonceSize:]

	key, err := deriveKey([]byte(password), salt)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	defer key.Destroy()

	aead, err := newGCM(key.Bytes())
	if err != nil {
		return nil, err
	}

	// Open verifies the tag before returning any plaintext.
	padded, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := unpad(padded)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// deriveKey derives a 256-bit key from the password and salt using
// scrypt. The key lives in locked memory; the caller must Destroy it.
// The cost parameters target >=100ms on commodity hardware.
func deriveKey(password, salt []byte) (*SecureBytes, error) {
	raw, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, err
	}

	key := SecureBytesFromSlice(raw)
	ZeroBytes(raw)
	return key, nil
}

func newGCM(key []byte) (gocipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aead, nil
}

// pad applies PKCS#7 padding to a multiple of the AES block size.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips PKCS#7 padding.
func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
