package accounts

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Hashing defaults. Iteration count and output length are fixed per
// deployment; changing them invalidates every stored digest.
const (
	DefaultHashIterations = 100000
	DefaultHashKeyLength  = 64
	DefaultSaltLength     = 32
)

// Hasher derives and verifies salted password digests using
// PBKDF2-SHA512. Salts and digests are hex encoded for storage.
type Hasher struct {
	// Number of PBKDF2 iterations. Defaults to DefaultHashIterations.
	Iterations int

	// Derived key length in bytes. Defaults to DefaultHashKeyLength.
	KeyLength int

	// Salt length in bytes. Defaults to DefaultSaltLength.
	SaltLength int
}

func (h *Hasher) iterations() int {
	if h.Iterations > 0 {
		return h.Iterations
	}
	return DefaultHashIterations
}

func (h *Hasher) keyLength() int {
	if h.KeyLength > 0 {
		return h.KeyLength
	}
	return DefaultHashKeyLength
}

func (h *Hasher) saltLength() int {
	if h.SaltLength > 0 {
		return h.SaltLength
	}
	return DefaultSaltLength
}

// GenerateSalt returns a hex-encoded random salt.
func (h *Hasher) GenerateSalt() (string, error) {
	b := make([]byte, h.saltLength())
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash derives the hex-encoded digest of password under saltHex.
func (h *Hasher) Hash(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), salt, h.iterations(), h.keyLength(), sha512.New)
	return hex.EncodeToString(digest), nil
}

// Verify reports whether password hashes to expectedHex under saltHex.
// The comparison is constant time.
func (h *Hasher) Verify(password, saltHex, expectedHex string) (bool, error) {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false, fmt.Errorf("invalid stored digest: %w", err)
	}
	digestHex, err := h.Hash(password, saltHex)
	if err != nil {
		return false, err
	}
	digest, _ := hex.DecodeString(digestHex)
	return subtle.ConstantTimeCompare(digest, expected) == 1, nil
}
