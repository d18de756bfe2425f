package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewToken generates a cryptographically random 64-character hex token
// (256 bits of entropy), used for magic-link verification.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewCode generates a 6-digit numeric one-time code, zero-padded, drawn
// uniformly from [0, 1000000).
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
