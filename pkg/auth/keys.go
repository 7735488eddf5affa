package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ErrValidatorDisabled is returned when token verification is not configured.
var ErrValidatorDisabled = errors.New("token verification is not configured")

// StaticKey verifies every token with one RSA public key.
type StaticKey struct {
	key *rsa.PublicKey
}

// NewStaticKey parses a PEM encoded RSA public key.
func NewStaticKey(pem []byte) (*StaticKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	return &StaticKey{key: key}, nil
}

// LoadStaticKey reads a PEM encoded RSA public key from path.
func LoadStaticKey(path string) (*StaticKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", path, err)
	}
	return NewStaticKey(data)
}

// Key implements KeySource.
func (s *StaticKey) Key(_ context.Context, _ *jwt.Token) (any, error) {
	return s.key, nil
}
