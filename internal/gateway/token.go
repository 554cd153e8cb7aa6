package gateway

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMalformed    = errors.New("malformed token")
	ErrEmptySecret  = errors.New("auth secret must not be empty")
)

// TokenValidator checks HS256 tokens issued by the auth service.
type TokenValidator struct {
	key    []byte
	parser *jwt.Parser
}

// NewTokenValidator takes the shared secret in base64, as the auth service stores it.
func NewTokenValidator(secretB64 string) (*TokenValidator, error) {
	secretB64 = strings.TrimSpace(secretB64)
	if secretB64 == "" {
		return nil, ErrEmptySecret
	}

	key, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return nil, fmt.Errorf("decode auth secret: %w", err)
	}

	return &TokenValidator{
		key:    key,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Validate returns ErrMalformed when raw is not a JWT at all and
// ErrUnauthorized for everything else that fails: empty, bad signature,
// wrong algorithm, expired or not yet valid.
func (v *TokenValidator) Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty token", ErrUnauthorized)
	}

	_, err := v.parser.Parse(raw, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
}
