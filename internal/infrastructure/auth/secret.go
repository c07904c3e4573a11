package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rentacar-server/chat-api/internal/domain/identity"
)

// SecretVerifier validates HS256 tokens signed with a shared secret.
type SecretVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewSecretVerifier creates a verifier for the given secret.
func NewSecretVerifier(secret string, clockSkew time.Duration) (*SecretVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &SecretVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(clockSkew),
		),
	}, nil
}

// Verify parses the token and returns its principal.
func (v *SecretVerifier) Verify(_ context.Context, raw string) (identity.Principal, error) {
	claims := &ChatClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return identity.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return identity.Principal{}, errors.New("invalid token")
	}
	return claims.Principal()
}

// IssueToken signs a shared-secret token for the principal. It backs the
// development CLI and tests; production tokens come from the identity provider.
func IssueToken(secret string, p identity.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	now := time.Now()
	claims := ChatClaims{
		UserID: p.ID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
