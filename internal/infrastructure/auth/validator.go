package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain/identity"
)

const clockSkew = time.Minute

// Verifier is a single credential backend.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Principal, error)
}

// Validator verifies bearer credentials for REST requests and realtime handshakes.
type Validator struct {
	backend Verifier
	mode    string
	log     zerolog.Logger
}

// NewValidator selects the backend configured by AUTH_MODE.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	var (
		backend Verifier
		err     error
	)
	switch mode {
	case config.AuthModeKeycloak:
		backend, err = NewKeycloakVerifier(ctx, cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience, cfg.AdminRoleName, cfg.JWKSRefresh, clockSkew, log)
	case config.AuthModeSecret:
		backend, err = NewSecretVerifier(cfg.JWTSecret, clockSkew)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("auth_mode", mode).Msg("auth validator initialised")
	return NewValidatorWithBackend(backend, mode, log), nil
}

// NewValidatorWithBackend wraps an existing backend.
func NewValidatorWithBackend(backend Verifier, mode string, log zerolog.Logger) *Validator {
	return &Validator{
		backend: backend,
		mode:    mode,
		log:     log.With().Str("component", "auth-validator").Logger(),
	}
}

// Verify checks the raw token (without the Bearer prefix).
func (v *Validator) Verify(ctx context.Context, token string) (identity.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Principal{}, fmt.Errorf("missing bearer token")
	}
	return v.backend.Verify(ctx, token)
}

// Ready reports whether the backend can verify tokens.
func (v *Validator) Ready() bool {
	if r, ok := v.backend.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return true
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
