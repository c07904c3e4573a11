package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/identity"
)

const jwksInitialFetchTimeout = 2 * time.Minute

// KeycloakVerifier validates RS256 tokens against a Keycloak realm JWKS.
type KeycloakVerifier struct {
	jwksURL   string
	adminRole string
	parser    *jwt.Parser
	log       zerolog.Logger
	jwks      atomic.Pointer[keyfunc.JWKS]
	lastErr   atomic.Pointer[error]
}

// NewKeycloakVerifier fetches the JWKS, retrying with exponential backoff
// until it succeeds, ctx ends or the initial fetch timeout passes.
func NewKeycloakVerifier(
	ctx context.Context,
	jwksURL, issuer, audience, adminRole string,
	refreshEvery, clockSkew time.Duration,
	log zerolog.Logger,
) (*KeycloakVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}

	v := &KeycloakVerifier{
		jwksURL:   jwksURL,
		adminRole: adminRole,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithLeeway(clockSkew),
		),
		log: log.With().Str("component", "keycloak-verifier").Logger(),
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   refreshEvery,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			v.lastErr.Store(&err)
			v.log.Error().Err(err).Msg("jwks refresh failed")
		},
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = jwksInitialFetchTimeout
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		jwks, err := keyfunc.Get(jwksURL, options)
		if err != nil {
			v.log.Warn().Err(err).Str("jwks_url", jwksURL).Int("attempt", attempt).Msg("initial jwks fetch failed, retrying")
			return err
		}
		v.jwks.Store(jwks)
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return v, nil
}

// Verify validates the token and maps realm roles to the chat role.
func (v *KeycloakVerifier) Verify(_ context.Context, raw string) (identity.Principal, error) {
	jwks := v.jwks.Load()
	if jwks == nil {
		return identity.Principal{}, errors.New("jwks not initialised")
	}

	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, jwks.Keyfunc)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return identity.Principal{}, errors.New("invalid token")
	}

	sub := claimString(claims, "sub")
	if sub == "" {
		return identity.Principal{}, errors.New("sub claim missing")
	}

	role := identity.ParseRole(claimString(claims, "role"))
	for _, r := range realmRoles(claims) {
		if strings.EqualFold(r, v.adminRole) {
			role = identity.RoleAdmin
			break
		}
	}

	return identity.Principal{
		ID:    sub,
		Email: claimString(claims, "email"),
		Name:  claimString(claims, "name"),
		Role:  role,
	}, nil
}

// Ready reports whether the JWKS is loaded and the last refresh succeeded.
func (v *KeycloakVerifier) Ready() bool {
	if v.jwks.Load() == nil {
		return false
	}
	if last := v.lastErr.Load(); last != nil && *last != nil {
		return false
	}
	return true
}
