package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar-server/chat-api/internal/domain/identity"
)

const testSecret = "test-secret"

func TestSecretVerifierRoundTrip(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, time.Minute)
	require.NoError(t, err)

	token, err := IssueToken(testSecret, identity.Principal{ID: "u-1", Email: "a@b.c", Role: identity.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "a@b.c", p.Email)
	assert.True(t, p.IsAdmin())
}

func TestSecretVerifierAcceptsLegacyIDClaim(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, time.Minute)
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "legacy-user",
		"email": "legacy@example.com",
		"role":  "user",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", p.ID)
	assert.Equal(t, identity.RoleUser, p.Role)
}

func TestSecretVerifierRejects(t *testing.T) {
	v, err := NewSecretVerifier(testSecret, 0)
	require.NoError(t, err)

	wrongSecret, err := IssueToken("other-secret", identity.Principal{ID: "u-1", Role: identity.RoleUser}, time.Hour)
	require.NoError(t, err)

	expired, err := IssueToken(testSecret, identity.Principal{ID: "u-1", Role: identity.RoleUser}, -time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": wrongSecret,
		"expired":      expired,
		"no subject":   noSubject,
		"alg none":     noneAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

func TestValidatorRejectsMissingToken(t *testing.T) {
	backend, err := NewSecretVerifier(testSecret, time.Minute)
	require.NoError(t, err)
	v := NewValidatorWithBackend(backend, "secret", zerolog.Nop())

	_, err = v.Verify(context.Background(), "  ")
	assert.Error(t, err)
	assert.True(t, v.Ready())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Bearer"))
}
