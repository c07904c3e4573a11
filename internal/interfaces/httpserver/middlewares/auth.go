package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"

	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/infrastructure/auth"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// PrincipalKey is the gin context key holding the verified identity.Principal.
const PrincipalKey = "principal"

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the principal on both the gin and request contexts.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			platformerrors.WriteUnauthorized(c, "missing bearer token")
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. Non-admins get 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			platformerrors.WriteUnauthorized(c, "authentication required")
			return
		}
		if !principal.IsAdmin() {
			platformerrors.WriteForbidden(c, "admin role required")
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the principal stored by RequireAuth.
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.FromContext(c.Request.Context())
}
