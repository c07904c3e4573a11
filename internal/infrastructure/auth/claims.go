package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"rentacar-server/chat-api/internal/domain/identity"
)

// ChatClaims is the claim set of shared-secret tokens: the subject id under
// "id" (or "sub"), the email and the role.
type ChatClaims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims to the caller identity.
func (c *ChatClaims) Principal() (identity.Principal, error) {
	id := strings.TrimSpace(c.UserID)
	if id == "" {
		id = strings.TrimSpace(c.Subject)
	}
	if id == "" {
		return identity.Principal{}, errors.New("token carries no subject id")
	}
	return identity.Principal{
		ID:    id,
		Email: c.Email,
		Name:  c.Name,
		Role:  identity.ParseRole(c.Role),
	}, nil
}

func realmRoles(claims jwt.MapClaims) []string {
	realmAccess, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := realmAccess["roles"].([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, role := range raw {
		if s, ok := role.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func claimString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
