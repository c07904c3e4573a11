// Package identity holds the caller identity the chat core consumes from the
// external identity provider.
package identity

import (
	"context"
	"strings"
)

// Role is the caller role carried by a verified credential.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a role claim. Anything that is not admin is a customer.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Principal captures normalized caller identity independent of auth mechanism.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// IsAdmin reports whether the principal has admin privileges.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalKey struct{}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.ID != ""
}
