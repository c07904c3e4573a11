package identity

import (
	"context"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":    RoleAdmin,
		" ADMIN ":  RoleAdmin,
		"user":     RoleUser,
		"":         RoleUser,
		"operator": RoleUser,
	}
	for raw, want := range cases {
		if got := ParseRole(raw); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal on empty context")
	}

	ctx := WithPrincipal(context.Background(), Principal{ID: "u-1", Role: RoleAdmin})
	p, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.ID != "u-1" || !p.IsAdmin() {
		t.Fatalf("unexpected principal %+v", p)
	}
}
