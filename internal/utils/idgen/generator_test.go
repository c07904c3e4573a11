package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		length     int
		wantErr    bool
		wantPrefix string
	}{
		{name: "connection id", prefix: "conn", length: 16, wantPrefix: "conn_"},
		{name: "correlation id", prefix: "corr", length: 16, wantPrefix: "corr_"},
		{name: "short id", prefix: "test", length: 4, wantPrefix: "test_"},
		{name: "long id", prefix: "test", length: 64, wantPrefix: "test_"},
		{name: "zero length", prefix: "test", length: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSecureID(tt.prefix, tt.length)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateSecureID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("GenerateSecureID() = %v, want prefix %v", got, tt.wantPrefix)
			}
			if want := len(tt.prefix) + 1 + tt.length; len(got) != want {
				t.Errorf("GenerateSecureID() length = %v, want %v", len(got), want)
			}
			for _, char := range got[len(tt.prefix)+1:] {
				if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
					t.Errorf("GenerateSecureID() contains invalid character: %c", char)
				}
			}
		})
	}
}

func TestNewConnectionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewConnectionID()
		if err != nil {
			t.Fatalf("NewConnectionID() error = %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate connection id %s", id)
		}
		seen[id] = struct{}{}
	}
}
