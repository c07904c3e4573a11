package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chat-api", cfg.ServiceName)
	assert.Equal(t, ":8190", cfg.Addr())
	assert.Equal(t, AuthModeSecret, cfg.AuthMode)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:4173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{".vercel.app"}, cfg.CORSAllowedSuffixes)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadRequiresSecretInSecretMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "secret")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AuthMode:           AuthModeSecret,
			JWTSecret:          "s",
			WSPingInterval:     10,
			WSPongWait:         20,
			WSWriteWait:        5,
			WSMaxMessageBytes:  1024,
			WSSendBuffer:       8,
			MessagePageMaxSize: 100,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid secret mode", mutate: func(*Config) {}},
		{
			name: "keycloak without issuer",
			mutate: func(c *Config) {
				c.AuthMode = AuthModeKeycloak
			},
			wantErr: "ISSUER",
		},
		{
			name: "keycloak complete",
			mutate: func(c *Config) {
				c.AuthMode = AuthModeKeycloak
				c.AuthIssuer = "http://kc/realms/rent"
				c.AuthAudience = "chat"
				c.AuthJWKSURL = "http://kc/certs"
			},
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.AuthMode = "none" },
			wantErr: "AUTH_MODE",
		},
		{
			name:    "ping not shorter than pong wait",
			mutate:  func(c *Config) { c.WSPingInterval = c.WSPongWait },
			wantErr: "WS_PING_INTERVAL",
		},
		{
			name:    "zero send buffer",
			mutate:  func(c *Config) { c.WSSendBuffer = 0 },
			wantErr: "WS_SEND_BUFFER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllowedOriginsIncludesFrontend(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: []string{" http://localhost:5173/ ", ""},
		FrontendURL:        "https://rent.example.com/",
	}

	assert.Equal(t, []string{"http://localhost:5173", "https://rent.example.com"}, cfg.AllowedOrigins())
}
