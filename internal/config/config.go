package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Auth modes supported by the credential verifier.
const (
	AuthModeSecret   = "secret"
	AuthModeKeycloak = "keycloak"
)

// Config holds all configuration for the chat-api service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"chat-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CHAT_API_PORT" envDefault:"8190"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPIILevel     string        `env:"LOG_PII_LEVEL" envDefault:"hashed"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Database. An empty DSN runs the service on in-memory repositories.
	DatabaseURL        string        `env:"DATABASE_URL"`
	DBMaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBAutoMigrate      bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	MessagePageMaxSize int           `env:"MESSAGE_PAGE_MAX_SIZE" envDefault:"500"`

	// Redis enables cross-instance fan-out and distributed locking.
	RedisURL     string        `env:"REDIS_URL"`
	RedisChannel string        `env:"REDIS_CHANNEL" envDefault:"chat:messages"`
	LockTTL      time.Duration `env:"LOCK_TTL" envDefault:"5s"`

	// Auth
	AuthMode      string        `env:"AUTH_MODE" envDefault:"secret"`
	JWTSecret     string        `env:"JWT_SECRET"`
	AuthIssuer    string        `env:"ISSUER"`
	AuthAudience  string        `env:"AUDIENCE"`
	AuthJWKSURL   string        `env:"JWKS_URL"`
	AdminRoleName string        `env:"ADMIN_ROLE" envDefault:"admin"`
	JWKSRefresh   time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"5m"`

	// CORS and websocket origin checks
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:4173"`
	CORSAllowedSuffixes []string `env:"CORS_ALLOWED_ORIGIN_SUFFIXES" envSeparator:"," envDefault:".vercel.app"`
	FrontendURL         string   `env:"FRONTEND_URL"`

	// WebSocket transport
	WSPingInterval    time.Duration `env:"WS_PING_INTERVAL" envDefault:"25s"`
	WSPongWait        time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	WSWriteWait       time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s"`
	WSMaxMessageBytes int64         `env:"WS_MAX_MESSAGE_BYTES" envDefault:"16384"`
	WSSendBuffer      int           `env:"WS_SEND_BUFFER" envDefault:"256"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.AuthMode)) {
	case AuthModeSecret:
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is %q", AuthModeSecret)
		}
	case AuthModeKeycloak:
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("ISSUER is required when AUTH_MODE is %q", AuthModeKeycloak)
		}
		if strings.TrimSpace(c.AuthAudience) == "" {
			return fmt.Errorf("AUDIENCE is required when AUTH_MODE is %q", AuthModeKeycloak)
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("JWKS_URL is required when AUTH_MODE is %q", AuthModeKeycloak)
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}

	if c.WSPingInterval <= 0 || c.WSPongWait <= 0 || c.WSWriteWait <= 0 {
		return fmt.Errorf("websocket timings must be positive")
	}
	if c.WSPingInterval >= c.WSPongWait {
		return fmt.Errorf("WS_PING_INTERVAL (%s) must be shorter than WS_PONG_WAIT (%s)", c.WSPingInterval, c.WSPongWait)
	}
	if c.WSMaxMessageBytes <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be positive")
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	if c.MessagePageMaxSize <= 0 {
		return fmt.Errorf("MESSAGE_PAGE_MAX_SIZE must be positive")
	}
	return nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AllowedOrigins returns the configured exact origins plus FRONTEND_URL.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.CORSAllowedOrigins)+1)
	for _, origin := range c.CORSAllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	if frontend := strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/"); frontend != "" {
		origins = append(origins, frontend)
	}
	return origins
}
