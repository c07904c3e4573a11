// @title           Chat API
// @version         1.0
// @description     Live support chat between rental customers and the admin team.
// @description     REST history and admin endpoints plus a WebSocket channel for live messages.

// @host      localhost:8190
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain"
	"rentacar-server/chat-api/internal/domain/realtime"
	"rentacar-server/chat-api/internal/infrastructure/auth"
	"rentacar-server/chat-api/internal/infrastructure/logger"
	"rentacar-server/chat-api/internal/infrastructure/observability"
	"rentacar-server/chat-api/internal/interfaces/httpserver"
	"rentacar-server/chat-api/internal/interfaces/httpserver/handlers"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	gateway    *realtime.Gateway
	infra      *Infrastructure
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, gateway *realtime.Gateway, infra *Infrastructure, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		gateway:    gateway,
		infra:      infra,
		log:        log,
	}
}

// Start subscribes the gateway to the broker and serves HTTP until ctx ends.
func (a *Application) Start(ctx context.Context) error {
	if err := a.gateway.Start(ctx); err != nil {
		return fmt.Errorf("start realtime gateway: %w", err)
	}

	err := a.httpServer.Run(ctx)

	a.gateway.Shutdown()
	a.infra.Close()
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	infra, err := ProvideInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}

	conversations := domain.ProvideConversationService(infra.Conversations, infra.Locker, log)
	messages := domain.ProvideMessageService(infra.Messages, cfg, log)
	gateway := domain.ProvideGateway(authValidator, conversations, messages, infra.Broker, domain.ProvideSanitizer(cfg), log)

	httpServer := httpserver.New(cfg, log, handlers.NewProvider(conversations, messages), gateway, authValidator, infra.Checks)

	app := NewApplication(httpServer, gateway, infra, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Str("auth_mode", cfg.AuthMode).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
