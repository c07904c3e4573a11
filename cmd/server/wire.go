//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain"
	"rentacar-server/chat-api/internal/domain/realtime"
	"rentacar-server/chat-api/internal/infrastructure/auth"
	"rentacar-server/chat-api/internal/interfaces"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideInfrastructure,
	ProvideConversationRepository,
	ProvideMessageRepository,
	ProvideLocker,
	ProvideBroker,
	ProvideReadinessChecks,
	ProvideAuthValidator,
	wire.Bind(new(realtime.TokenVerifier), new(*auth.Validator)),

	// Domain providers
	domain.ServiceProvider,

	// Interface providers
	interfaces.InterfacesProvider,

	// Application
	NewApplication,
)

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
