package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/domain/realtime"
	"rentacar-server/chat-api/pkg/telemetry"
)

// ProvideConversationService provides the conversation service.
func ProvideConversationService(repo conversation.Repository, locker conversation.Locker, log zerolog.Logger) conversation.Service {
	return conversation.NewService(repo, locker, log)
}

// ProvideMessageService provides the message service.
func ProvideMessageService(repo message.Repository, cfg *config.Config, log zerolog.Logger) message.Service {
	return message.NewService(repo, cfg.MessagePageMaxSize, log)
}

// ProvideSanitizer provides the log sanitizer for chat content.
func ProvideSanitizer(cfg *config.Config) *telemetry.Sanitizer {
	return telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.LogPIILevel), cfg.ServiceName)
}

// ProvideGateway provides the realtime gateway with a fresh room registry.
func ProvideGateway(
	verifier realtime.TokenVerifier,
	conversations conversation.Service,
	messages message.Service,
	broker realtime.Broker,
	sanitizer *telemetry.Sanitizer,
	log zerolog.Logger,
) *realtime.Gateway {
	return realtime.NewGateway(realtime.NewRegistry(), verifier, conversations, messages, broker, sanitizer, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideConversationService,
	ProvideMessageService,
	ProvideSanitizer,
	ProvideGateway,
)
