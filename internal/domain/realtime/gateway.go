package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/infrastructure/metrics"
	"rentacar-server/chat-api/pkg/telemetry"
)

// ErrUnauthenticated is returned when a handshake carries no valid credential.
var ErrUnauthenticated = errors.New("realtime: unauthenticated")

// TokenVerifier turns a bearer credential into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Principal, error)
}

// Broker carries persisted messages to every gateway instance, this one included.
type Broker interface {
	// Subscribe registers deliver and returns once the subscription is live.
	Subscribe(ctx context.Context, deliver func(*message.Message)) error
	Publish(ctx context.Context, msg *message.Message) error
}

// Gateway owns the realtime sessions of this instance and the send pipeline.
type Gateway struct {
	registry      *Registry
	verifier      TokenVerifier
	conversations conversation.Service
	messages      message.Service
	broker        Broker
	validate      *validator.Validate
	sanitizer     *telemetry.Sanitizer
	log           zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewGateway wires the gateway.
func NewGateway(
	registry *Registry,
	verifier TokenVerifier,
	conversations conversation.Service,
	messages message.Service,
	broker Broker,
	sanitizer *telemetry.Sanitizer,
	log zerolog.Logger,
) *Gateway {
	return &Gateway{
		registry:      registry,
		verifier:      verifier,
		conversations: conversations,
		messages:      messages,
		broker:        broker,
		validate:      validator.New(),
		sanitizer:     sanitizer,
		log:           log.With().Str("component", "realtime-gateway").Logger(),
		sessions:      make(map[string]*Session),
	}
}

// Start subscribes the gateway to the broker.
func (g *Gateway) Start(ctx context.Context) error {
	return g.broker.Subscribe(ctx, func(msg *message.Message) {
		g.Deliver(msg)
	})
}

// Authenticate verifies the handshake credential.
func (g *Gateway) Authenticate(ctx context.Context, token string) (identity.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Principal{}, ErrUnauthenticated
	}
	principal, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.log.Debug().Err(err).Msg("realtime credential rejected")
		return identity.Principal{}, ErrUnauthenticated
	}
	return principal, nil
}

// Connect registers an authenticated connection. Admins join AdminRoom right away.
func (g *Gateway) Connect(principal identity.Principal, member Member) *Session {
	s := &Session{
		gw:        g,
		principal: principal,
		member:    member,
		log: g.log.With().
			Str("connection_id", member.ID()).
			Str("user", g.sanitizer.SanitizeUserID(principal.ID)).
			Str("role", string(principal.Role)).
			Logger(),
	}

	g.mu.Lock()
	g.sessions[member.ID()] = s
	g.mu.Unlock()

	if principal.IsAdmin() {
		g.registry.Join(member, AdminRoom)
		metrics.RoomJoins.WithLabelValues("admins", "ok").Inc()
	}

	metrics.RecordConnectionOpened(string(principal.Role))
	s.log.Debug().Msg("realtime session opened")
	return s
}

// Deliver fans a persisted message out to its conversation room and the admin
// room. Each local connection receives it at most once.
func (g *Gateway) Deliver(msg *message.Message) int {
	delivered, dropped := g.registry.Broadcast(NewMessageEvent(msg), ConversationRoom(msg.ConversationID), AdminRoom)
	metrics.FanoutDeliveries.Add(float64(delivered))
	if dropped > 0 {
		metrics.FanoutDropped.Add(float64(dropped))
		g.log.Warn().
			Uint("conversation_id", msg.ConversationID).
			Uint("message_id", msg.ID).
			Int("dropped", dropped).
			Msg("new_message dropped, slow connections evicted")
	}
	return delivered
}

// SessionCount returns the number of live sessions.
func (g *Gateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Registry exposes the room registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Shutdown closes every live session.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	sessions := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	for _, s := range sessions {
		s.member.Close()
		s.Close()
	}
	g.log.Info().Int("sessions", len(sessions)).Msg("realtime sessions closed")
}

func (g *Gateway) forget(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s.member.ID())
	g.mu.Unlock()
}
