package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/infrastructure/metrics"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// SessionState is the lifecycle state of an authenticated connection.
type SessionState string

const (
	StateAuthenticated SessionState = "authenticated"
	StateRoomJoined    SessionState = "room_joined"
	StateDisconnected  SessionState = "disconnected"
)

// Session is one authenticated connection. Handle is called from a single
// reader goroutine, so events of one connection are processed in order.
type Session struct {
	gw        *Gateway
	principal identity.Principal
	member    Member
	closed    atomic.Bool
	log       zerolog.Logger
}

// ID returns the connection id.
func (s *Session) ID() string {
	return s.member.ID()
}

// Principal returns the identity the session authenticated as.
func (s *Session) Principal() identity.Principal {
	return s.principal
}

// State derives the session state from its registry memberships.
func (s *Session) State() SessionState {
	if s.closed.Load() {
		return StateDisconnected
	}
	for _, room := range s.gw.registry.Rooms(s.member) {
		if room != AdminRoom {
			return StateRoomJoined
		}
	}
	return StateAuthenticated
}

// Handle dispatches one inbound frame.
func (s *Session) Handle(ctx context.Context, env Envelope) {
	if s.closed.Load() {
		return
	}

	switch env.Event {
	case EventJoinConversation:
		var ref ConversationRef
		if err := s.decode(env, &ref); err != nil {
			return
		}
		if err := s.Join(ctx, ref.ConversationID); err != nil {
			s.log.Debug().Err(err).Uint("conversation_id", ref.ConversationID).Msg("join_conversation ignored")
		}

	case EventLeaveConversation:
		var ref ConversationRef
		if err := s.decode(env, &ref); err != nil {
			return
		}
		s.Leave(ref.ConversationID)

	case EventSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			s.log.Debug().Err(err).Str("event", env.Event).Msg("malformed payload")
			return
		}
		result := s.Send(ctx, payload)
		s.ack(payload.CorrelationID, result)

	default:
		s.log.Debug().Str("event", env.Event).Msg("unknown event ignored")
	}
}

func (s *Session) decode(env Envelope, ref *ConversationRef) error {
	if err := json.Unmarshal(env.Data, ref); err != nil {
		s.log.Debug().Err(err).Str("event", env.Event).Msg("malformed payload")
		return err
	}
	if err := s.gw.validate.Struct(ref); err != nil {
		s.log.Debug().Err(err).Str("event", env.Event).Msg("invalid payload")
		return err
	}
	return nil
}

// Join adds the connection to a conversation room. Customers may only join
// their own conversation.
func (s *Session) Join(ctx context.Context, conversationID uint) error {
	if !s.principal.IsAdmin() {
		conv, err := s.gw.conversations.Get(ctx, conversationID)
		if err != nil {
			metrics.RoomJoins.WithLabelValues("conversation", joinFailureLabel(err)).Inc()
			return err
		}
		if conv.UserID != s.principal.ID {
			metrics.RoomJoins.WithLabelValues("conversation", "forbidden").Inc()
			return platformerrors.NewError(ctx, platformerrors.LayerRealtime, platformerrors.ErrorTypeForbidden, "conversation belongs to another user", nil, "")
		}
	}

	s.gw.registry.Join(s.member, ConversationRoom(conversationID))
	metrics.RoomJoins.WithLabelValues("conversation", "ok").Inc()
	return nil
}

// Leave removes the connection from a conversation room.
func (s *Session) Leave(conversationID uint) {
	s.gw.registry.Leave(s.member, ConversationRoom(conversationID))
}

// Send validates, persists, touches and publishes a message. Fan-out only
// happens after the message is durably stored.
func (s *Session) Send(ctx context.Context, payload SendMessagePayload) SendResult {
	role := string(s.principal.Role)
	result := s.send(ctx, payload)
	metrics.RecordSend(role, string(result.Status))
	return result
}

func (s *Session) send(ctx context.Context, payload SendMessagePayload) SendResult {
	if err := s.gw.validate.Struct(payload); err != nil {
		return SendResult{Status: SendRejectedInvalid, Err: err}
	}

	content := strings.TrimSpace(payload.Content)
	if content == "" {
		return SendResult{Status: SendRejectedEmpty}
	}

	conv, err := s.gw.conversations.Get(ctx, payload.ConversationID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return SendResult{Status: SendRejectedNotFound, Err: err}
		}
		s.logFailure(err, payload.ConversationID, content, "load conversation")
		return SendResult{Status: SendFailed, Err: err}
	}
	if !s.principal.IsAdmin() && conv.UserID != s.principal.ID {
		s.log.Warn().Uint("conversation_id", conv.ID).Msg("send to foreign conversation rejected")
		return SendResult{Status: SendRejectedForbidden}
	}
	if conv.Status == conversation.StatusClosed {
		return SendResult{Status: SendRejectedClosed}
	}

	start := time.Now()

	msg, err := s.gw.messages.Append(ctx, conv.ID, s.principal.ID, s.principal.Role, content)
	if err != nil {
		s.logFailure(err, conv.ID, content, "append message")
		return SendResult{Status: SendFailed, Err: err}
	}

	if err := s.gw.conversations.Touch(ctx, conv.ID); err != nil {
		s.logFailure(err, conv.ID, content, "touch conversation")
		return SendResult{Status: SendFailed, Message: msg, Err: err}
	}

	if err := s.gw.broker.Publish(ctx, msg); err != nil {
		s.logFailure(err, conv.ID, content, "publish message")
		return SendResult{Status: SendFailed, Message: msg, Err: err}
	}

	metrics.SendDuration.Observe(time.Since(start).Seconds())
	return SendResult{Status: SendAccepted, Message: msg}
}

func (s *Session) logFailure(err error, conversationID uint, content, step string) {
	s.log.Error().
		Err(err).
		Uint("conversation_id", conversationID).
		Str("content", s.gw.sanitizer.SanitizeContent(content)).
		Str("step", step).
		Msg("send_message failed")
}

// ack answers the sender only when it asked for an acknowledgement.
func (s *Session) ack(correlationID string, result SendResult) {
	if correlationID == "" {
		return
	}
	ack := MessageAck{CorrelationID: correlationID, Status: result.Status}
	if result.Status == SendAccepted && result.Message != nil {
		ack.MessageID = result.Message.ID
	}
	if !s.member.Deliver(Event{Name: EventMessageAck, Data: ack}) {
		s.log.Debug().Str("correlation_id", correlationID).Msg("ack dropped")
	}
}

// Close drops every membership. Calling it more than once is safe.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	rooms := s.gw.registry.LeaveAll(s.member)
	s.gw.forget(s)
	metrics.RecordConnectionClosed(string(s.principal.Role))
	s.log.Debug().Strs("rooms", rooms).Msg("realtime session closed")
}

func joinFailureLabel(err error) string {
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return "not_found"
	}
	return "error"
}
