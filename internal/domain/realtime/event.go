package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"rentacar-server/chat-api/internal/domain/message"
)

// Event names on the realtime channel.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventNewMessage        = "new_message"
	EventMessageAck        = "message_ack"
)

// Envelope is an inbound frame: an event name and its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound frame queued to a member.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// NewMessageEvent wraps a persisted message for fan-out.
func NewMessageEvent(msg *message.Message) Event {
	return Event{Name: EventNewMessage, Data: msg}
}

// ConversationRef is the join/leave payload. It accepts a bare number or
// {"conversationId": n}.
type ConversationRef struct {
	ConversationID uint `json:"conversationId" validate:"required"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ConversationRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var id uint
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("conversation id: %w", err)
		}
		r.ConversationID = id
		return nil
	}

	type plain ConversationRef
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = ConversationRef(p)
	return nil
}

// SendMessagePayload is the send_message payload.
type SendMessagePayload struct {
	ConversationID uint   `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"max=4000"`
	CorrelationID  string `json:"correlationId,omitempty" validate:"omitempty,max=128,printascii"`
}

// SendStatus is the tagged outcome of a send.
type SendStatus string

const (
	SendAccepted          SendStatus = "accepted"
	SendRejectedEmpty     SendStatus = "rejected_empty"
	SendRejectedClosed    SendStatus = "rejected_closed"
	SendRejectedNotFound  SendStatus = "rejected_not_found"
	SendRejectedForbidden SendStatus = "rejected_forbidden"
	SendRejectedInvalid   SendStatus = "rejected_invalid"
	SendFailed            SendStatus = "failed"
)

// SendResult is what a send produced. Message is set only when accepted.
type SendResult struct {
	Status  SendStatus
	Message *message.Message
	Err     error
}

// MessageAck is the message_ack payload sent back to a sender that asked for one.
type MessageAck struct {
	CorrelationID string     `json:"correlationId"`
	Status        SendStatus `json:"status"`
	MessageID     uint       `json:"messageId,omitempty"`
}
