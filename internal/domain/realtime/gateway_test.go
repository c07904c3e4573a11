package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/infrastructure/broker"
	"rentacar-server/chat-api/internal/infrastructure/lock"
	"rentacar-server/chat-api/internal/infrastructure/repository/chatrepo"
	"rentacar-server/chat-api/pkg/telemetry"
)

type staticVerifier map[string]identity.Principal

func (v staticVerifier) Verify(_ context.Context, token string) (identity.Principal, error) {
	p, ok := v[token]
	if !ok {
		return identity.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

type failingBroker struct{ deliver func(*message.Message) }

func (b *failingBroker) Subscribe(_ context.Context, deliver func(*message.Message)) error {
	b.deliver = deliver
	return nil
}

func (b *failingBroker) Publish(context.Context, *message.Message) error {
	return errors.New("broker down")
}

var (
	customer  = identity.Principal{ID: "cust-1", Email: "c1@example.com", Role: identity.RoleUser}
	customer2 = identity.Principal{ID: "cust-2", Email: "c2@example.com", Role: identity.RoleUser}
	admin1    = identity.Principal{ID: "admin-1", Email: "a1@example.com", Role: identity.RoleAdmin}
	admin2    = identity.Principal{ID: "admin-2", Email: "a2@example.com", Role: identity.RoleAdmin}
)

type harness struct {
	gw       *Gateway
	convs    conversation.Service
	messages message.Service
}

func newHarness(t *testing.T, b Broker) *harness {
	t.Helper()
	store := chatrepo.NewMemoryStore()
	convs := conversation.NewService(store.Conversations(), lock.NewKeyedMutex(), zerolog.Nop())
	msgs := message.NewService(store.Messages(), 100, zerolog.Nop())
	if b == nil {
		b = broker.NewLocalBroker()
	}
	verifier := staticVerifier{
		"t-cust":  customer,
		"t-cust2": customer2,
		"t-adm1":  admin1,
		"t-adm2":  admin2,
	}
	gw := NewGateway(NewRegistry(), verifier, convs, msgs, b, telemetry.NewSanitizer(telemetry.PIILevelHashed, "test"), zerolog.Nop())
	require.NoError(t, gw.Start(context.Background()))
	return &harness{gw: gw, convs: convs, messages: msgs}
}

func (h *harness) connect(p identity.Principal) (*Session, *fakeMember) {
	m := newFakeMember("conn-" + p.ID)
	return h.gw.Connect(p, m), m
}

func sendEnvelope(t *testing.T, convID uint, content, correlationID string) Envelope {
	t.Helper()
	data, err := json.Marshal(SendMessagePayload{ConversationID: convID, Content: content, CorrelationID: correlationID})
	require.NoError(t, err)
	return Envelope{Event: EventSendMessage, Data: data}
}

func joinEnvelope(convID uint) Envelope {
	return Envelope{Event: EventJoinConversation, Data: json.RawMessage(fmt.Sprintf(`{"conversationId":%d}`, convID))}
}

func messagesOf(evts []Event) []*message.Message {
	out := make([]*message.Message, 0, len(evts))
	for _, evt := range evts {
		out = append(out, evt.Data.(*message.Message))
	}
	return out
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	p, err := h.gw.Authenticate(ctx, " t-adm1 ")
	require.NoError(t, err)
	assert.Equal(t, admin1, p)

	_, err = h.gw.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.gw.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAdminsJoinAdminRoomOnConnect(t *testing.T) {
	h := newHarness(t, nil)

	adminSession, adminConn := h.connect(admin1)
	customerSession, customerConn := h.connect(customer)

	assert.True(t, h.gw.Registry().InRoom(adminConn, AdminRoom))
	assert.False(t, h.gw.Registry().InRoom(customerConn, AdminRoom))
	assert.Equal(t, StateAuthenticated, adminSession.State())
	assert.Equal(t, StateAuthenticated, customerSession.State())
	assert.Equal(t, 2, h.gw.SessionCount())
}

func TestFirstContactFanOut(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)

	custSession, custConn := h.connect(customer)
	_, a1Conn := h.connect(admin1)
	a2Session, a2Conn := h.connect(admin2)
	otherSession, otherConn := h.connect(customer2)

	custSession.Handle(ctx, joinEnvelope(conv.ID))
	a2Session.Handle(ctx, joinEnvelope(conv.ID))
	otherConv, err := h.convs.GetOrCreateForUser(ctx, customer2.ID)
	require.NoError(t, err)
	otherSession.Handle(ctx, joinEnvelope(otherConv.ID))

	assert.Equal(t, StateRoomJoined, custSession.State())

	result := custSession.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: "  Is the SUV available?  "})
	require.Equal(t, SendAccepted, result.Status)
	require.NotNil(t, result.Message)
	assert.Equal(t, "Is the SUV available?", result.Message.Content)
	assert.Equal(t, identity.RoleUser, result.Message.SenderRole)

	for name, conn := range map[string]*fakeMember{"customer": custConn, "admin-room-only": a1Conn, "admin-both-rooms": a2Conn} {
		got := messagesOf(conn.received(EventNewMessage))
		if assert.Len(t, got, 1, name) {
			assert.Equal(t, result.Message.ID, got[0].ID, name)
		}
	}
	assert.Empty(t, otherConn.received(EventNewMessage))

	history, err := h.messages.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Message.ID, history[0].ID)
}

func TestAdminReplyReachesCustomer(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)

	custSession, custConn := h.connect(customer)
	adminSession, adminConn := h.connect(admin1)
	require.NoError(t, custSession.Join(ctx, conv.ID))

	first := custSession.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: "hello"})
	require.Equal(t, SendAccepted, first.Status)

	require.NoError(t, adminSession.Join(ctx, conv.ID))
	reply := adminSession.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: "Hi, how can we help?"})
	require.Equal(t, SendAccepted, reply.Status)
	assert.Equal(t, identity.RoleAdmin, reply.Message.SenderRole)
	assert.Equal(t, admin1.ID, reply.Message.SenderID)

	got := messagesOf(custConn.received(EventNewMessage))
	require.Len(t, got, 2)
	assert.Equal(t, first.Message.ID, got[0].ID)
	assert.Equal(t, reply.Message.ID, got[1].ID)
	assert.Len(t, adminConn.received(EventNewMessage), 2)

	history, err := h.messages.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "Hi, how can we help?", history[1].Content)
}

func TestSendToClosedConversationIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	_, err = h.convs.Close(ctx, conv.ID)
	require.NoError(t, err)

	custSession, custConn := h.connect(customer)
	_, adminConn := h.connect(admin1)
	require.NoError(t, custSession.Join(ctx, conv.ID))

	custSession.Handle(ctx, sendEnvelope(t, conv.ID, "anyone there?", "corr-1"))

	acks := custConn.received(EventMessageAck)
	require.Len(t, acks, 1)
	ack := acks[0].Data.(MessageAck)
	assert.Equal(t, SendRejectedClosed, ack.Status)
	assert.Zero(t, ack.MessageID)

	assert.Empty(t, custConn.received(EventNewMessage))
	assert.Empty(t, adminConn.received(EventNewMessage))

	history, err := h.messages.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendRejectsEmptyAndInvalid(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	custSession, _ := h.connect(customer)

	assert.Equal(t, SendRejectedEmpty, custSession.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: " \n\t "}).Status)
	assert.Equal(t, SendRejectedInvalid, custSession.Send(ctx, SendMessagePayload{Content: "no conversation"}).Status)
	assert.Equal(t, SendRejectedNotFound, custSession.Send(ctx, SendMessagePayload{ConversationID: 999, Content: "hi"}).Status)

	history, err := h.messages.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCustomerCannotUseForeignConversation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)

	intruder, intruderConn := h.connect(customer2)
	require.Error(t, intruder.Join(ctx, conv.ID))
	assert.False(t, h.gw.Registry().InRoom(intruderConn, ConversationRoom(conv.ID)))

	result := intruder.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: "hi"})
	assert.Equal(t, SendRejectedForbidden, result.Status)
}

func TestAckOnlyWithCorrelationID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	custSession, custConn := h.connect(customer)

	custSession.Handle(ctx, sendEnvelope(t, conv.ID, "no ack please", ""))
	assert.Empty(t, custConn.received(EventMessageAck))

	custSession.Handle(ctx, sendEnvelope(t, conv.ID, "ack please", "corr-42"))
	acks := custConn.received(EventMessageAck)
	require.Len(t, acks, 1)
	ack := acks[0].Data.(MessageAck)
	assert.Equal(t, "corr-42", ack.CorrelationID)
	assert.Equal(t, SendAccepted, ack.Status)
	assert.NotZero(t, ack.MessageID)
}

func TestSendTouchesConversation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	older, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	_, err = h.convs.GetOrCreateForUser(ctx, customer2.ID)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	custSession, _ := h.connect(customer)
	result := custSession.Send(ctx, SendMessagePayload{ConversationID: older.ID, Content: "bump"})
	require.Equal(t, SendAccepted, result.Status)

	list, err := h.convs.ListForAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.False(t, list[0].UpdatedAt.Before(result.Message.CreatedAt))
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "bump", *list[0].LastMessage)
}

func TestPublishFailureReportsFailed(t *testing.T) {
	h := newHarness(t, &failingBroker{})
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	custSession, custConn := h.connect(customer)
	require.NoError(t, custSession.Join(ctx, conv.ID))

	result := custSession.Send(ctx, SendMessagePayload{ConversationID: conv.ID, Content: "persisted anyway"})
	assert.Equal(t, SendFailed, result.Status)
	assert.Error(t, result.Err)
	assert.Empty(t, custConn.received(EventNewMessage))

	history, err := h.messages.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSessionCloseAndShutdown(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	custSession, custConn := h.connect(customer)
	require.NoError(t, custSession.Join(ctx, conv.ID))

	custSession.Close()
	custSession.Close()
	assert.Equal(t, StateDisconnected, custSession.State())
	assert.Empty(t, h.gw.Registry().Rooms(custConn))
	assert.Equal(t, 0, h.gw.SessionCount())

	custSession.Handle(ctx, sendEnvelope(t, conv.ID, "after close", "corr-x"))
	assert.Empty(t, custConn.received(EventMessageAck))

	_, adminConn := h.connect(admin1)
	h.gw.Shutdown()
	assert.True(t, adminConn.closed)
	assert.Zero(t, h.gw.SessionCount())
	assert.Zero(t, h.gw.Registry().RoomSize(AdminRoom))
}

func TestJoinAcceptsBareID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	conv, err := h.convs.GetOrCreateForUser(ctx, customer.ID)
	require.NoError(t, err)
	custSession, custConn := h.connect(customer)

	custSession.Handle(ctx, Envelope{Event: EventJoinConversation, Data: json.RawMessage(fmt.Sprintf("%d", conv.ID))})
	assert.True(t, h.gw.Registry().InRoom(custConn, ConversationRoom(conv.ID)))

	custSession.Handle(ctx, Envelope{Event: EventLeaveConversation, Data: json.RawMessage(fmt.Sprintf(`{"conversationId":%d}`, conv.ID))})
	assert.False(t, h.gw.Registry().InRoom(custConn, ConversationRoom(conv.ID)))
}
