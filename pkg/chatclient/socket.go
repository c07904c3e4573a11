package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handlers receive socket events on the socket's read goroutine.
type Handlers struct {
	OnMessage func(Message)
	OnAck     func(Ack)
	// OnConnect fires after every (re)connect, once rooms were re-joined.
	OnConnect    func()
	OnDisconnect func(err error)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Socket is the realtime channel. It reconnects with exponential backoff and
// re-joins every room it was asked to join.
type Socket struct {
	url      string
	token    string
	dialer   *websocket.Dialer
	handlers Handlers
	log      zerolog.Logger

	// MaxInterval caps the reconnect delay.
	MaxInterval time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	rooms map[uint]struct{}

	writeMu sync.Mutex
}

// NewSocket creates a socket for the server at baseURL (http or https root).
func NewSocket(baseURL, token string, handlers Handlers, log zerolog.Logger) *Socket {
	return &Socket{
		url:         websocketURL(baseURL),
		token:       token,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers:    handlers,
		log:         log.With().Str("component", "chat-socket").Logger(),
		MaxInterval: 30 * time.Second,
		rooms:       make(map[uint]struct{}),
	}
}

func websocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/v1/chat/ws"
}

// Run connects and keeps the socket connected until ctx is done. It returns
// ErrUnauthorized when the server refuses the credential.
func (s *Socket) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = s.MaxInterval
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(policy, ctx)

	for {
		var conn *websocket.Conn
		dial := func() error {
			header := http.Header{}
			header.Set("Authorization", "Bearer "+s.token)
			c, resp, err := s.dialer.DialContext(ctx, s.url, header)
			if err != nil {
				if resp != nil && resp.StatusCode == http.StatusUnauthorized {
					return backoff.Permanent(ErrUnauthorized)
				}
				s.log.Debug().Err(err).Msg("dial failed")
				return err
			}
			conn = c
			return nil
		}
		if err := backoff.Retry(dial, retry); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		retry.Reset()

		err := s.serve(ctx, conn)
		if s.handlers.OnDisconnect != nil {
			s.handlers.OnDisconnect(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Info().Err(err).Msg("realtime connection lost, reconnecting")
	}
}

func (s *Socket) serve(ctx context.Context, conn *websocket.Conn) error {
	s.mu.Lock()
	s.conn = conn
	rooms := make([]uint, 0, len(s.rooms))
	for id := range s.rooms {
		rooms = append(rooms, id)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for _, id := range rooms {
		if err := s.write(conn, "join_conversation", map[string]uint{"conversationId": id}); err != nil {
			return err
		}
	}
	if s.handlers.OnConnect != nil {
		s.handlers.OnConnect()
	}

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		s.dispatch(f)
	}
}

func (s *Socket) dispatch(f frame) {
	switch f.Event {
	case "new_message":
		var m Message
		if err := json.Unmarshal(f.Data, &m); err != nil {
			s.log.Debug().Err(err).Msg("bad new_message payload")
			return
		}
		if s.handlers.OnMessage != nil {
			s.handlers.OnMessage(m)
		}
	case "message_ack":
		var a Ack
		if err := json.Unmarshal(f.Data, &a); err != nil {
			s.log.Debug().Err(err).Msg("bad message_ack payload")
			return
		}
		if s.handlers.OnAck != nil {
			s.handlers.OnAck(a)
		}
	}
}

// Connected reports whether the socket is currently up.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Join remembers the room and joins it now when connected.
func (s *Socket) Join(conversationID uint) error {
	s.mu.Lock()
	s.rooms[conversationID] = struct{}{}
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return s.write(conn, "join_conversation", map[string]uint{"conversationId": conversationID})
}

// Leave forgets the room.
func (s *Socket) Leave(conversationID uint) error {
	s.mu.Lock()
	delete(s.rooms, conversationID)
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return s.write(conn, "leave_conversation", map[string]uint{"conversationId": conversationID})
}

// Send emits send_message. A non-empty correlationID asks for a message_ack.
func (s *Socket) Send(conversationID uint, content, correlationID string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	payload := map[string]any{"conversationId": conversationID, "content": content}
	if correlationID != "" {
		payload["correlationId"] = correlationID
	}
	return s.write(conn, "send_message", payload)
}

func (s *Socket) write(conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(frame{Event: event, Data: raw}); err != nil {
		return errors.Join(ErrNotConnected, err)
	}
	return nil
}
