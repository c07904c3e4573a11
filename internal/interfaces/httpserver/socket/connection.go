package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/realtime"
)

// Options are the per-connection liveness and buffering limits.
type Options struct {
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageBytes int64
	SendBuffer      int
}

// Connection adapts a WebSocket to realtime.Member. One goroutine reads, one
// writes; Deliver only queues.
type Connection struct {
	id        string
	ws        *websocket.Conn
	opts      Options
	send      chan realtime.Event
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

func newConnection(id string, ws *websocket.Conn, opts Options, log zerolog.Logger) *Connection {
	return &Connection{
		id:   id,
		ws:   ws,
		opts: opts,
		send: make(chan realtime.Event, opts.SendBuffer),
		done: make(chan struct{}),
		log:  log.With().Str("connection_id", id).Logger(),
	}
}

// ID implements realtime.Member.
func (c *Connection) ID() string {
	return c.id
}

// Deliver queues evt without blocking. A full buffer drops the event and
// closes the connection.
func (c *Connection) Deliver(evt realtime.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- evt:
		return true
	default:
		// Slow consumer: evict so the client reconnects and refetches.
		c.Close()
		return false
	}
}

// Close asks the writer to send a close frame and release the socket.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump feeds inbound frames to the session until the socket fails.
func (c *Connection) readPump(ctx context.Context, session *realtime.Session) {
	defer func() {
		session.Close()
		c.Close()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug().Err(err).Msg("malformed frame ignored")
			continue
		}
		session.Handle(ctx, env)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteJSON(evt); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.log.Debug().Err(err).Str("event", evt.Name).Msg("websocket write failed")
				}
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}
