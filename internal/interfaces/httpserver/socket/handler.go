// Package socket serves the realtime chat channel over WebSocket.
package socket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/config"
	"rentacar-server/chat-api/internal/domain/realtime"
	"rentacar-server/chat-api/internal/infrastructure/auth"
	"rentacar-server/chat-api/internal/infrastructure/metrics"
	"rentacar-server/chat-api/internal/interfaces/httpserver/middlewares"
	"rentacar-server/chat-api/internal/utils/idgen"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// Handler authenticates the handshake, upgrades it and runs the connection.
type Handler struct {
	gateway  *realtime.Gateway
	upgrader websocket.Upgrader
	opts     Options
	log      zerolog.Logger
}

// OptionsFromConfig maps the WS_* settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PingInterval:    cfg.WSPingInterval,
		PongWait:        cfg.WSPongWait,
		WriteWait:       cfg.WSWriteWait,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
		SendBuffer:      cfg.WSSendBuffer,
	}
}

// NewHandler creates the WebSocket handler. Browser origins are checked
// against policy; requests without an Origin header come from non-browser
// clients and are allowed.
func NewHandler(gateway *realtime.Gateway, opts Options, policy *middlewares.OriginPolicy, log zerolog.Logger) *Handler {
	h := &Handler{
		gateway: gateway,
		opts:    opts,
		log:     log.With().Str("component", "websocket").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || policy.Allows(origin) {
				return true
			}
			metrics.ConnectionsRejected.WithLabelValues("origin").Inc()
			return false
		},
	}
	return h
}

// Serve handles GET /v1/chat/ws. It blocks for the lifetime of the connection.
func (h *Handler) Serve(c *gin.Context) {
	principal, err := h.gateway.Authenticate(c.Request.Context(), handshakeToken(c))
	if err != nil {
		metrics.ConnectionsRejected.WithLabelValues("unauthenticated").Inc()
		platformerrors.WriteUnauthorized(c, "invalid or missing credentials")
		return
	}

	connID, err := idgen.NewConnectionID()
	if err != nil {
		platformerrors.WriteInternalError(c, "failed to allocate connection id")
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newConnection(connID, ws, h.opts, h.log)
	session := h.gateway.Connect(principal, conn)

	go conn.writePump()
	conn.readPump(context.WithoutCancel(c.Request.Context()), session)
}

func handshakeToken(c *gin.Context) string {
	if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("token"))
}
