package middlewares

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/infrastructure/metrics"
)

// OriginPolicy decides which browser origins may call the API and open the
// realtime channel.
type OriginPolicy struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewOriginPolicy builds a policy from exact origins and host suffixes such as ".vercel.app".
func NewOriginPolicy(origins, suffixes []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			p.exact[strings.ToLower(o)] = struct{}{}
		}
	}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			p.suffixes = append(p.suffixes, s)
		}
	}
	return p
}

// Allows reports whether origin may be served. "*" in the exact list allows all.
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := p.exact["*"]; ok {
		return true
	}
	normalized := strings.ToLower(strings.TrimRight(origin, "/"))
	if _, ok := p.exact[normalized]; ok {
		return true
	}

	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := u.Hostname()
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) && host != strings.TrimPrefix(suffix, ".") {
			return true
		}
	}
	return false
}

// CORS answers cross-origin requests from allowed origins only. Credentials
// are allowed, so the origin is echoed rather than "*".
func CORS(policy *OriginPolicy) gin.HandlerFunc {
	const (
		allowMethods  = "GET, POST, PATCH, OPTIONS"
		allowHeaders  = "Content-Type, Authorization, X-Request-ID, X-Requested-With"
		exposeHeaders = "X-Request-ID, Content-Length"
	)
	maxAge := strconv.Itoa(int((12 * time.Hour).Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		c.Writer.Header().Add("Vary", "Origin")
		if !policy.Allows(origin) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RequestLoggerWithLogger logs each completed request. The query string is
// omitted because the realtime handshake may carry a token there.
func RequestLoggerWithLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("request_id", GetRequestID(c)).
			Msg("request completed")
	}
}
