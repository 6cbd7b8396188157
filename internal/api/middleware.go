package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romangod6/city-guide/internal/auth"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	sessionKey      = "session"
)

// RequestID propagates an incoming request id or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger emits one structured entry per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	logger = logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("http_request")
	}
}

// RequireAdmin rejects requests that do not carry a live admin session.
func RequireAdmin(authority *auth.Authority, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := authenticate(c, authority, cookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// authenticate accepts the first live session among the cookie and the
// bearer token, so a stale cookie does not shadow a valid header.
func authenticate(c *gin.Context, authority *auth.Authority, cookieName string) (auth.Session, error) {
	err := auth.ErrUnauthorized
	for _, token := range sessionTokens(c, cookieName) {
		var sess auth.Session
		if sess, err = authority.Require(c.Request.Context(), token); err == nil {
			return sess, nil
		}
	}
	return auth.Session{}, err
}

// sessionTokens lists the cookie token, then the bearer token, skipping empties.
func sessionTokens(c *gin.Context, cookieName string) []string {
	var tokens []string
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		tokens = append(tokens, token)
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// currentSession returns the session RequireAdmin attached to the request.
func currentSession(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	sess, ok := v.(auth.Session)
	return sess, ok
}
