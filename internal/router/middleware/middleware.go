package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
)

// IdentityKey is where the authenticated identity lives in the request
// context. Token verification happens upstream; by the time a request
// reaches this service the verified subject is in the X-User-Id header.
const IdentityKey = "identity"

// LoggerKey holds the request-scoped *zap.Logger.
const LoggerKey = "logger"

// LoggingMiddleware attaches a request-scoped logger tagged with a
// request id and logs every request on completion.
func LoggingMiddleware(log *zap.Logger) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		reqLog := log.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(LoggerKey, reqLog)
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		reqLog.Info("Handled request",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Identity propagates the upstream-verified identity into the context
// when present.
func Identity() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if id := c.GetHeader("X-User-Id"); id != "" {
			c.Set(IdentityKey, id)
		}
		c.Next()
	}
}

// RequireIdentity rejects requests that carry no identity. Mutating
// routes sit behind it.
func RequireIdentity() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if _, ok := c.Get(IdentityKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ginext.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
