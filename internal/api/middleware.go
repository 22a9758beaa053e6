package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with zap fields
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// sessionKey returns the caller's conversation key, issuing a new one in a
// session cookie when the request has none or the cookie is not a UUID.
func (a *AssistantAPI) sessionKey(c *gin.Context) string {
	if raw, err := c.Cookie(a.cookie); err == nil {
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
	}
	key := uuid.NewString()
	c.SetCookie(a.cookie, key, 0, "/", "", false, true)
	return key
}
