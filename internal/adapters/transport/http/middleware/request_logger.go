package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	reasonKey       = "reason"
)

// RequestID reuses an incoming X-Request-ID or assigns a fresh one and
// echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// SetReason attaches the validation verdict to the completed request line.
func SetReason(c *gin.Context, reason string) {
	c.Set(reasonKey, reason)
}

// RequestLogger пишет метаданные запроса. Тело не логируется никогда:
// там init data, а заголовки с токенами и куками вычищаются.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqHeaders, _ := json.Marshal(scrub(c.Request.Header))
		log.Debug("↘︎ incoming request",
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("origin", c.GetHeader("Origin")),
			zap.ByteString("hdr", reqHeaders),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		// CORS или другой middleware прервал цепочку
		if c.IsAborted() {
			log.Warn("↗︎ aborted",
				zap.String("request_id", RequestIDFrom(c)),
				zap.Int("status", respStatus),
				zap.Duration("latency", latency),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			return
		}

		for _, e := range c.Errors {
			log.Error("handler error",
				zap.String("request_id", RequestIDFrom(c)),
				zap.Int("status", respStatus),
				zap.Error(e.Err),
				zap.String("path", c.Request.URL.Path),
			)
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		}
		if reason := c.GetString(reasonKey); reason != "" {
			fields = append(fields, zap.String("reason", reason))
		}
		log.Info("↗︎ completed", fields...)
	}
}

func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}
