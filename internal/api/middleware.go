package api

import (
	"net/http"
	"strings"
	"time"

	"shareit/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerRequestID = "X-Request-Id"
	ctxRequestID    = "request_id"
)

// RequestID reuses an incoming X-Request-Id or assigns a new one, and echoes
// it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(headerRequestID, id)
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// AccessLog logs every finished request and records it in the HTTP metrics
// under the given service label.
func AccessLog(service string, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		status := c.Writer.Status()
		metrics.ObserveHTTP(service, c.Request.Method, route, status, dur)

		event := logger.Info()
		if status >= 500 {
			event = logger.Warn()
		}
		event.
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("duration", dur).
			Msg("http request")
	}
}

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(logger *zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("request_id", RequestIDFrom(c)).
			Str("route", c.FullPath()).
			Msg("handler panic")
		WriteError(c, http.StatusInternalServerError, internalErrorMessage)
	})
}
