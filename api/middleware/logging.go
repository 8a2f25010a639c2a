// ABOUTME: Request logging middleware for the admin API
// ABOUTME: Assigns request ids and logs status and timing for every request

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsfeed-canon/core/interfaces"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin context key holding the request id
	RequestIDKey = "request_id"

	maxRequestIDLength = 64
	slowRequest        = 5 * time.Second
)

// RequestLogging creates a middleware that logs all requests.
// An inbound X-Request-ID is kept when it is short enough, otherwise a new one is generated.
func RequestLogging(logger interfaces.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		fields := map[string]interface{}{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        path,
			"status":      status,
			"remote_ip":   c.ClientIP(),
			"duration_ms": duration.Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed with server error", fields)
		case duration > slowRequest:
			logger.Warn("Slow request detected", fields)
		default:
			logger.Info("Request completed", fields)
		}
	}
}

// GetRequestID returns the request id assigned by RequestLogging
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
