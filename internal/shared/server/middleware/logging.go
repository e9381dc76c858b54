package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contracts-backend/internal/shared/metrics"
	"contracts-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request and records its duration.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)
		durationMs := float64(latency.Microseconds()) / 1000.0

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequestMs(c.Request.Method, route, strconv.Itoa(status), durationMs)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get("isGuest")
		documentID, _ := c.Get("documentId")
		statusTransition := ""
		if raw, ok := c.Get("statusTransition"); ok {
			if s, ok := raw.(string); ok {
				statusTransition = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             route,
			"status":            status,
			"status_transition": statusTransition,
			"duration_ms":       durationMs,
			"user_id":           userID,
			"document_id":       documentID,
			"is_guest":          isGuest,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
