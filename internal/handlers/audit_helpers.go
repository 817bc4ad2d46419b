package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rental-service/internal/middleware"
	"rental-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if actor, ok := middleware.ActorFrom(c); ok {
		value := actor.UserID
		return &value
	}

	if header := c.GetHeader("X-User-ID"); header != "" {
		if parsed, err := strconv.ParseInt(header, 10, 64); err == nil {
			return &parsed
		}
	}

	return nil
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, text, subject string) {
	emitter.Emit(c.Request.Context(), telemetry.Record{
		Level:     telemetry.LevelInfo,
		Text:      text,
		Subject:   subject,
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
	})
}
