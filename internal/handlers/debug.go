package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/telemetry"
)

// RoomCounter reports live websocket subscribers per room.
type RoomCounter interface {
	Size(room string) int
}

// RegisterDebugRoutes wires operator-only endpoints scoped to a thread:
// emitting a test audit record for it and counting its live subscribers.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, rooms RoomCounter, enabled bool) {
	if !enabled {
		return
	}

	debug := router.Group("/debug/threads/:kind/:id")
	debug.POST("/audit", func(c *gin.Context) {
		ref, ok := threadParam(c)
		if !ok {
			return
		}
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitAudit(c, emitter, "debug audit record", ref.String())
		c.JSON(http.StatusOK, gin.H{"status": "ok", "subject": ref.String()})
	})
	debug.GET("/subscribers", func(c *gin.Context) {
		ref, ok := threadParam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"thread": ref, "subscribers": rooms.Size(ref.String())})
	})
}
