package ws

import (
	"context"
	"net/http"
	"time"

	"rental-service/internal/models"
	"rental-service/internal/observability"
)

// ConnInfo describes one subscriber session: who is listening to which room,
// and from where. It is attached to every ws_events record for the session.
type ConnInfo struct {
	ConnID      string
	Room        string
	UserID      int64
	Admin       bool
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnInfo(ctx context.Context, r *http.Request, room string, actor models.Actor) ConnInfo {
	client := observability.ClientFromRequest(r)
	return ConnInfo{
		ConnID:      newConnID(),
		Room:        room,
		UserID:      actor.UserID,
		Admin:       actor.Admin,
		DeviceID:    client.DeviceID,
		IP:          client.IP,
		RequestID:   client.RequestID,
		TraceID:     traceIDFrom(ctx),
		ConnectedAt: time.Now(),
	}
}

// Kind is the room family: "conversation", "rental" or "user".
func (i ConnInfo) Kind() string {
	return roomKind(i.Room)
}

func (i ConnInfo) payload(event, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"room":        i.Room,
			"event":       event,
			"conn_id":     i.ConnID,
			"duration_ms": time.Since(i.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   i.UserID,
			"admin":     i.Admin,
			"device_id": i.DeviceID,
			"ip":        i.IP,
		},
	}
}
