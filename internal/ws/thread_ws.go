package ws

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"rental-service/internal/identity"
	"rental-service/internal/models"
	"rental-service/internal/observability"
)

// ThreadLoader resolves a thread reference to its participants.
type ThreadLoader interface {
	Thread(ctx context.Context, ref models.ThreadRef) (models.Thread, error)
}

// ThreadWebSocketHandler serves live thread and per-user event streams.
type ThreadWebSocketHandler struct {
	hub      *Hub
	threads  ThreadLoader
	identity identity.Provider
}

// NewThreadWebSocketHandler constructs a ThreadWebSocketHandler.
func NewThreadWebSocketHandler(hub *Hub, threads ThreadLoader, provider identity.Provider) *ThreadWebSocketHandler {
	return &ThreadWebSocketHandler{hub: hub, threads: threads, identity: provider}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleThread subscribes a participant to /ws/threads/:kind/:id.
func (h *ThreadWebSocketHandler) HandleThread(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	ref, err := models.ParseThreadRef(c.Param("kind"), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := otel.Tracer("rental-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := h.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	thread, err := h.threads.Thread(ctx, ref)
	if err != nil || !thread.IsParty(actor.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for thread"})
		return
	}

	h.serve(c, ThreadRoom(ref), actor)
}

// HandleUser subscribes the caller to their own counters and rental updates.
func (h *ThreadWebSocketHandler) HandleUser(c *gin.Context) {
	ctx, span := otel.Tracer("rental-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	actor, ok := h.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.serve(c, UserRoom(actor.UserID), actor)
}

func (h *ThreadWebSocketHandler) serve(c *gin.Context, room string, actor models.Actor) {
	ctx := c.Request.Context()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := newConnInfo(ctx, c.Request, room, actor)
	kind := info.Kind()
	h.hub.AddClient(room, conn, info)
	observability.IncWSActive(kind)
	publishWSEvent(ctx, info, "ws_connect", "")

	// Clients only send control frames; reading drives close detection.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(room, conn)
			observability.DecWSActive(kind)
			publishWSEvent(context.Background(), info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					publishWSEvent(context.Background(), info, "ws_error", closeReason)
				}
				return
			}
		}
	}()
}

// authenticate accepts the Authorization header or a token query parameter,
// since browsers cannot set headers on websocket upgrades.
func (h *ThreadWebSocketHandler) authenticate(c *gin.Context) (models.Actor, bool) {
	token, ok := identity.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		return models.Actor{}, false
	}
	actor, err := h.identity.Authenticate(c.Request.Context(), token)
	if err != nil {
		return models.Actor{}, false
	}
	return actor, true
}
