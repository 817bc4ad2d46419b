package ws

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rental-service/internal/models"
	"rental-service/internal/observability"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// client owns the only writer goroutine of its connection, so a slow peer
// delays nobody but itself.
type client struct {
	conn *websocket.Conn
	info ConnInfo
	send chan []byte
	done chan struct{}
	once sync.Once
	drop sync.Once
}

func newClient(conn *websocket.Conn, info ConnInfo) *client {
	return &client{
		conn: conn,
		info: info,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false only when the buffer is full; a
// stopped client silently discards payload.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writeLoop(onError func(error)) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				onError(err)
				return
			}
		}
	}
}

// Hub maintains active websocket rooms. Thread rooms are keyed by
// ThreadRef.String(), per-user rooms by "user:<id>".
type Hub struct {
	rooms map[string]map[*websocket.Conn]*client
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]*client)}
}

// UserRoom names the room that carries a user's counters and rental updates.
func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// ThreadRoom names the room for a message thread.
func ThreadRoom(ref models.ThreadRef) string {
	return ref.String()
}

// AddClient registers a websocket connection in room and starts its writer.
func (h *Hub) AddClient(room string, conn *websocket.Conn, info ConnInfo) {
	info.Room = room
	c := newClient(conn, info)

	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*websocket.Conn]*client)
	}
	if previous, ok := h.rooms[room][conn]; ok {
		previous.stop()
	}
	h.rooms[room][conn] = c
	h.mu.Unlock()

	if conn != nil {
		go c.writeLoop(func(err error) { h.drop(c, err.Error()) })
	}
}

// RemoveClient removes a websocket connection from room and stops its writer.
func (h *Hub) RemoveClient(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	if c, ok := conns[conn]; ok {
		c.stop()
		delete(conns, conn)
	}
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

// drop closes a connection whose writer failed or fell behind. The read loop
// then observes the close and reports the disconnect.
func (h *Hub) drop(c *client, reason string) {
	c.drop.Do(func() { h.closeClient(c, reason) })
}

func (h *Hub) closeClient(c *client, reason string) {
	log.Printf("websocket drop room=%s conn_id=%s: %s", c.info.Room, c.info.ConnID, reason)
	c.stop()
	h.mu.Lock()
	if conns, ok := h.rooms[c.info.Room]; ok && conns[c.conn] == c {
		delete(conns, c.conn)
		if len(conns) == 0 {
			delete(h.rooms, c.info.Room)
		}
	}
	h.mu.Unlock()
	c.conn.Close()
	publishWSEvent(context.Background(), c.info, "ws_error", reason)
}

// Size reports how many connections are registered in room.
func (h *Hub) Size(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Deliver routes an event to the rooms that should observe it. New messages
// and read receipts go to the thread room; counters and rental updates go to
// the affected users.
func (h *Hub) Deliver(event models.ThreadEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket encode error: %v", err)
		return
	}

	switch event.Type {
	case models.EventMessageCreated, models.EventMessagesRead:
		if event.Thread != nil {
			h.Broadcast(ThreadRoom(*event.Thread), payload)
		}
	default:
		for _, userID := range event.UserIDs {
			h.Broadcast(UserRoom(userID), payload)
		}
	}
}

// Broadcast queues payload for every connection in room and returns without
// waiting on the network. Connections whose buffer is full are dropped.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(payload) && c.conn != nil {
			h.drop(c, "send buffer full")
		}
	}
}

func publishWSEvent(ctx context.Context, info ConnInfo, name, reason string) {
	kind := info.Kind()
	observability.IncWSEvent(kind, name)
	_ = observability.PublishEvent(ctx, "ws_events."+kind, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload:   info.payload(name, reason),
	})
}

func roomKind(room string) string {
	kind, _, _ := strings.Cut(room, ":")
	return kind
}
