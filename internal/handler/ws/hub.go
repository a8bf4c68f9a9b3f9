// Package ws provides the realtime chat surface: a room hub where
// clients join per-chat rooms and AI turns are processed off the read
// loop.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks connected clients by room and fans events out to them.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*client]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, c)
	delete(c.rooms, room)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *client) {
	for room := range c.rooms {
		h.removeLocked(room, c)
	}
	c.rooms = make(map[string]struct{})
}

func (h *Hub) removeLocked(room string, c *client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends an event to every client in the room. A client whose
// send buffer is full is unregistered from every room before its queue
// is closed, so later broadcasts never touch a closed channel.
func (h *Hub) Broadcast(room string, event outgoingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[room] {
		if !c.trySend(event) {
			h.unregisterLocked(c)
			c.close()
		}
	}
}

// client is one websocket connection with its outbound queue.
type client struct {
	conn   *websocket.Conn
	send   chan outgoingEvent
	rooms  map[string]struct{}
	userID string
	role   string

	closeMu sync.Mutex
	closed  bool
}

func newClient(conn *websocket.Conn, userID, role string) *client {
	return &client{
		conn:   conn,
		send:   make(chan outgoingEvent, 16),
		rooms:  make(map[string]struct{}),
		userID: userID,
		role:   role,
	}
}

// trySend queues an event without blocking. It reports false when the
// buffer is full or the queue is already closed.
func (c *client) trySend(event outgoingEvent) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send queue onto the connection. It owns all
// writes; the read loop never writes directly.
func (c *client) writePump() {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}
