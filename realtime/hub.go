package realtime

import (
	"fmt"
	"sync"
)

// Event is what subscribers receive on a broadcast.
type Event struct {
	Room    string      `json:"room"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Room key helpers, convention "<scope>:<id>".
func OrderRoom(orderID uint) string { return fmt.Sprintf("order:%d", orderID) }
func CityRoom(city string) string   { return "city:" + city }

type conn struct {
	ch    chan Event
	rooms map[string]bool
}

// Hub maps connections to logical rooms and fans events out only to the
// subscribers of the relevant room. Bookkeeping is a short-held mutex;
// delivery is a non-blocking channel send so one slow consumer cannot
// stall a broadcast.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*conn
	rooms   map[string]map[string]*conn // room key -> conn id -> conn
	onDrop  func()
	bufSize int
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[string]*conn),
		rooms:   make(map[string]map[string]*conn),
		bufSize: 16,
	}
}

// OnDrop installs a hook invoked when a full subscriber buffer forces an
// event to be skipped.
func (h *Hub) OnDrop(fn func()) { h.onDrop = fn }

// Register adds a connection and returns its event channel. The channel
// is closed by Unregister.
func (h *Hub) Register(connID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &conn{ch: make(chan Event, h.bufSize), rooms: make(map[string]bool)}
	h.conns[connID] = c
	return c.ch
}

// Unregister leaves every room and closes the connection's channel.
// Safe to call more than once.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	for room := range c.rooms {
		h.removeLocked(connID, room)
	}
	delete(h.conns, connID)
	close(c.ch)
}

func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	c.rooms[room] = true
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*conn)
	}
	h.rooms[room][connID] = c
}

func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(c.rooms, room)
	h.removeLocked(connID, room)
}

// LeaveAll drops every subscription but keeps the connection registered.
func (h *Hub) LeaveAll(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	for room := range c.rooms {
		h.removeLocked(connID, room)
	}
	c.rooms = make(map[string]bool)
}

func (h *Hub) removeLocked(connID, room string) {
	if subs, ok := h.rooms[room]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast delivers the event to every connection subscribed to the
// room at call time. Connections joining afterwards do not receive it;
// there is no replay. Full buffers are skipped, not waited on.
//
// The read lock is held across the sends: Unregister closes channels
// under the write lock, so a concurrent disconnect cannot close a
// channel between the membership read and the send.
func (h *Hub) Broadcast(room string, ev Event) {
	ev.Room = room

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[room] {
		select {
		case c.ch <- ev:
		default:
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}

// RoomSize reports the current subscriber count, used by tests and the
// admin overview.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
