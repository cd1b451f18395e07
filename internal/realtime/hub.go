package realtime

import (
	"log"
	"sync"
	"time"
)

const writeWait = 5 * time.Second

// Event names pushed to clients.
const (
	EventReceiveMessage      = "receiveMessage"
	EventReceiveNotification = "receiveNotification"
	EventAck                 = "ack"
)

// Envelope is the frame written to client connections.
type Envelope struct {
	Event string      `json:"event"`
	AckID string      `json:"ack_id,omitempty"`
	Data  interface{} `json:"data"`
}

// Conn is the subset of *websocket.Conn the hub needs; tests supply fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Hub is the session registry of the realtime gateway: it maps users to
// their live connections and pushes events to them. It is owned by the
// application, created at startup and closed at shutdown; there is no
// package-level registry. A user may hold several connections at once
// (multiple devices) and every one of them receives pushes.
type Hub struct {
	errorLog *log.Logger

	mu     sync.RWMutex
	conns  map[int]map[Conn]struct{}
	users  map[Conn]int
	locks  map[Conn]*sync.Mutex
	closed bool
}

func NewHub(errorLog *log.Logger) *Hub {
	return &Hub{
		errorLog: errorLog,
		conns:    make(map[int]map[Conn]struct{}),
		users:    make(map[Conn]int),
		locks:    make(map[Conn]*sync.Mutex),
	}
}

// Join associates a connection with a user. Other connections of the same
// user stay registered.
func (h *Hub) Join(userID int, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		_ = conn.Close()
		return
	}
	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	h.users[conn] = userID
	h.locks[conn] = &sync.Mutex{}
}

// Leave drops one connection. The user's other connections are untouched.
func (h *Hub) Leave(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(conn)
}

func (h *Hub) remove(conn Conn) {
	userID, ok := h.users[conn]
	if !ok {
		return
	}
	delete(h.users, conn)
	delete(h.locks, conn)
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	_ = conn.Close()
}

// UserFor resolves the identity a connection joined with.
func (h *Hub) UserFor(conn Conn) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userID, ok := h.users[conn]
	return userID, ok
}

// Connections reports how many live connections a user has.
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Push delivers an event to every live connection of the user. Delivery is
// best effort: an offline user is a no-op, a failing connection is dropped,
// and the caller never sees an error. The outbox and the message log stay
// the durable source of truth.
func (h *Hub) Push(userID int, event string, payload interface{}) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := h.writeConn(conn, Envelope{Event: event, Data: payload}); err != nil {
			if h.errorLog != nil {
				h.errorLog.Printf("push %s to user %d failed: %v", event, userID, err)
			}
			h.Leave(conn)
		}
	}
}

// Ack answers a client frame on its own connection.
func (h *Hub) Ack(conn Conn, ackID string, payload interface{}) {
	if err := h.writeConn(conn, Envelope{Event: EventAck, AckID: ackID, Data: payload}); err != nil {
		h.Leave(conn)
	}
}

func (h *Hub) writeConn(conn Conn, v interface{}) error {
	h.mu.RLock()
	mu := h.locks[conn]
	h.mu.RUnlock()
	if mu == nil {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()
	if d, ok := conn.(deadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeWait))
	}
	return conn.WriteJSON(v)
}

// Close tears the registry down and closes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.users {
		_ = conn.Close()
	}
	h.conns = make(map[int]map[Conn]struct{})
	h.users = make(map[Conn]int)
	h.locks = make(map[Conn]*sync.Mutex)
}
