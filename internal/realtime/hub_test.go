package realtime

import (
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []Envelope
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, v.(Envelope))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, len(f.written))
	copy(out, f.written)
	return out
}

func TestPushReachesAllConnectionsOfUser(t *testing.T) {
	hub := NewHub(nil)
	phone := &fakeConn{}
	laptop := &fakeConn{}
	hub.Join(7, phone)
	hub.Join(7, laptop)

	hub.Push(7, EventReceiveNotification, "hello")

	for _, conn := range []*fakeConn{phone, laptop} {
		events := conn.events()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].Event != EventReceiveNotification || events[0].Data != "hello" {
			t.Fatalf("unexpected envelope %+v", events[0])
		}
	}
}

func TestPushToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub(nil)
	// must not panic or error
	hub.Push(42, EventReceiveMessage, "anyone there")
}

func TestLeaveKeepsOtherConnections(t *testing.T) {
	hub := NewHub(nil)
	phone := &fakeConn{}
	laptop := &fakeConn{}
	hub.Join(7, phone)
	hub.Join(7, laptop)

	hub.Leave(phone)

	if !phone.closed {
		t.Fatal("left connection must be closed")
	}
	if hub.Connections(7) != 1 {
		t.Fatalf("expected 1 remaining connection, got %d", hub.Connections(7))
	}

	hub.Push(7, EventReceiveMessage, "still here")
	if len(laptop.events()) != 1 {
		t.Fatal("remaining connection must still receive pushes")
	}
	if len(phone.events()) != 0 {
		t.Fatal("removed connection must not receive pushes")
	}
}

func TestFailingConnectionIsDropped(t *testing.T) {
	hub := NewHub(nil)
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	hub.Join(7, broken)

	hub.Push(7, EventReceiveMessage, "x")

	if hub.Connections(7) != 0 {
		t.Fatal("failing connection must be unregistered")
	}
	if !broken.closed {
		t.Fatal("failing connection must be closed")
	}
}

func TestUserFor(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	if _, ok := hub.UserFor(conn); ok {
		t.Fatal("unjoined connection must not resolve")
	}
	hub.Join(9, conn)
	userID, ok := hub.UserFor(conn)
	if !ok || userID != 9 {
		t.Fatalf("expected user 9, got %d ok=%v", userID, ok)
	}
}

func TestCloseShutsEverything(t *testing.T) {
	hub := NewHub(nil)
	conn := &fakeConn{}
	hub.Join(7, conn)

	hub.Close()

	if !conn.closed {
		t.Fatal("close must close registered connections")
	}
	if hub.Connections(7) != 0 {
		t.Fatal("registry must be empty after close")
	}

	late := &fakeConn{}
	hub.Join(8, late)
	if !late.closed {
		t.Fatal("joins after close must be refused")
	}
}
