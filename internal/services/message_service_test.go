package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"helpHub/internal/models"
	"helpHub/internal/realtime"
)

type pushed struct {
	userID  int
	event   string
	payload interface{}
}

// fakePusher collects pushes on a channel because services dispatch them
// on their own goroutine.
type fakePusher struct {
	ch chan pushed
}

func newFakePusher() *fakePusher {
	return &fakePusher{ch: make(chan pushed, 8)}
}

func (f *fakePusher) Push(userID int, event string, payload interface{}) {
	f.ch <- pushed{userID: userID, event: event, payload: payload}
}

func (f *fakePusher) wait(t *testing.T) pushed {
	t.Helper()
	select {
	case p := <-f.ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no push arrived")
		return pushed{}
	}
}

type fakeMessageStore struct {
	messages []models.Message
	nextID   int
}

func (f *fakeMessageStore) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	f.nextID++
	msg.ID = "m-" + string(rune('0'+f.nextID))
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMessageStore) GetConversation(ctx context.Context, requestID, userA, userB int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.RequestID != requestID {
			continue
		}
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func matchedRequest() map[int]models.Request {
	helper := 20
	return map[int]models.Request{
		1: {ID: 1, CreatedBy: 10, Helper: &helper, Status: "in-progress", Title: "Move a couch"},
	}
}

func newMessageService(store *fakeMessageStore, requests map[int]models.Request, hub Pusher) *MessageService {
	return &MessageService{
		MessageRepo: store,
		RequestRepo: &fakeRequestGetter{requests: requests},
		UserRepo:    &fakeUserGetter{users: map[int]models.User{10: {ID: 10, Name: "Olzhas"}, 20: {ID: 20, Name: "Aset"}}},
		Hub:         hub,
	}
}

func TestSendMessageMissingFields(t *testing.T) {
	svc := newMessageService(&fakeMessageStore{}, matchedRequest(), nil)

	cases := []struct {
		receiver, request int
		content           string
	}{
		{0, 1, "hi"},
		{20, 0, "hi"},
		{20, 1, "   "},
	}
	for _, c := range cases {
		if _, err := svc.SendMessage(context.Background(), 10, c.receiver, c.request, c.content); !errors.Is(err, models.ErrMissingFields) {
			t.Fatalf("receiver=%d request=%d content=%q: expected ErrMissingFields, got %v", c.receiver, c.request, c.content, err)
		}
	}
}

func TestSendMessageRequestNotFound(t *testing.T) {
	svc := newMessageService(&fakeMessageStore{}, map[int]models.Request{}, nil)
	if _, err := svc.SendMessage(context.Background(), 10, 20, 404, "hi"); !errors.Is(err, models.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestSendMessageNoHelperYet(t *testing.T) {
	requests := map[int]models.Request{1: {ID: 1, CreatedBy: 10, Status: "open"}}
	svc := newMessageService(&fakeMessageStore{}, requests, nil)

	if _, err := svc.SendMessage(context.Background(), 10, 20, 1, "hi"); !errors.Is(err, models.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant before acceptance, got %v", err)
	}
}

func TestSendMessageOutsiderPair(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newMessageService(store, matchedRequest(), nil)

	// 30 is neither requester nor helper
	if _, err := svc.SendMessage(context.Background(), 30, 10, 1, "hi"); !errors.Is(err, models.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for outsider sender, got %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), 10, 30, 1, "hi"); !errors.Is(err, models.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for outsider receiver, got %v", err)
	}
	if len(store.messages) != 0 {
		t.Fatalf("nothing may be persisted on a gated send, got %d rows", len(store.messages))
	}
}

func TestSendMessagePersistsAndPushes(t *testing.T) {
	store := &fakeMessageStore{}
	hub := newFakePusher()
	svc := newMessageService(store, matchedRequest(), hub)

	msg, err := svc.SendMessage(context.Background(), 10, 20, 1, "thanks for the van")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message must get an id from the store")
	}
	if msg.Sender == nil || msg.Sender.Name != "Olzhas" {
		t.Fatalf("sender summary must be attached, got %+v", msg.Sender)
	}
	if len(store.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(store.messages))
	}

	p := hub.wait(t)
	if p.userID != 20 {
		t.Fatalf("push must target the receiver, got user %d", p.userID)
	}
	if p.event != realtime.EventReceiveMessage {
		t.Fatalf("unexpected event %q", p.event)
	}
	if got, ok := p.payload.(models.Message); !ok || got.Content != "thanks for the van" {
		t.Fatalf("unexpected payload %+v", p.payload)
	}
}

func TestSendMessageHelperToRequester(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newMessageService(store, matchedRequest(), nil)

	if _, err := svc.SendMessage(context.Background(), 20, 10, 1, "on my way"); err != nil {
		t.Fatalf("helper must be able to message the requester: %v", err)
	}
}

func TestGetConversationBothDirections(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newMessageService(store, matchedRequest(), nil)

	if _, err := svc.SendMessage(context.Background(), 10, 20, 1, "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage(context.Background(), 20, 10, 1, "hi back"); err != nil {
		t.Fatal(err)
	}

	msgs, err := svc.GetConversation(context.Background(), 1, 10, 20)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected both directions, got %d messages", len(msgs))
	}
}
