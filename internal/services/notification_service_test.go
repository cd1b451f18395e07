package services

import (
	"context"
	"testing"

	"helpHub/internal/models"
	"helpHub/internal/realtime"
)

type fakeNotificationStore struct {
	rows         map[int]models.Notification
	nextID       int
	markAllCalls int
}

func (f *fakeNotificationStore) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	f.nextID++
	n.ID = f.nextID
	if f.rows == nil {
		f.rows = make(map[int]models.Notification)
	}
	f.rows[n.ID] = n
	return n, nil
}

func (f *fakeNotificationStore) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, userID, notificationID int) error {
	n, ok := f.rows[notificationID]
	if !ok || n.UserID != userID {
		return nil
	}
	n.IsRead = true
	f.rows[notificationID] = n
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, userID int) error {
	f.markAllCalls++
	for id, n := range f.rows {
		if n.UserID == userID {
			n.IsRead = true
			f.rows[id] = n
		}
	}
	return nil
}

func TestNotifyStoresThenPushes(t *testing.T) {
	store := &fakeNotificationStore{}
	hub := newFakePusher()
	svc := &NotificationService{NotificationRepo: store, Hub: hub}

	n, err := svc.Notify(context.Background(), 10, "Aset has offered to help with your request: \"Move a couch\"", "/requests/1")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("notification must be persisted before delivery")
	}
	if n.IsRead {
		t.Fatal("new notifications start unread")
	}

	p := hub.wait(t)
	if p.userID != 10 || p.event != realtime.EventReceiveNotification {
		t.Fatalf("unexpected push %+v", p)
	}
	if got, ok := p.payload.(models.Notification); !ok || got.ID != n.ID {
		t.Fatalf("push payload must be the stored row, got %+v", p.payload)
	}
}

func TestNotifyWithoutHub(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := &NotificationService{NotificationRepo: store}

	if _, err := svc.Notify(context.Background(), 10, "hello", "/requests/1"); err != nil {
		t.Fatalf("Notify without a hub must still store: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(store.rows))
	}
}

func TestMarkReadSingle(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := &NotificationService{NotificationRepo: store}

	n, _ := svc.Notify(context.Background(), 10, "hello", "/requests/1")
	other, _ := svc.Notify(context.Background(), 10, "world", "/requests/2")

	if err := svc.MarkRead(context.Background(), 10, &n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !store.rows[n.ID].IsRead {
		t.Fatal("targeted notification must be read")
	}
	if store.rows[other.ID].IsRead {
		t.Fatal("other notifications stay unread")
	}
}

func TestMarkReadWrongUserIsNoop(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := &NotificationService{NotificationRepo: store}

	n, _ := svc.Notify(context.Background(), 10, "hello", "/requests/1")
	if err := svc.MarkRead(context.Background(), 99, &n.ID); err != nil {
		t.Fatalf("MarkRead for a foreign user must not error: %v", err)
	}
	if store.rows[n.ID].IsRead {
		t.Fatal("foreign user must not flip the read flag")
	}
}

func TestMarkReadAllIdempotent(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := &NotificationService{NotificationRepo: store}

	svc.Notify(context.Background(), 10, "a", "/requests/1")
	svc.Notify(context.Background(), 10, "b", "/requests/2")

	if err := svc.MarkRead(context.Background(), 10, nil); err != nil {
		t.Fatalf("MarkRead all: %v", err)
	}
	if err := svc.MarkRead(context.Background(), 10, nil); err != nil {
		t.Fatalf("second MarkRead all must stay a no-op: %v", err)
	}
	for id, n := range store.rows {
		if !n.IsRead {
			t.Fatalf("notification %d still unread", id)
		}
	}
	if store.markAllCalls != 2 {
		t.Fatalf("expected 2 MarkAllRead calls, got %d", store.markAllCalls)
	}
}
