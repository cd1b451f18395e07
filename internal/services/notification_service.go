package services

import (
	"context"
	"log"

	"helpHub/internal/models"
	"helpHub/internal/realtime"
)

type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

// Pusher is the realtime gateway seen from the services: best-effort
// delivery, never an error.
type Pusher interface {
	Push(userID int, event string, payload interface{})
}

// MobilePusher mirrors outbox entries to registered device tokens (FCM).
type MobilePusher interface {
	SendToUser(ctx context.Context, userID int, title, body, link string) error
}

// NotificationService owns the durable outbox. Live delivery over the hub
// and FCM happens off the write path; the stored row is the source of
// truth a client reconciles against on reconnect.
type NotificationService struct {
	NotificationRepo NotificationStore
	Hub              Pusher
	FCM              MobilePusher
	ErrorLog         *log.Logger
}

func (s *NotificationService) Notify(ctx context.Context, userID int, message, link string) (models.Notification, error) {
	n, err := s.NotificationRepo.CreateNotification(ctx, models.Notification{UserID: userID, Message: message, Link: link})
	if err != nil {
		return models.Notification{}, err
	}

	if s.Hub != nil {
		go s.Hub.Push(userID, realtime.EventReceiveNotification, n)
	}
	if s.FCM != nil {
		go func() {
			if err := s.FCM.SendToUser(context.Background(), userID, "helpHub", message, link); err != nil && s.ErrorLog != nil {
				s.ErrorLog.Printf("fcm push to user %d failed: %v", userID, err)
			}
		}()
	}
	return n, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	return s.NotificationRepo.ListForUser(ctx, userID)
}

// MarkRead marks one notification read when an id is given, otherwise all
// of the user's unread ones. Both forms are idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, userID int, notificationID *int) error {
	if notificationID != nil {
		return s.NotificationRepo.MarkRead(ctx, userID, *notificationID)
	}
	return s.NotificationRepo.MarkAllRead(ctx, userID)
}
