package services

import (
	"context"
	"strings"

	"helpHub/internal/models"
	"helpHub/internal/realtime"
)

type MessageStore interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetConversation(ctx context.Context, requestID, userA, userB int) ([]models.Message, error)
}

type RequestGetter interface {
	GetRequestByID(ctx context.Context, id int) (models.Request, error)
}

type UserGetter interface {
	GetUserSummary(ctx context.Context, id int) (models.User, error)
}

// MessageService is the single write path into the conversation log; the
// HTTP handler and the websocket gateway both go through SendMessage, so
// the CanExchange gate cannot diverge between transports.
type MessageService struct {
	MessageRepo MessageStore
	RequestRepo RequestGetter
	UserRepo    UserGetter
	Hub         Pusher
}

func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID, requestID int, content string) (models.Message, error) {
	if receiverID == 0 || requestID == 0 || strings.TrimSpace(content) == "" {
		return models.Message{}, models.ErrMissingFields
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Message{}, err
	}
	if !req.CanExchange(senderID, receiverID) {
		return models.Message{}, models.ErrNotParticipant
	}

	msg, err := s.MessageRepo.CreateMessage(ctx, models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		RequestID:  requestID,
		Content:    content,
	})
	if err != nil {
		return models.Message{}, err
	}

	if s.UserRepo != nil {
		if sender, err := s.UserRepo.GetUserSummary(ctx, senderID); err == nil {
			msg.Sender = &sender
		}
	}

	// live delivery never holds up the durable write
	if s.Hub != nil {
		go s.Hub.Push(receiverID, realtime.EventReceiveMessage, msg)
	}
	return msg, nil
}

// GetConversation returns both directions of the pair's exchange for one
// request, oldest first. The route layer asserts the caller is one of the
// two users.
func (s *MessageService) GetConversation(ctx context.Context, requestID, userA, userB int) ([]models.Message, error) {
	return s.MessageRepo.GetConversation(ctx, requestID, userA, userB)
}
