package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"helpHub/internal/models"
)

type MessageRepository struct {
	DB *sql.DB
}

// CreateMessage appends a message to the conversation log. Messages are
// never updated or deleted by the core.
func (r *MessageRepository) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()

	query := `
        INSERT INTO messages (id, sender_id, receiver_id, request_id, content, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.SenderID, msg.ReceiverID, msg.RequestID, msg.Content, msg.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetConversation returns the messages between two users scoped to one
// request, both directions, oldest first.
func (r *MessageRepository) GetConversation(ctx context.Context, requestID, userA, userB int) ([]models.Message, error) {
	query := `
        SELECT m.id, m.sender_id, m.receiver_id, m.request_id, m.content, m.created_at,
               u.name, u.surname, u.avatar_path
        FROM messages m
        JOIN users u ON m.sender_id = u.id
        WHERE m.request_id = ?
          AND ((m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?))
        ORDER BY m.created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, requestID, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var sender models.User
		if err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.RequestID, &msg.Content, &msg.CreatedAt,
			&sender.Name, &sender.Surname, &sender.AvatarPath,
		); err != nil {
			return nil, err
		}
		sender.ID = msg.SenderID
		msg.Sender = &sender
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
