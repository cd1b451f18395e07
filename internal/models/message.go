package models

import "time"

type Message struct {
	ID         string    `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	RequestID  int       `json:"request_id"`
	Content    string    `json:"content"`
	Sender     *User     `json:"sender,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
