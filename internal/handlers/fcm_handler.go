package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"firebase.google.com/go/messaging"
)

// FCMHandler mirrors outbox notifications to registered device tokens and
// owns the token registry endpoints. It satisfies services.MobilePusher.
type FCMHandler struct {
	Client *messaging.Client
	DB     *sql.DB
}

type deviceToken struct {
	UserID int    `json:"user_id"`
	Token  string `json:"token"`
}

func NewFCMHandler(client *messaging.Client, db *sql.DB) *FCMHandler {
	return &FCMHandler{Client: client, DB: db}
}

// SendToUser fans a push out to every device the user has registered.
// A dead token is logged and skipped, not returned as a failure.
func (h *FCMHandler) SendToUser(ctx context.Context, userID int, title, body, link string) error {
	tokens, err := h.tokensForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if err := h.send(ctx, token, title, body, link); err != nil {
			log.Printf("fcm send to token %s: %v", token, err)
		}
	}
	return nil
}

func (h *FCMHandler) send(ctx context.Context, token, title, body, link string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"link": link,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}
	_, err := h.Client.Send(ctx, message)
	return err
}

func (h *FCMHandler) tokensForUser(ctx context.Context, userID int) ([]string, error) {
	rows, err := h.DB.QueryContext(ctx, `SELECT token FROM notify_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// RegisterToken stores a device token for the caller. Duplicate
// registrations replace nothing, the same token may appear once per user.
func (h *FCMHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body deviceToken
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	_, err := h.DB.ExecContext(r.Context(),
		`INSERT INTO notify_tokens (user_id, token) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE user_id = VALUES(user_id)`,
		userID, body.Token)
	if err != nil {
		log.Printf("RegisterToken error: %v", err)
		http.Error(w, "Failed to register token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *FCMHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	token := getParam(r, "token")
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	if _, err := h.DB.ExecContext(r.Context(), `DELETE FROM notify_tokens WHERE token = ?`, token); err != nil {
		log.Printf("DeleteToken error: %v", err)
		http.Error(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
