package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"helpHub/internal/models"
	"helpHub/internal/services"
)

type MessageHandler struct {
	Service *services.MessageService
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ReceiverID int    `json:"receiver_id"`
		RequestID  int    `json:"request_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), userID, body.ReceiverID, body.RequestID, body.Content)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			http.Error(w, "receiver_id, request_id and content are required", http.StatusBadRequest)
		case errors.Is(err, models.ErrRequestNotFound):
			http.Error(w, "Request not found", http.StatusNotFound)
		case errors.Is(err, models.ErrNotParticipant):
			http.Error(w, "Messaging is only open between the requester and the accepted helper", http.StatusForbidden)
		default:
			log.Printf("SendMessage error: %v", err)
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// GetConversation returns the caller's exchange with other_user_id scoped
// to one request, oldest first.
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	requestID, err := getIntParam(r, "requestId")
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}
	otherID, err := strconv.Atoi(r.URL.Query().Get("other_user_id"))
	if err != nil {
		http.Error(w, "other_user_id is required", http.StatusBadRequest)
		return
	}

	messages, err := h.Service.GetConversation(r.Context(), requestID, userID, otherID)
	if err != nil {
		log.Printf("GetConversation error: %v", err)
		http.Error(w, "Failed to get messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}
