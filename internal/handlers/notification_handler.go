package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"helpHub/internal/models"
	"helpHub/internal/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.Service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("ListNotifications error: %v", err)
		http.Error(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.MarkRead(r.Context(), userID, &id); err != nil {
		log.Printf("MarkRead error: %v", err)
		http.Error(w, "Failed to mark notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// MarkAllRead flips every unread notification of the caller. Repeating the
// call is harmless.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Service.MarkRead(r.Context(), userID, nil); err != nil {
		log.Printf("MarkAllRead error: %v", err)
		http.Error(w, "Failed to mark notifications", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
