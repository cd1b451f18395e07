package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"helpHub/internal/models"
	"helpHub/internal/repositories"
	"helpHub/utils"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// AuthHandler rotates refresh-token sessions. Sign up and sign in live in
// the identity provider, this service only keeps sessions alive.
type AuthHandler struct {
	Tokens   *utils.Manager
	UserRepo *repositories.UserRepository
}

func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.Header.Get("Refresh-Token")
	if refreshToken == "" {
		http.Error(w, "Refresh token missing", http.StatusUnauthorized)
		return
	}

	session, err := h.UserRepo.GetSessionByToken(r.Context(), refreshToken)
	if err != nil || session == (models.Session{}) {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}
	if session.ExpiresAt.Before(time.Now()) {
		http.Error(w, "Expired refresh token", http.StatusUnauthorized)
		return
	}

	newRefresh, err := h.Tokens.NewRefreshToken()
	if err != nil {
		log.Printf("RefreshSession token mint error: %v", err)
		http.Error(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}
	rotated := models.Session{
		UserID:       session.UserID,
		RefreshToken: newRefresh,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	}
	if err := h.UserRepo.RotateSession(r.Context(), session.UserID, refreshToken, rotated); err != nil {
		// a concurrent refresh already rotated this token
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.Tokens.NewJWT(session.UserID, accessTokenTTL)
	if err != nil {
		log.Printf("RefreshSession jwt error: %v", err)
		http.Error(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"access_token":  accessToken,
		"refresh_token": newRefresh,
	})
}
