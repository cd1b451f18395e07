package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"helpHub/internal/models"
	"helpHub/internal/services"
)

type OfferHandler struct {
	Service *services.OfferService
}

func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
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

	var body struct {
		Message string `json:"message"`
	}
	if r.Body != nil {
		// message is optional, an empty body is fine
		json.NewDecoder(r.Body).Decode(&body)
	}

	offer, err := h.Service.CreateOffer(r.Context(), requestID, userID, body.Message)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			http.Error(w, "Request not found", http.StatusNotFound)
		case errors.Is(err, models.ErrSelfOffer):
			http.Error(w, "You cannot offer help on your own request", http.StatusBadRequest)
		case errors.Is(err, models.ErrAlreadyOffered):
			http.Error(w, "You have already offered help on this request", http.StatusConflict)
		case errors.Is(err, models.ErrRequestNotOpen):
			http.Error(w, "Request is no longer open", http.StatusConflict)
		default:
			log.Printf("CreateOffer error: %v", err)
			http.Error(w, "Failed to create offer", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(offer)
}

func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIntParam(r, "requestId")
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	offers, err := h.Service.ListOffers(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			http.Error(w, "Request not found", http.StatusNotFound)
			return
		}
		log.Printf("ListOffers error: %v", err)
		http.Error(w, "Failed to get offers", http.StatusInternalServerError)
		return
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	json.NewEncoder(w).Encode(offers)
}

// RespondToOffer carries the requester's accept or reject decision in the
// body as {"status": "accepted"} or {"status": "rejected"}.
func (h *OfferHandler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	offerID, err := getIntParam(r, "offerId")
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	offer, err := h.Service.RespondToOffer(r.Context(), offerID, userID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOfferNotFound):
			http.Error(w, "Offer not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Only the requester can respond to offers", http.StatusForbidden)
		case errors.Is(err, models.ErrInvalidStatus):
			http.Error(w, "Status must be accepted or rejected", http.StatusBadRequest)
		case errors.Is(err, models.ErrOfferAlreadyDecided):
			http.Error(w, "Offer has already been decided", http.StatusConflict)
		case errors.Is(err, models.ErrRequestNotOpen):
			http.Error(w, "Request is no longer open", http.StatusConflict)
		default:
			log.Printf("RespondToOffer error: %v", err)
			http.Error(w, "Failed to respond to offer", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(offer)
}
