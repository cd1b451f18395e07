package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"helpHub/internal/models"
	"helpHub/internal/services"
	"helpHub/utils"
)

type RequestHandler struct {
	Service *services.RequestService
}

// CreateRequest accepts a multipart form so the mobile client can attach
// photos in the same call. The "location" field carries a [lon, lat] JSON
// array, matching the order the nearby query uses.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	var in models.CreateRequestInput
	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.Category = r.FormValue("category")
	in.Urgency = r.FormValue("urgency")
	in.Address = r.FormValue("address")

	if loc := r.FormValue("location"); loc != "" {
		if err := json.Unmarshal([]byte(loc), &in.Coordinates); err != nil {
			http.Error(w, "Invalid location", http.StatusBadRequest)
			return
		}
	}
	if expires := r.FormValue("expires_at"); expires != "" {
		t, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			http.Error(w, "Invalid expires_at", http.StatusBadRequest)
			return
		}
		in.ExpiresAt = &t
	}

	if r.MultipartForm != nil {
		for _, fileHeader := range r.MultipartForm.File["images"] {
			file, err := fileHeader.Open()
			if err != nil {
				http.Error(w, "Failed to open file", http.StatusInternalServerError)
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				http.Error(w, "Failed to read file", http.StatusInternalServerError)
				return
			}

			filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), fileHeader.Filename)
			url, err := utils.UploadFileToS3(data, filename, "requests")
			if err != nil {
				log.Printf("upload image %s: %v", fileHeader.Filename, err)
				http.Error(w, "Failed to upload image", http.StatusInternalServerError)
				return
			}
			in.Images = append(in.Images, models.RequestImage{URL: url, Reference: filename})
		}
	}

	req, err := h.Service.CreateRequest(r.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			http.Error(w, "Missing required fields", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidCategory):
			http.Error(w, "Invalid category", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidUrgency):
			http.Error(w, "Invalid urgency", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidCoordinates):
			http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		default:
			log.Printf("CreateRequest error: %v", err)
			http.Error(w, "Failed to create request", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(req)
}

func (h *RequestHandler) GetNearbyRequests(w http.ResponseWriter, r *http.Request) {
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	if errLon != nil || errLat != nil {
		http.Error(w, "longitude and latitude are required", http.StatusBadRequest)
		return
	}

	var radiusKm float64
	if raw := r.URL.Query().Get("radius"); raw != "" {
		var err error
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid radius", http.StatusBadRequest)
			return
		}
	}
	category := r.URL.Query().Get("category")

	requests, err := h.Service.GetNearbyRequests(r.Context(), lon, lat, radiusKm, category)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCoordinates):
			http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidCategory):
			http.Error(w, "Invalid category", http.StatusBadRequest)
		default:
			log.Printf("GetNearbyRequests error: %v", err)
			http.Error(w, "Failed to get requests", http.StatusInternalServerError)
		}
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}
	json.NewEncoder(w).Encode(requests)
}

func (h *RequestHandler) GetActiveRequests(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	requests, err := h.Service.GetActiveRequests(r.Context(), category)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCategory) {
			http.Error(w, "Invalid category", http.StatusBadRequest)
			return
		}
		log.Printf("GetActiveRequests error: %v", err)
		http.Error(w, "Failed to get requests", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}
	json.NewEncoder(w).Encode(requests)
}

func (h *RequestHandler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	req, err := h.Service.GetRequestByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			http.Error(w, "Request not found", http.StatusNotFound)
			return
		}
		log.Printf("GetRequestByID error: %v", err)
		http.Error(w, "Failed to get request", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(req)
}

func (h *RequestHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	var patch models.RequestPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := h.Service.UpdateRequestStatus(r.Context(), id, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			http.Error(w, "Request not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Only the requester can update the request", http.StatusForbidden)
		case errors.Is(err, models.ErrInvalidStatus):
			http.Error(w, "Invalid status transition", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidUrgency):
			http.Error(w, "Invalid urgency", http.StatusBadRequest)
		default:
			log.Printf("UpdateRequest error: %v", err)
			http.Error(w, "Failed to update request", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(req)
}

func (h *RequestHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := getIntParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteRequest(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			http.Error(w, "Request not found", http.StatusNotFound)
		case errors.Is(err, models.ErrForbidden):
			http.Error(w, "Only the requester can delete the request", http.StatusForbidden)
		default:
			log.Printf("DeleteRequest error: %v", err)
			http.Error(w, "Failed to delete request", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}
