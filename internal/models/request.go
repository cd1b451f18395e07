package models

import (
	"strings"
	"time"
)

const (
	CategoryGroceries = "groceries"
	CategoryRepairs   = "repairs"
	CategoryTools     = "tools"
	CategoryOther     = "other"

	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

type RequestImage struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

type Request struct {
	ID             int            `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Urgency        string         `json:"urgency"`
	Status         string         `json:"status"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Address        string         `json:"address"`
	Images         []RequestImage `json:"images"`
	CreatedBy      int            `json:"created_by"`
	Helper         *int           `json:"helper,omitempty"`
	Creator        *User          `json:"creator,omitempty"`
	HelperUser     *User          `json:"helper_user,omitempty"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	DistanceKm     *float64       `json:"distance_km,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

// CanExchange reports whether a and b may exchange messages for this
// request: a helper must be assigned and {a, b} must be exactly the
// creator/helper pair, in either order. Both the HTTP send path and the
// websocket send path go through this predicate.
func (r Request) CanExchange(a, b int) bool {
	if r.Helper == nil {
		return false
	}
	return (a == r.CreatedBy && b == *r.Helper) || (a == *r.Helper && b == r.CreatedBy)
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryGroceries, CategoryRepairs, CategoryTools, CategoryOther:
		return true
	}
	return false
}

func ValidUrgency(u string) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// ValidCoordinates checks a [longitude, latitude] pair.
func ValidCoordinates(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// CreateRequestInput carries the fields of a new help request. Location
// arrives as the raw "[longitude, latitude]" pair the clients send.
type CreateRequestInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Urgency     string         `json:"urgency"`
	Coordinates []float64      `json:"location"`
	Address     string         `json:"address"`
	Images      []RequestImage `json:"images"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
}

func (in CreateRequestInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.Address) == "" {
		return ErrMissingFields
	}
	if len(in.Coordinates) != 2 || !ValidCoordinates(in.Coordinates[0], in.Coordinates[1]) {
		return ErrInvalidCoordinates
	}
	if !ValidCategory(in.Category) {
		return ErrInvalidCategory
	}
	if in.Urgency != "" && !ValidUrgency(in.Urgency) {
		return ErrInvalidUrgency
	}
	return nil
}

// RequestPatch is the owner-supplied partial update.
type RequestPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Urgency     *string `json:"urgency,omitempty"`
	Status      *string `json:"status,omitempty"`
}
