package models

import (
	"time"
)

const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
)

// Offer is a helper's bid on a request. Requester is the request creator,
// denormalized at offer time so the accept/reject permission check does
// not depend on the request row.
type Offer struct {
	ID        int        `json:"id"`
	RequestID int        `json:"request_id"`
	OfferedBy int        `json:"offered_by"`
	Requester int        `json:"requester"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Helper    *User      `json:"helper,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
