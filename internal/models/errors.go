package models

import (
	"errors"
)

// Closed error set for the help-request core. Handlers and the realtime
// layer match these with errors.Is; no string inspection anywhere.
var (
	ErrNoRecord = errors.New("models: no matching record found")

	// validation
	ErrMissingFields      = errors.New("models: required field missing")
	ErrInvalidCoordinates = errors.New("models: coordinates must be a [longitude, latitude] pair")
	ErrInvalidCategory    = errors.New("models: unknown category")
	ErrInvalidUrgency     = errors.New("models: unknown urgency")
	ErrInvalidStatus      = errors.New("models: unknown status")

	// not found
	ErrRequestNotFound      = errors.New("models: request not found")
	ErrOfferNotFound        = errors.New("models: offer not found")
	ErrUserNotFound         = errors.New("models: user not found")
	ErrNotificationNotFound = errors.New("models: notification not found")

	// forbidden
	ErrForbidden      = errors.New("models: caller is not allowed to perform this operation")
	ErrSelfOffer      = errors.New("models: cannot make an offer on own request")
	ErrNotParticipant = errors.New("models: sender and receiver are not the request participants")

	// conflict
	ErrAlreadyOffered      = errors.New("models: user already has an offer on this request")
	ErrOfferAlreadyDecided = errors.New("models: offer has already been accepted or rejected")
	ErrRequestNotOpen      = errors.New("models: request is no longer open")

	// downstream
	ErrUnavailable = errors.New("models: downstream service unavailable")
)
