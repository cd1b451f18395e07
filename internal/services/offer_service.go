package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"helpHub/internal/lifecycle"
	"helpHub/internal/models"
)

type OfferStore interface {
	CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error)
	GetOfferByID(ctx context.Context, id int) (models.Offer, error)
	ListOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error)
	AcceptOffer(ctx context.Context, offerID int) (models.Offer, error)
	RejectOffer(ctx context.Context, offerID int) (models.Offer, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int, message, link string) (models.Notification, error)
}

// OfferService arbitrates offers on a help request: creation checks,
// accept/reject with atomic sibling rejection (inside the store), and the
// notifications both outcomes produce.
type OfferService struct {
	OfferRepo     OfferStore
	RequestRepo   RequestGetter
	UserRepo      UserGetter
	Notifications Notifier
	ErrorLog      *log.Logger
}

func (s *OfferService) CreateOffer(ctx context.Context, requestID, helperID int, message string) (models.Offer, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Offer{}, err
	}
	if helperID == req.CreatedBy {
		return models.Offer{}, models.ErrSelfOffer
	}
	// once a request leaves open it can never take another offer; the
	// store re-checks under lock to close the race with acceptance
	if req.Status != lifecycle.StatusOpen {
		return models.Offer{}, models.ErrRequestNotOpen
	}

	offer, err := s.OfferRepo.CreateOffer(ctx, models.Offer{
		RequestID: requestID,
		OfferedBy: helperID,
		Requester: req.CreatedBy,
		Message:   strings.TrimSpace(message),
	})
	if err != nil {
		return models.Offer{}, err
	}

	name := "Someone"
	if s.UserRepo != nil {
		if helper, err := s.UserRepo.GetUserSummary(ctx, helperID); err == nil {
			name = strings.TrimSpace(helper.Name + " " + helper.Surname)
		}
	}
	s.notify(ctx, req.CreatedBy,
		fmt.Sprintf("%s has offered to help with your request: %q", name, req.Title),
		fmt.Sprintf("/requests/%d", req.ID))

	return offer, nil
}

// ListOffers is readable by any authenticated user so prospective helpers
// can see existing competition.
func (s *OfferService) ListOffers(ctx context.Context, requestID int) ([]models.Offer, error) {
	if _, err := s.RequestRepo.GetRequestByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.OfferRepo.ListOffersByRequest(ctx, requestID)
}

func (s *OfferService) RespondToOffer(ctx context.Context, offerID, requesterID int, decision string) (models.Offer, error) {
	if decision != models.OfferAccepted && decision != models.OfferRejected {
		return models.Offer{}, models.ErrInvalidStatus
	}

	offer, err := s.OfferRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return models.Offer{}, err
	}
	if offer.Requester != requesterID {
		return models.Offer{}, models.ErrForbidden
	}

	title := ""
	if req, err := s.RequestRepo.GetRequestByID(ctx, offer.RequestID); err == nil {
		title = req.Title
	}
	link := fmt.Sprintf("/requests/%d", offer.RequestID)

	if decision == models.OfferAccepted {
		updated, err := s.OfferRepo.AcceptOffer(ctx, offerID)
		if err != nil {
			return models.Offer{}, err
		}
		s.notify(ctx, updated.OfferedBy, fmt.Sprintf("Your offer for %q has been accepted!", title), link)
		return updated, nil
	}

	updated, err := s.OfferRepo.RejectOffer(ctx, offerID)
	if err != nil {
		return models.Offer{}, err
	}
	s.notify(ctx, updated.OfferedBy, fmt.Sprintf("Your offer for %q was not accepted.", title), link)
	return updated, nil
}

// notify appends to the outbox after the arbitration outcome is already
// durable; a failed notification never rolls the decision back.
func (s *OfferService) notify(ctx context.Context, userID int, message, link string) {
	if s.Notifications == nil {
		return
	}
	if _, err := s.Notifications.Notify(ctx, userID, message, link); err != nil && s.ErrorLog != nil {
		s.ErrorLog.Printf("notify user %d failed: %v", userID, err)
	}
}
