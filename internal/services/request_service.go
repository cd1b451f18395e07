package services

import (
	"context"
	"log"
	"time"

	"helpHub/internal/lifecycle"
	"helpHub/internal/models"
	"helpHub/internal/repositories"
)

const defaultNearbyRadiusKm = 10

// geoIndexFetchLimit asks the geo index for more ids than the page size
// because status/category filtering happens afterwards in SQL.
const geoIndexFetchLimit = 4 * repositories.NearbyPageSize

// RequestStore is the persistence surface of the request lifecycle.
type RequestStore interface {
	CreateRequest(ctx context.Context, req models.Request) (models.Request, error)
	GetRequestByID(ctx context.Context, id int) (models.Request, error)
	GetActiveRequests(ctx context.Context, category string) ([]models.Request, error)
	GetNearbyRequests(ctx context.Context, lon, lat, radiusKm float64, category string) ([]models.Request, error)
	GetRequestsByIDs(ctx context.Context, ids []int, category string) ([]models.Request, error)
	UpdateRequest(ctx context.Context, id int, fromStatus string, patch models.RequestPatch) error
	DeleteRequest(ctx context.Context, id int) error
	MarkExpired(ctx context.Context, id int) error
	ExpireOverdue(ctx context.Context, now time.Time) ([]int, error)
}

// GeoIndexer is the secondary coordinate index; entries must be removed
// whenever a request leaves the active statuses.
type GeoIndexer interface {
	Add(ctx context.Context, requestID int, lon, lat float64) error
	Remove(ctx context.Context, requestID int) error
	Nearby(ctx context.Context, lon, lat, radiusKm float64, limit int) ([]int, map[int]float64, error)
}

type RequestService struct {
	RequestRepo RequestStore
	Geo         GeoIndexer
	ErrorLog    *log.Logger
}

func (s *RequestService) CreateRequest(ctx context.Context, creatorID int, in models.CreateRequestInput) (models.Request, error) {
	if err := in.Validate(); err != nil {
		return models.Request{}, err
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}

	req, err := s.RequestRepo.CreateRequest(ctx, models.Request{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Urgency:     urgency,
		Longitude:   in.Coordinates[0],
		Latitude:    in.Coordinates[1],
		Address:     in.Address,
		Images:      in.Images,
		CreatedBy:   creatorID,
		ExpiresAt:   in.ExpiresAt,
	})
	if err != nil {
		return models.Request{}, err
	}

	// index entry is best effort, the table is the source of truth
	if s.Geo != nil {
		if err := s.Geo.Add(ctx, req.ID, req.Longitude, req.Latitude); err != nil && s.ErrorLog != nil {
			s.ErrorLog.Printf("geo index add request %d failed: %v", req.ID, err)
		}
	}
	return req, nil
}

// GetNearbyRequests returns open and in-progress requests around a point,
// newest first, capped at the page size. In-progress rows stay visible so
// the involved parties keep seeing the request after acceptance.
func (s *RequestService) GetNearbyRequests(ctx context.Context, lon, lat, radiusKm float64, category string) ([]models.Request, error) {
	if !models.ValidCoordinates(lon, lat) {
		return nil, models.ErrInvalidCoordinates
	}
	if category != "" && !models.ValidCategory(category) {
		return nil, models.ErrInvalidCategory
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}

	if s.Geo != nil {
		ids, dists, err := s.Geo.Nearby(ctx, lon, lat, radiusKm, geoIndexFetchLimit)
		if err == nil {
			requests, err := s.RequestRepo.GetRequestsByIDs(ctx, ids, category)
			if err != nil {
				return nil, err
			}
			for i := range requests {
				if d, ok := dists[requests[i].ID]; ok {
					dist := d
					requests[i].DistanceKm = &dist
				}
			}
			return requests, nil
		}
		if s.ErrorLog != nil {
			s.ErrorLog.Printf("geo index nearby failed, falling back to table scan: %v", err)
		}
	}

	return s.RequestRepo.GetNearbyRequests(ctx, lon, lat, radiusKm, category)
}

// GetActiveRequests lists open and in-progress requests without a
// location filter, for clients that browse instead of searching nearby.
func (s *RequestService) GetActiveRequests(ctx context.Context, category string) ([]models.Request, error) {
	if category != "" && !models.ValidCategory(category) {
		return nil, models.ErrInvalidCategory
	}
	return s.RequestRepo.GetActiveRequests(ctx, category)
}

// GetRequestByID also runs the lazy expiry check: an overdue open request
// is transitioned on read so callers never see a stale "open".
func (s *RequestService) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}

	if req.Status == lifecycle.StatusOpen && req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		if err := s.RequestRepo.MarkExpired(ctx, id); err != nil {
			return models.Request{}, err
		}
		req.Status = lifecycle.StatusExpired
		if s.Geo != nil {
			if err := s.Geo.Remove(ctx, id); err != nil && s.ErrorLog != nil {
				s.ErrorLog.Printf("geo index remove request %d failed: %v", id, err)
			}
		}
	}
	return req, nil
}

func (s *RequestService) UpdateRequestStatus(ctx context.Context, id, callerID int, patch models.RequestPatch) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.CreatedBy != callerID {
		return models.Request{}, models.ErrForbidden
	}

	if patch.Urgency != nil && !models.ValidUrgency(*patch.Urgency) {
		return models.Request{}, models.ErrInvalidUrgency
	}
	if patch.Status != nil {
		if !lifecycle.Valid(*patch.Status) {
			return models.Request{}, models.ErrInvalidStatus
		}
		// in-progress is only ever reached through offer acceptance
		if *patch.Status == lifecycle.StatusInProgress {
			return models.Request{}, models.ErrInvalidStatus
		}
		if !lifecycle.CanTransition(req.Status, *patch.Status) {
			return models.Request{}, models.ErrInvalidStatus
		}
	}

	if err := s.RequestRepo.UpdateRequest(ctx, id, req.Status, patch); err != nil {
		return models.Request{}, err
	}

	if patch.Status != nil && s.Geo != nil {
		switch *patch.Status {
		case lifecycle.StatusCompleted, lifecycle.StatusExpired:
			if err := s.Geo.Remove(ctx, id); err != nil && s.ErrorLog != nil {
				s.ErrorLog.Printf("geo index remove request %d failed: %v", id, err)
			}
		}
	}
	return s.RequestRepo.GetRequestByID(ctx, id)
}

func (s *RequestService) DeleteRequest(ctx context.Context, id, callerID int) error {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return err
	}
	if req.CreatedBy != callerID {
		return models.ErrForbidden
	}

	if err := s.RequestRepo.DeleteRequest(ctx, id); err != nil {
		return err
	}
	if s.Geo != nil {
		if err := s.Geo.Remove(ctx, id); err != nil && s.ErrorLog != nil {
			s.ErrorLog.Printf("geo index remove request %d failed: %v", id, err)
		}
	}
	return nil
}

// ExpireOverdue is called by the background sweep. Expired rows lose their
// geo-index members here, the same cleanup the lazy read path does, so the
// index never accumulates entries for dead requests.
func (s *RequestService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.RequestRepo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if s.Geo != nil {
		for _, id := range ids {
			if err := s.Geo.Remove(ctx, id); err != nil && s.ErrorLog != nil {
				s.ErrorLog.Printf("geo index remove request %d failed: %v", id, err)
			}
		}
	}
	return len(ids), nil
}
