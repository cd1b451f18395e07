package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"helpHub/internal/lifecycle"
	"helpHub/internal/models"
)

type OfferRepository struct {
	DB *sql.DB
}

// CreateOffer inserts a pending offer inside a transaction that holds the
// request row locked, so an acceptance running concurrently cannot slip a
// new pending offer in beside an accepted one. The request must still be
// open at insert time.
func (r *OfferRepository) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Offer{}, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM requests WHERE id = ? FOR UPDATE`, offer.RequestID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Offer{}, models.ErrRequestNotFound
		}
		return models.Offer{}, err
	}
	if status != lifecycle.StatusOpen {
		return models.Offer{}, models.ErrRequestNotOpen
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers WHERE request_id = ? AND offered_by = ?`, offer.RequestID, offer.OfferedBy).Scan(&count); err != nil {
		return models.Offer{}, err
	}
	if count > 0 {
		return models.Offer{}, models.ErrAlreadyOffered
	}

	now := time.Now()
	query := `
        INSERT INTO offers (request_id, offered_by, requester, status, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query, offer.RequestID, offer.OfferedBy, offer.Requester, models.OfferPending, offer.Message, now)
	if err != nil {
		// the unique key on (request_id, offered_by) closes the race the
		// COUNT check leaves open
		if isDuplicateEntry(err) {
			return models.Offer{}, models.ErrAlreadyOffered
		}
		return models.Offer{}, err
	}

	insertedID, err := result.LastInsertId()
	if err != nil {
		return models.Offer{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Offer{}, err
	}

	offer.ID = int(insertedID)
	offer.Status = models.OfferPending
	offer.CreatedAt = now
	return offer, nil
}

func (r *OfferRepository) GetOfferByID(ctx context.Context, id int) (models.Offer, error) {
	var offer models.Offer
	query := `
        SELECT id, request_id, offered_by, requester, status, COALESCE(message, ''), created_at, updated_at
        FROM offers WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&offer.ID, &offer.RequestID, &offer.OfferedBy, &offer.Requester,
		&offer.Status, &offer.Message, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Offer{}, models.ErrOfferNotFound
		}
		return models.Offer{}, err
	}
	return offer, nil
}

func (r *OfferRepository) ListOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error) {
	query := `
        SELECT o.id, o.request_id, o.offered_by, o.requester, o.status, COALESCE(o.message, ''), o.created_at, o.updated_at,
               u.name, u.surname, u.avatar_path, COALESCE(u.reputation, 0)
        FROM offers o
        JOIN users u ON o.offered_by = u.id
        WHERE o.request_id = ?
        ORDER BY o.created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		var offer models.Offer
		var helper models.User
		if err := rows.Scan(
			&offer.ID, &offer.RequestID, &offer.OfferedBy, &offer.Requester,
			&offer.Status, &offer.Message, &offer.CreatedAt, &offer.UpdatedAt,
			&helper.Name, &helper.Surname, &helper.AvatarPath, &helper.Reputation,
		); err != nil {
			return nil, err
		}
		helper.ID = offer.OfferedBy
		offer.Helper = &helper
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// AcceptOffer applies the three-part acceptance as one transaction:
// pending offer -> accepted, request open -> in-progress with the helper
// set, and every sibling pending offer -> rejected. Each UPDATE is guarded
// by the expected current state, so a concurrent acceptance or status
// change rolls the whole unit back.
func (r *OfferRepository) AcceptOffer(ctx context.Context, offerID int) (models.Offer, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Offer{}, err
	}
	defer tx.Rollback()

	var offer models.Offer
	err = tx.QueryRowContext(ctx, `
        SELECT id, request_id, offered_by, requester, status, COALESCE(message, ''), created_at
        FROM offers WHERE id = ? FOR UPDATE`, offerID).Scan(
		&offer.ID, &offer.RequestID, &offer.OfferedBy, &offer.Requester,
		&offer.Status, &offer.Message, &offer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Offer{}, models.ErrOfferNotFound
		}
		return models.Offer{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE offers SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		models.OfferAccepted, offerID, models.OfferPending)
	if err != nil {
		return models.Offer{}, err
	}
	if rows, err := res.RowsAffected(); err != nil {
		return models.Offer{}, err
	} else if rows == 0 {
		return models.Offer{}, models.ErrOfferAlreadyDecided
	}

	res, err = tx.ExecContext(ctx, `UPDATE requests SET status = ?, helper_id = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		lifecycle.StatusInProgress, offer.OfferedBy, offer.RequestID, lifecycle.StatusOpen)
	if err != nil {
		return models.Offer{}, err
	}
	if rows, err := res.RowsAffected(); err != nil {
		return models.Offer{}, err
	} else if rows == 0 {
		return models.Offer{}, models.ErrRequestNotOpen
	}

	if _, err := tx.ExecContext(ctx, `UPDATE offers SET status = ?, updated_at = NOW() WHERE request_id = ? AND status = ?`,
		models.OfferRejected, offer.RequestID, models.OfferPending); err != nil {
		return models.Offer{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Offer{}, err
	}
	offer.Status = models.OfferAccepted
	return offer, nil
}

// RejectOffer flips a pending offer to rejected; the request row is left
// untouched.
func (r *OfferRepository) RejectOffer(ctx context.Context, offerID int) (models.Offer, error) {
	offer, err := r.GetOfferByID(ctx, offerID)
	if err != nil {
		return models.Offer{}, err
	}

	res, err := r.DB.ExecContext(ctx, `UPDATE offers SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		models.OfferRejected, offerID, models.OfferPending)
	if err != nil {
		return models.Offer{}, err
	}
	if rows, err := res.RowsAffected(); err != nil {
		return models.Offer{}, err
	} else if rows == 0 {
		return models.Offer{}, models.ErrOfferAlreadyDecided
	}

	offer.Status = models.OfferRejected
	return offer, nil
}
