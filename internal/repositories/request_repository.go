package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"helpHub/internal/lifecycle"
	"helpHub/internal/models"
)

// NearbyPageSize caps the result set of nearby lookups.
const NearbyPageSize = 50

type RequestRepository struct {
	DB *sql.DB
}

func (r *RequestRepository) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	imagesJSON, err := json.Marshal(req.Images)
	if err != nil {
		return models.Request{}, err
	}

	now := time.Now()
	query := `
        INSERT INTO requests (title, description, category, urgency, status, latitude, longitude, address, images, created_by, expires_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.DB.ExecContext(ctx, query,
		req.Title, req.Description, req.Category, req.Urgency, lifecycle.StatusOpen,
		req.Latitude, req.Longitude, req.Address, imagesJSON, req.CreatedBy, req.ExpiresAt, now)
	if err != nil {
		return models.Request{}, err
	}

	insertedID, err := result.LastInsertId()
	if err != nil {
		return models.Request{}, err
	}

	req.ID = int(insertedID)
	req.Status = lifecycle.StatusOpen
	req.CreatedAt = now
	return req, nil
}

const requestSelectColumns = `
        r.id, r.title, r.description, r.category, r.urgency, r.status,
        r.latitude, r.longitude, r.address, r.images, r.created_by, r.helper_id,
        r.completion_date, r.expires_at, r.created_at, r.updated_at,
        c.name, c.surname, c.avatar_path, COALESCE(c.reputation, 0),
        h.id, h.name, h.surname, h.avatar_path, COALESCE(h.reputation, 0)`

func scanRequest(scan func(dest ...interface{}) error) (models.Request, error) {
	var req models.Request
	var imagesJSON []byte
	var helperID sql.NullInt64
	var creator models.User
	var hID sql.NullInt64
	var hName, hSurname sql.NullString
	var hAvatar sql.NullString
	var hReputation sql.NullFloat64

	err := scan(
		&req.ID, &req.Title, &req.Description, &req.Category, &req.Urgency, &req.Status,
		&req.Latitude, &req.Longitude, &req.Address, &imagesJSON, &req.CreatedBy, &helperID,
		&req.CompletionDate, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt,
		&creator.Name, &creator.Surname, &creator.AvatarPath, &creator.Reputation,
		&hID, &hName, &hSurname, &hAvatar, &hReputation,
	)
	if err != nil {
		return models.Request{}, err
	}

	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &req.Images); err != nil {
			return models.Request{}, fmt.Errorf("json decode error: %w", err)
		}
	}

	creator.ID = req.CreatedBy
	req.Creator = &creator

	if helperID.Valid {
		id := int(helperID.Int64)
		req.Helper = &id
	}
	if hID.Valid {
		helper := models.User{ID: int(hID.Int64), Name: hName.String, Surname: hSurname.String, Reputation: hReputation.Float64}
		if hAvatar.Valid {
			helper.AvatarPath = &hAvatar.String
		}
		req.HelperUser = &helper
	}
	return req, nil
}

func (r *RequestRepository) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	query := `
        SELECT ` + requestSelectColumns + `
        FROM requests r
        JOIN users c ON r.created_by = c.id
        LEFT JOIN users h ON r.helper_id = h.id
        WHERE r.id = ?`

	row := r.DB.QueryRowContext(ctx, query, id)
	req, err := scanRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Request{}, models.ErrRequestNotFound
		}
		return models.Request{}, err
	}
	return req, nil
}

// GetActiveRequests returns open and in-progress requests, optionally
// filtered by category, newest first. Used by the SQL fallback of the
// nearby lookup; the radius filter happens in Go via haversine.
func (r *RequestRepository) GetActiveRequests(ctx context.Context, category string) ([]models.Request, error) {
	query := `
        SELECT ` + requestSelectColumns + `
        FROM requests r
        JOIN users c ON r.created_by = c.id
        LEFT JOIN users h ON r.helper_id = h.id
        WHERE r.status IN (?, ?)`
	args := []interface{}{lifecycle.StatusOpen, lifecycle.StatusInProgress}
	if category != "" {
		query += ` AND r.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// GetNearbyRequests filters active requests to radiusKm around the given
// point, newest first, capped at NearbyPageSize.
func (r *RequestRepository) GetNearbyRequests(ctx context.Context, lon, lat, radiusKm float64, category string) ([]models.Request, error) {
	candidates, err := r.GetActiveRequests(ctx, category)
	if err != nil {
		return nil, err
	}

	requests := make([]models.Request, 0, len(candidates))
	for _, req := range candidates {
		d := haversineDistanceKm(lat, lon, req.Latitude, req.Longitude)
		if d > radiusKm {
			continue
		}
		dist := d
		req.DistanceKm = &dist
		requests = append(requests, req)
		if len(requests) == NearbyPageSize {
			break
		}
	}
	return requests, nil
}

// GetRequestsByIDs loads active requests for the ids produced by the geo
// index, keeping the newest-first ordering of the store.
func (r *RequestRepository) GetRequestsByIDs(ctx context.Context, ids []int, category string) ([]models.Request, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]interface{}, 0, len(ids)+3)
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	args = append(args, lifecycle.StatusOpen, lifecycle.StatusInProgress)

	query := `
        SELECT ` + requestSelectColumns + `
        FROM requests r
        JOIN users c ON r.created_by = c.id
        LEFT JOIN users h ON r.helper_id = h.id
        WHERE r.id IN (` + placeholders + `) AND r.status IN (?, ?)`
	if category != "" {
		query += ` AND r.category = ?`
		args = append(args, category)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	if len(requests) > NearbyPageSize {
		requests = requests[:NearbyPageSize]
	}
	return requests, nil
}

// UpdateRequest applies the owner's patch. Status changes go through the
// lifecycle FSM with an optimistic guard on the previous status.
func (r *RequestRepository) UpdateRequest(ctx context.Context, id int, fromStatus string, patch models.RequestPatch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if patch.Status != nil && *patch.Status != fromStatus {
		if err := lifecycle.Apply(ctx, tx, id, fromStatus, *patch.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrRequestNotOpen
			}
			return err
		}
		if *patch.Status == lifecycle.StatusCompleted {
			if _, err := tx.ExecContext(ctx, `UPDATE requests SET completion_date = NOW() WHERE id = ?`, id); err != nil {
				return err
			}
		}
	}

	set := ""
	args := []interface{}{}
	if patch.Title != nil {
		set += "title = ?, "
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		set += "description = ?, "
		args = append(args, *patch.Description)
	}
	if patch.Urgency != nil {
		set += "urgency = ?, "
		args = append(args, *patch.Urgency)
	}
	if set != "" {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, `UPDATE requests SET `+set+`updated_at = NOW() WHERE id = ?`, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteRequest removes the request together with its offers and the
// notifications that deep-link to it. Messages stay, conversation history
// outlives the request.
func (r *RequestRepository) DeleteRequest(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE request_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE link = ?`, fmt.Sprintf("/requests/%d", id)); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrRequestNotFound
	}
	return tx.Commit()
}

// MarkExpired transitions a single overdue request; used by the lazy
// check on read.
func (r *RequestRepository) MarkExpired(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lifecycle.Apply(ctx, tx, id, lifecycle.StatusOpen, lifecycle.StatusExpired); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// already transitioned by a concurrent sweep, nothing to do
			return nil
		}
		return err
	}
	return tx.Commit()
}

// ExpireOverdue marks every open request whose TTL has passed as expired
// and returns their ids, so the caller can drop the matching geo-index
// members. The select and the update share one transaction, ids of rows a
// concurrent writer already transitioned are never returned.
func (r *RequestRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
        SELECT id FROM requests
        WHERE status = ? AND expires_at IS NOT NULL AND expires_at <= ?
        FOR UPDATE`,
		lifecycle.StatusOpen, now)
	if err != nil {
		return nil, err
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	placeholders := ""
	args := []interface{}{lifecycle.StatusExpired}
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE requests SET status = ?, updated_at = NOW() WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}
