package repositories

import (
	"context"
	"database/sql"
	"time"

	"helpHub/internal/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	now := time.Now()
	query := `
        INSERT INTO notifications (user_id, message, link, is_read, created_at)
        VALUES (?, ?, ?, false, ?)`
	result, err := r.DB.ExecContext(ctx, query, n.UserID, n.Message, n.Link, now)
	if err != nil {
		return models.Notification{}, err
	}

	insertedID, err := result.LastInsertId()
	if err != nil {
		return models.Notification{}, err
	}

	n.ID = int(insertedID)
	n.IsRead = false
	n.CreatedAt = now
	return n, nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	query := `
        SELECT id, user_id, message, link, is_read, created_at
        FROM notifications
        WHERE user_id = ?
        ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead marks one notification read. Ids not owned by the user match
// zero rows, which is a silent no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID int) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = ? AND user_id = ?`, notificationID, userID)
	return err
}

// MarkAllRead marks every unread notification of the user read. Running it
// twice is fine: the second pass matches zero rows.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = ? AND is_read = false`, userID)
	return err
}
