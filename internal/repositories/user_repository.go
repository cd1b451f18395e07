package repositories

import (
	"context"
	"database/sql"
	"errors"

	"helpHub/internal/models"
)

// UserRepository reads identity summaries owned by the identity provider
// and refresh-token sessions for the auth middleware. Nothing here writes
// user rows.
type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) GetUserSummary(ctx context.Context, id int) (models.User, error) {
	var user models.User
	query := `SELECT id, name, surname, avatar_path, COALESCE(reputation, 0) FROM users WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Surname, &user.AvatarPath, &user.Reputation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	query := `SELECT user_id, refresh_token, expires_at FROM sessions WHERE refresh_token = ?`
	err := r.DB.QueryRowContext(ctx, query, refreshToken).Scan(&session.UserID, &session.RefreshToken, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, nil
		}
		return models.Session{}, err
	}
	return session, nil
}

// RotateSession swaps the user's refresh token for a new one. The old
// token stops working the moment this commits.
func (r *UserRepository) RotateSession(ctx context.Context, userID int, oldToken string, session models.Session) error {
	query := `UPDATE sessions SET refresh_token = ?, expires_at = ? WHERE user_id = ? AND refresh_token = ?`
	res, err := r.DB.ExecContext(ctx, query, session.RefreshToken, session.ExpiresAt, userID, oldToken)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNoRecord
	}
	return nil
}
