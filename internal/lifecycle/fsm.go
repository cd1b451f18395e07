package lifecycle

import (
	"context"
	"database/sql"

	"helpHub/internal/models"
)

// Status constants for the help-request state machine.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusExpired    = "expired"
)

// open moves to in-progress on offer acceptance only; completed is
// terminal and owner-initiated; expired comes from the owner or the TTL
// sweep. There is no path back to open.
var transitions = map[string]map[string]struct{}{
	StatusOpen: {
		StatusInProgress: {},
		StatusExpired:    {},
	},
	StatusInProgress: {
		StatusCompleted: {},
	},
	StatusCompleted: {},
	StatusExpired:   {},
}

// CanTransition returns whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Valid reports whether s is a known request status.
func Valid(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Apply updates a request status using optimistic validation: the UPDATE
// is guarded by the expected current status, so a concurrent transition
// loses with models.ErrRequestNotOpen-style conflicts surfaced by the
// caller when zero rows are affected.
func Apply(ctx context.Context, tx *sql.Tx, requestID int, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return models.ErrInvalidStatus
	}
	res, err := tx.ExecContext(ctx, `UPDATE requests SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`, toStatus, requestID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
