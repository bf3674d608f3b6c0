package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrCallSessionNotFound = errors.New("call session not found")

// CallRepository persists call sessions and their history.
type CallRepository interface {
	Create(ctx context.Context, session models.CallSession) error
	Get(ctx context.Context, sessionID string) (models.CallSession, error)
	SetStatus(ctx context.Context, sessionID string, status models.CallStatus) error
	Finalize(ctx context.Context, sessionID string, status models.CallStatus, endTime time.Time, durationSeconds int, reason string) error
	FinalizeIfPending(ctx context.Context, sessionID string, endTime time.Time, reason string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]models.CallSession, error)
}

// CallRepo is a sqlx implementation of CallRepository.
type CallRepo struct {
	db *sqlx.DB
}

// NewCallRepo constructs a CallRepo.
func NewCallRepo(db *sqlx.DB) *CallRepo {
	return &CallRepo{db: db}
}

const callColumns = `call_session_id, caller_id, receiver_id, call_type, status, start_time, end_time, duration_seconds, disconnect_reason, created_at`

// Create inserts a new session row.
func (r *CallRepo) Create(ctx context.Context, session models.CallSession) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO call_history
        (call_session_id, caller_id, receiver_id, call_type, status, start_time)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		session.CallSessionID, session.CallerID, session.ReceiverID, session.CallType, session.Status, session.StartTime)
	return err
}

// Get fetches a session by id.
func (r *CallRepo) Get(ctx context.Context, sessionID string) (models.CallSession, error) {
	var session models.CallSession
	err := r.db.GetContext(ctx, &session, `SELECT `+callColumns+` FROM call_history WHERE call_session_id=$1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CallSession{}, ErrCallSessionNotFound
	}
	return session, err
}

// SetStatus updates the session state.
func (r *CallRepo) SetStatus(ctx context.Context, sessionID string, status models.CallStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE call_history SET status=$2 WHERE call_session_id=$1`, sessionID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCallSessionNotFound
	}
	return nil
}

// Finalize stamps the terminal state of a session.
func (r *CallRepo) Finalize(ctx context.Context, sessionID string, status models.CallStatus, endTime time.Time, durationSeconds int, reason string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE call_history
        SET status=$2, end_time=$3, duration_seconds=$4, disconnect_reason=$5
        WHERE call_session_id=$1`,
		sessionID, status, endTime, durationSeconds, reason)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCallSessionNotFound
	}
	return nil
}

// FinalizeIfPending closes a session as missed only if it was never answered
// or ended. Used by the offer timeout; reports whether the row was claimed so
// a racing answer or hang-up wins cleanly.
func (r *CallRepo) FinalizeIfPending(ctx context.Context, sessionID string, endTime time.Time, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE call_history
        SET end_time=$2, disconnect_reason=$3
        WHERE call_session_id=$1 AND status='missed' AND end_time IS NULL`,
		sessionID, endTime, reason)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// ListForUser returns the sessions in which the user took part, newest first.
func (r *CallRepo) ListForUser(ctx context.Context, userID string) ([]models.CallSession, error) {
	var sessions []models.CallSession
	err := r.db.SelectContext(ctx, &sessions, `SELECT `+callColumns+` FROM call_history
        WHERE caller_id=$1 OR receiver_id=$1 ORDER BY start_time DESC`, userID)
	return sessions, err
}
