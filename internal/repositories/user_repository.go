package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository exposes the profile, presence and device state the core
// reads and mutates. Registration itself happens at the auth boundary.
type UserRepository interface {
	Get(ctx context.Context, userID string) (models.User, error)
	BulkGet(ctx context.Context, ids []string) ([]models.User, error)
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string, lastSeen time.Time) error
	UpsertDevice(ctx context.Context, device models.Device) error
	PushTokens(ctx context.Context, userID string) ([]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, phone_number, country_code, about, profile_image, user_status, is_online, last_seen_at, created_at, updated_at`

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkGet fetches multiple users in one query. Unknown ids are simply absent
// from the result.
func (r *UserRepo) BulkGet(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}

// SetOnline flips the presence flag on.
func (r *UserRepo) SetOnline(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=TRUE, updated_at=NOW() WHERE id=$1`, userID)
	return err
}

// SetOffline flips the presence flag off and stamps the last-seen time.
func (r *UserRepo) SetOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=FALSE, last_seen_at=$2, updated_at=NOW() WHERE id=$1`, userID, lastSeen)
	return err
}

// UpsertDevice registers or refreshes a device, then trims the user's device
// list to the two most recently seen entries.
func (r *UserRepo) UpsertDevice(ctx context.Context, device models.Device) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_devices (user_id, device_id, device_name, device_type, push_token, last_login_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, device_id) DO UPDATE SET
            device_name = EXCLUDED.device_name,
            device_type = EXCLUDED.device_type,
            push_token = EXCLUDED.push_token,
            last_login_at = EXCLUDED.last_login_at`,
		device.UserID, device.DeviceID, device.DeviceName, device.DeviceType, device.PushToken, device.LastLoginAt)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM user_devices WHERE user_id=$1 AND device_id NOT IN (
        SELECT device_id FROM user_devices WHERE user_id=$1 ORDER BY last_login_at DESC LIMIT 2)`,
		device.UserID)
	return err
}

// PushTokens returns the push tokens of the user's registered devices.
func (r *UserRepo) PushTokens(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := r.db.SelectContext(ctx, &tokens, `SELECT push_token FROM user_devices
        WHERE user_id=$1 AND push_token <> '' ORDER BY last_login_at DESC`, userID)
	return tokens, err
}
