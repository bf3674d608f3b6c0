// Package presence tracks who is online, across all of a user's devices.
package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"messenger-service/internal/models"
)

// Registry is the volatile per-process connection registry the tracker
// consults. The websocket hub implements it; registrations themselves are
// keyed by connection handle inside the hub so a fast reconnect is never
// clobbered by a stale disconnect.
type Registry interface {
	UserConnectionCount(userID string) int
	BroadcastAll(event string, data any)
}

// UserStore is the durable side of presence.
type UserStore interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string, lastSeen time.Time) error
}

// Tracker maintains the online flag and last-seen timestamp per user and
// broadcasts presence changes globally. Persistence failures are logged, not
// retried; presence is best effort.
type Tracker struct {
	users UserStore
	reg   Registry
	now   func() time.Time
	log   zerolog.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(users UserStore, reg Registry, log zerolog.Logger) *Tracker {
	return &Tracker{users: users, reg: reg, now: time.Now, log: log}
}

// Connected records that a user gained a connection. The user is online from
// the first connection onward; the broadcast is repeated for later devices,
// which is harmless.
func (t *Tracker) Connected(ctx context.Context, userID string) {
	if err := t.users.SetOnline(ctx, userID); err != nil {
		t.log.Error().Err(err).Str("user_id", userID).Msg("persist online flag failed")
	}
	t.reg.BroadcastAll(models.EvUserStatus, models.PresencePayload{UserID: userID, Status: "online"})
}

// Disconnected records that one of the user's connections went away. Only
// when no connections remain does the user go offline, with a last-seen
// stamp.
func (t *Tracker) Disconnected(ctx context.Context, userID string) {
	if t.reg.UserConnectionCount(userID) > 0 {
		return
	}
	now := t.now().UTC()
	if err := t.users.SetOffline(ctx, userID, now); err != nil {
		t.log.Error().Err(err).Str("user_id", userID).Msg("persist offline flag failed")
	}
	t.reg.BroadcastAll(models.EvUserStatus, models.PresencePayload{UserID: userID, Status: "offline", LastSeen: &now})
}

// IsReachable reports whether the user has at least one live connection.
func (t *Tracker) IsReachable(userID string) bool {
	return t.reg.UserConnectionCount(userID) > 0
}
