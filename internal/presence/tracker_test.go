package presence

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

type registryStub struct {
	count    int
	events   []string
	lastData any
}

func (r *registryStub) UserConnectionCount(userID string) int { return r.count }

func (r *registryStub) BroadcastAll(event string, data any) {
	r.events = append(r.events, event)
	r.lastData = data
}

func TestConnectedMarksOnline(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	reg := &registryStub{count: 1}
	tracker := NewTracker(users, reg, zerolog.Nop())

	users.On("SetOnline", mock.Anything, "u1").Return(nil).Once()

	tracker.Connected(context.Background(), "u1")

	require.Equal(t, []string{models.EvUserStatus}, reg.events)
	payload := reg.lastData.(models.PresencePayload)
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, "online", payload.Status)
	users.AssertExpectations(t)
}

func TestDisconnectedStaysOnlineWhileOtherDevicesRemain(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	reg := &registryStub{count: 1}
	tracker := NewTracker(users, reg, zerolog.Nop())

	tracker.Disconnected(context.Background(), "u1")

	assert.Empty(t, reg.events)
	users.AssertNotCalled(t, "SetOffline", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisconnectedGoesOfflineOnLastConnection(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	reg := &registryStub{count: 0}
	tracker := NewTracker(users, reg, zerolog.Nop())

	users.On("SetOffline", mock.Anything, "u1", mock.Anything).Return(nil).Once()

	tracker.Disconnected(context.Background(), "u1")

	require.Equal(t, []string{models.EvUserStatus}, reg.events)
	payload := reg.lastData.(models.PresencePayload)
	assert.Equal(t, "offline", payload.Status)
	require.NotNil(t, payload.LastSeen)
	users.AssertExpectations(t)
}

func TestIsReachable(t *testing.T) {
	tracker := NewTracker(new(mocks.UserRepositoryMock), &registryStub{count: 2}, zerolog.Nop())
	assert.True(t, tracker.IsReachable("u1"))

	tracker = NewTracker(new(mocks.UserRepositoryMock), &registryStub{}, zerolog.Nop())
	assert.False(t, tracker.IsReachable("u1"))
}
