package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func TestChatListJoinsOpponentProfiles(t *testing.T) {
	chatList := new(mocks.ChatListRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	projector := NewProjector(chatList, users)

	now := time.Now().UTC()
	entries := []models.ChatListEntry{
		{
			UserID: "alice", ChatID: "alice_bob",
			LastMessage: "later one", LastSenderID: "bob", LastReceiverID: "alice",
			LastMessageTime: now, LastMessageStatus: models.StatusNone, UnreadCount: 2,
		},
		{
			UserID: "alice", ChatID: "alice_carol",
			LastMessage: "earlier one", LastSenderID: "alice", LastReceiverID: "carol",
			LastMessageTime: now.Add(-time.Hour), LastMessageStatus: string(models.StatusRead),
		},
	}
	chatList.On("ListForUser", mock.Anything, "alice").Return(entries, nil).Once()
	users.On("BulkGet", mock.Anything, []string{"bob", "carol"}).Return([]models.User{
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	}, nil).Once()

	summaries, err := projector.ChatList(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Repository order (newest first) is preserved.
	assert.Equal(t, "alice_bob", summaries[0].ChatID)
	assert.Equal(t, 2, summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].Opponent)
	assert.Equal(t, "Bob", summaries[0].Opponent.Name)

	require.NotNil(t, summaries[1].Opponent)
	assert.Equal(t, "Carol", summaries[1].Opponent.Name)

	chatList.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestChatListDegradesOnBrokenOpponentReference(t *testing.T) {
	chatList := new(mocks.ChatListRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	projector := NewProjector(chatList, users)

	entries := []models.ChatListEntry{
		{UserID: "alice", ChatID: "alice_bob", LastSenderID: "someone", LastReceiverID: "else"},
	}
	chatList.On("ListForUser", mock.Anything, "alice").Return(entries, nil).Once()

	summaries, err := projector.ChatList(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].Opponent)

	// No resolvable opponents, no profile lookup.
	users.AssertNotCalled(t, "BulkGet", mock.Anything, mock.Anything)
}

func TestChatListEmpty(t *testing.T) {
	chatList := new(mocks.ChatListRepositoryMock)
	projector := NewProjector(chatList, new(mocks.UserRepositoryMock))

	chatList.On("ListForUser", mock.Anything, "alice").Return([]models.ChatListEntry(nil), nil).Once()

	summaries, err := projector.ChatList(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
