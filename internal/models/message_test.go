package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatIDSymmetric(t *testing.T) {
	assert.Equal(t, "alice_bob", ChatID("alice", "bob"))
	assert.Equal(t, "alice_bob", ChatID("bob", "alice"))
}

func TestChatParticipantsRoundTrip(t *testing.T) {
	a, b, ok := ChatParticipants(ChatID("u2", "u1"))
	require.True(t, ok)
	assert.Equal(t, "u1", a)
	assert.Equal(t, "u2", b)

	_, _, ok = ChatParticipants("not-a-chat-id")
	assert.False(t, ok)
}

func TestIsChatParticipant(t *testing.T) {
	chatID := ChatID("alice", "bob")
	assert.True(t, IsChatParticipant(chatID, "alice"))
	assert.True(t, IsChatParticipant(chatID, "bob"))
	assert.False(t, IsChatParticipant(chatID, "mallory"))
}

func TestMessageStatusRankOrdering(t *testing.T) {
	assert.Less(t, StatusSent.Rank(), StatusDelivered.Rank())
	assert.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
	assert.Equal(t, 0, MessageStatus("bogus").Rank())
}

func TestMessageStatusValid(t *testing.T) {
	assert.True(t, StatusSent.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.True(t, StatusRead.Valid())
	assert.False(t, MessageStatus(StatusNone).Valid())
	assert.False(t, MessageStatus("").Valid())
}

func TestChatListEntryOpponent(t *testing.T) {
	entry := ChatListEntry{LastSenderID: "alice", LastReceiverID: "bob"}

	other, ok := entry.Opponent("alice")
	require.True(t, ok)
	assert.Equal(t, "bob", other)

	other, ok = entry.Opponent("bob")
	require.True(t, ok)
	assert.Equal(t, "alice", other)

	_, ok = entry.Opponent("mallory")
	assert.False(t, ok)
}
