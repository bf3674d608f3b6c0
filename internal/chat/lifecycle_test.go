package chat

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

type fanoutRecorder struct {
	roomSize   int
	userEvents map[string][]string
	chatEvents map[string][]string
	lastData   map[string]any
}

func newFanoutRecorder(roomSize int) *fanoutRecorder {
	return &fanoutRecorder{
		roomSize:   roomSize,
		userEvents: map[string][]string{},
		chatEvents: map[string][]string{},
		lastData:   map[string]any{},
	}
}

func (f *fanoutRecorder) BroadcastToUser(userID, event string, data any) {
	f.userEvents[userID] = append(f.userEvents[userID], event)
	f.lastData[event] = data
}

func (f *fanoutRecorder) BroadcastToChat(chatID, event string, data any) {
	f.chatEvents[chatID] = append(f.chatEvents[chatID], event)
	f.lastData[event] = data
}

func (f *fanoutRecorder) ChatRoomSize(chatID string) int { return f.roomSize }

func TestSendBroadcastsMessageAndChatLists(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	chatList := new(mocks.ChatListRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	fanout := newFanoutRecorder(2)

	lc := NewLifecycle(messages, chatList, users, fanout, notifier, zerolog.Nop())

	chatID := models.ChatID("alice", "bob")
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ChatID == chatID && m.SenderID == "alice" && m.ReceiverID == "bob" &&
			m.Status == models.StatusSent && m.MessageID != ""
	})).Return(nil).Once()
	messages.On("CountUnread", mock.Anything, chatID, "alice").Return(0, nil).Once()
	messages.On("CountUnread", mock.Anything, chatID, "bob").Return(3, nil).Once()
	chatList.On("Upsert", mock.Anything, mock.MatchedBy(func(e models.ChatListEntry) bool {
		return e.UserID == "alice" && e.LastMessageStatus == string(models.StatusSent)
	})).Return(nil).Once()
	chatList.On("Upsert", mock.Anything, mock.MatchedBy(func(e models.ChatListEntry) bool {
		return e.UserID == "bob" && e.LastMessageStatus == models.StatusNone && e.UnreadCount == 3
	})).Return(nil).Once()

	msg, err := lc.Send(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, chatID, msg.ChatID)
	assert.Equal(t, models.StatusSent, msg.Status)

	assert.Equal(t, []string{models.EvUpdateChatDet}, fanout.chatEvents[chatID])
	assert.Equal(t, []string{models.EvUpdateChatList}, fanout.userEvents["alice"])
	assert.Equal(t, []string{models.EvUpdateChatList}, fanout.userEvents["bob"])

	// Both participants watching the room: no push.
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	messages.AssertExpectations(t)
	chatList.AssertExpectations(t)
}

func TestSendFallsBackToPushWhenReceiverAway(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	chatList := new(mocks.ChatListRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	fanout := newFanoutRecorder(1)

	lc := NewLifecycle(messages, chatList, users, fanout, notifier, zerolog.Nop())

	chatID := models.ChatID("alice", "bob")
	messages.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	messages.On("CountUnread", mock.Anything, chatID, mock.Anything).Return(1, nil).Twice()
	chatList.On("Upsert", mock.Anything, mock.Anything).Return(nil).Twice()
	users.On("PushTokens", mock.Anything, "bob").Return([]string{"tok-1"}, nil).Once()
	users.On("Get", mock.Anything, "alice").Return(models.User{ID: "alice", Name: "Alice"}, nil).Once()
	notifier.On("Notify", mock.Anything, []string{"tok-1"}, "Alice", "hi", mock.Anything).Once()

	_, err := lc.Send(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)

	notifier.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSendRejectsEmptyFields(t *testing.T) {
	lc := NewLifecycle(nil, nil, nil, newFanoutRecorder(0), nil, zerolog.Nop())

	_, err := lc.Send(context.Background(), "", "bob", "hi")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = lc.Send(context.Background(), "alice", "bob", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarkDeliveredIdempotent(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	chatList := new(mocks.ChatListRepositoryMock)
	fanout := newFanoutRecorder(0)

	lc := NewLifecycle(messages, chatList, nil, fanout, nil, zerolog.Nop())

	chatID := models.ChatID("alice", "bob")
	messages.On("MarkDelivered", mock.Anything, chatID, "alice", "bob").Return(int64(0), nil).Once()

	require.NoError(t, lc.MarkDelivered(context.Background(), "alice", "bob", chatID, "m1"))

	// Nothing was pending: no chat-list touch, no events.
	chatList.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, fanout.userEvents["alice"])
	messages.AssertExpectations(t)
}

func TestMarkDeliveredConfirmsToSender(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	chatList := new(mocks.ChatListRepositoryMock)
	fanout := newFanoutRecorder(0)

	lc := NewLifecycle(messages, chatList, nil, fanout, nil, zerolog.Nop())

	chatID := models.ChatID("alice", "bob")
	messages.On("MarkDelivered", mock.Anything, chatID, "alice", "bob").Return(int64(2), nil).Once()
	chatList.On("MarkDelivered", mock.Anything, "alice", chatID).Return(true, nil).Once()

	require.NoError(t, lc.MarkDelivered(context.Background(), "alice", "bob", chatID, "m1"))

	assert.Equal(t, []string{models.EvDeliveredAll, models.EvDelivered}, fanout.userEvents["alice"])
	messages.AssertExpectations(t)
	chatList.AssertExpectations(t)
}

func TestMarkReadConvergesBothViews(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	chatList := new(mocks.ChatListRepositoryMock)
	fanout := newFanoutRecorder(0)

	lc := NewLifecycle(messages, chatList, nil, fanout, nil, zerolog.Nop())

	chatID := models.ChatID("alice", "bob")
	messages.On("MarkRead", mock.Anything, chatID, "bob").Return(int64(2), nil).Once()
	chatList.On("MarkRead", mock.Anything, "bob", chatID).Return(nil).Once()
	chatList.On("MarkRead", mock.Anything, "alice", chatID).Return(nil).Once()

	require.NoError(t, lc.MarkRead(context.Background(), "bob", chatID))

	assert.Equal(t, []string{models.EvMessageRead}, fanout.userEvents["alice"])
	assert.Equal(t, []string{models.EvChatListCount}, fanout.userEvents["bob"])

	count := fanout.lastData[models.EvChatListCount].(models.ChatListCountPayload)
	assert.Equal(t, 0, count.Count)
	assert.Equal(t, chatID, count.ChatID)

	messages.AssertExpectations(t)
	chatList.AssertExpectations(t)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	lc := NewLifecycle(new(mocks.MessageRepositoryMock), nil, nil, newFanoutRecorder(0), nil, zerolog.Nop())

	_, err := lc.UpdateStatus(context.Background(), "m1", models.MessageStatus("archived"))
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestUpdateStatusReturnsUpdatedMessage(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	lc := NewLifecycle(messages, nil, nil, newFanoutRecorder(0), nil, zerolog.Nop())

	messages.On("UpdateStatus", mock.Anything, "m1", models.StatusDelivered).Return(nil).Once()
	messages.On("Get", mock.Anything, "m1").Return(models.Message{MessageID: "m1", Status: models.StatusDelivered}, nil).Once()

	msg, err := lc.UpdateStatus(context.Background(), "m1", models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msg.Status)
	messages.AssertExpectations(t)
}
