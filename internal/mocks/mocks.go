package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, chatID, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, chatID, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	args := m.Called(ctx, chatID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, chatID, receiverID string) (int, error) {
	args := m.Called(ctx, chatID, receiverID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

type ChatListRepositoryMock struct {
	mock.Mock
}

func (m *ChatListRepositoryMock) Upsert(ctx context.Context, entry models.ChatListEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ChatListRepositoryMock) MarkDelivered(ctx context.Context, userID, chatID string) (bool, error) {
	args := m.Called(ctx, userID, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatListRepositoryMock) MarkRead(ctx context.Context, userID, chatID string) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}

func (m *ChatListRepositoryMock) Get(ctx context.Context, userID, chatID string) (models.ChatListEntry, error) {
	args := m.Called(ctx, userID, chatID)
	var entry models.ChatListEntry
	if val := args.Get(0); val != nil {
		entry = val.(models.ChatListEntry)
	}
	return entry, args.Error(1)
}

func (m *ChatListRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.ChatListEntry, error) {
	args := m.Called(ctx, userID)
	var entries []models.ChatListEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.ChatListEntry)
	}
	return entries, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkGet(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	args := m.Called(ctx, userID, lastSeen)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpsertDevice(ctx context.Context, device models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *UserRepositoryMock) PushTokens(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var tokens []string
	if val := args.Get(0); val != nil {
		tokens = val.([]string)
	}
	return tokens, args.Error(1)
}

type CallRepositoryMock struct {
	mock.Mock
}

func (m *CallRepositoryMock) Create(ctx context.Context, session models.CallSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *CallRepositoryMock) Get(ctx context.Context, sessionID string) (models.CallSession, error) {
	args := m.Called(ctx, sessionID)
	var session models.CallSession
	if val := args.Get(0); val != nil {
		session = val.(models.CallSession)
	}
	return session, args.Error(1)
}

func (m *CallRepositoryMock) SetStatus(ctx context.Context, sessionID string, status models.CallStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

func (m *CallRepositoryMock) Finalize(ctx context.Context, sessionID string, status models.CallStatus, endTime time.Time, durationSeconds int, reason string) error {
	args := m.Called(ctx, sessionID, status, endTime, durationSeconds, reason)
	return args.Error(0)
}

func (m *CallRepositoryMock) FinalizeIfPending(ctx context.Context, sessionID string, endTime time.Time, reason string) (bool, error) {
	args := m.Called(ctx, sessionID, endTime, reason)
	return args.Bool(0), args.Error(1)
}

func (m *CallRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.CallSession, error) {
	args := m.Called(ctx, userID)
	var sessions []models.CallSession
	if val := args.Get(0); val != nil {
		sessions = val.([]models.CallSession)
	}
	return sessions, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ChatListRepository = (*ChatListRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.CallRepository = (*CallRepositoryMock)(nil)
