package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// Broadcaster is the fan-out surface the lifecycle pushes projections
// through. Delivering to an empty room is a silent no-op; ChatRoomSize is the
// input to the push-notification fallback.
type Broadcaster interface {
	BroadcastToUser(userID, event string, data any)
	BroadcastToChat(chatID, event string, data any)
	ChatRoomSize(chatID string) int
}

// Notifier dispatches push notifications fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, tokens []string, title, body string, data map[string]string)
}

// Lifecycle drives a message through sent -> delivered -> read and keeps both
// participants' chat-list summaries in step. Persistence writes are
// individually atomic; the count-then-upsert sequence tolerates a bounded
// staleness window, so every operation is written to be idempotent.
type Lifecycle struct {
	messages repositories.MessageRepository
	chatList repositories.ChatListRepository
	users    repositories.UserRepository
	fanout   Broadcaster
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger
}

// NewLifecycle constructs a Lifecycle.
func NewLifecycle(
	messages repositories.MessageRepository,
	chatList repositories.ChatListRepository,
	users repositories.UserRepository,
	fanout Broadcaster,
	notifier Notifier,
	log zerolog.Logger,
) *Lifecycle {
	return &Lifecycle{
		messages: messages,
		chatList: chatList,
		users:    users,
		fanout:   fanout,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
}

// Send persists a new message, refreshes both chat-list entries, broadcasts
// the message to the conversation room and the refreshed summaries to each
// participant's personal room. When the conversation room has at most one
// connected member the receiver is pinged through the push notifier instead.
func (l *Lifecycle) Send(ctx context.Context, senderID, receiverID, body string) (models.Message, error) {
	if senderID == "" || receiverID == "" || body == "" {
		return models.Message{}, ErrValidation
	}

	chatID := models.ChatID(senderID, receiverID)
	msg := models.Message{
		MessageID:  uuid.NewString(),
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Status:     models.StatusSent,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.messages.Create(ctx, msg); err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}

	senderEntry, err := l.refreshEntry(ctx, msg, senderID, string(models.StatusSent))
	if err != nil {
		return models.Message{}, err
	}
	receiverEntry, err := l.refreshEntry(ctx, msg, receiverID, models.StatusNone)
	if err != nil {
		return models.Message{}, err
	}

	observability.IncMessage("sent")

	l.fanout.BroadcastToChat(chatID, models.EvUpdateChatDet, msg)
	l.fanout.BroadcastToUser(senderID, models.EvUpdateChatList, senderEntry)
	l.fanout.BroadcastToUser(receiverID, models.EvUpdateChatList, receiverEntry)

	if l.fanout.ChatRoomSize(chatID) <= 1 {
		l.notifyReceiver(ctx, msg)
	}
	return msg, nil
}

// refreshEntry recomputes the viewer's unread count and upserts their
// chat-list snapshot. The sender's entry carries the message status; the
// receiver's carries the "none" marker meaning the last message was addressed
// to them.
func (l *Lifecycle) refreshEntry(ctx context.Context, msg models.Message, viewerID, status string) (models.ChatListEntry, error) {
	unread, err := l.messages.CountUnread(ctx, msg.ChatID, viewerID)
	if err != nil {
		return models.ChatListEntry{}, fmt.Errorf("count unread: %w", err)
	}

	a, b, _ := models.ChatParticipants(msg.ChatID)
	entry := models.ChatListEntry{
		UserID:            viewerID,
		ChatID:            msg.ChatID,
		ParticipantA:      a,
		ParticipantB:      b,
		LastMessage:       msg.Body,
		LastSenderID:      msg.SenderID,
		LastReceiverID:    msg.ReceiverID,
		LastMessageTime:   msg.CreatedAt,
		LastMessageStatus: status,
		UnreadCount:       unread,
	}
	if err := l.chatList.Upsert(ctx, entry); err != nil {
		return models.ChatListEntry{}, fmt.Errorf("upsert chat list: %w", err)
	}
	return entry, nil
}

func (l *Lifecycle) notifyReceiver(ctx context.Context, msg models.Message) {
	tokens, err := l.users.PushTokens(ctx, msg.ReceiverID)
	if err != nil {
		l.log.Error().Err(err).Str("user_id", msg.ReceiverID).Msg("load push tokens failed")
		return
	}

	title := "New message"
	if sender, err := l.users.Get(ctx, msg.SenderID); err == nil && sender.Name != "" {
		title = sender.Name
	}
	l.notifier.Notify(ctx, tokens, title, msg.Body, map[string]string{
		"chatId":    msg.ChatID,
		"messageId": msg.MessageID,
		"senderId":  msg.SenderID,
	})
}

// MarkDelivered promotes all sent messages from senderID to receiverID in the
// chat to delivered and confirms to the sender's personal room. Idempotent:
// when nothing was pending, no state changes and no events fire.
func (l *Lifecycle) MarkDelivered(ctx context.Context, senderID, receiverID, chatID, messageID string) error {
	changed, err := l.messages.MarkDelivered(ctx, chatID, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if changed == 0 {
		return nil
	}

	// Conditional in SQL: only a "sent" entry advances, so a later read
	// never regresses.
	if _, err := l.chatList.MarkDelivered(ctx, senderID, chatID); err != nil {
		return fmt.Errorf("update chat list: %w", err)
	}

	observability.IncMessage("delivered")

	payload := models.DeliveryPayload{SenderID: senderID, ReceiverID: receiverID, ChatID: chatID, MessageID: messageID}
	l.fanout.BroadcastToUser(senderID, models.EvDeliveredAll, payload)
	l.fanout.BroadcastToUser(senderID, models.EvDelivered, payload)
	return nil
}

// MarkRead promotes every message addressed to the reader in the chat to
// read, zeroes the reader's unread count, converges both chat-list views, and
// raises a read receipt to the other participant.
func (l *Lifecycle) MarkRead(ctx context.Context, readerID, chatID string) error {
	if _, err := l.messages.MarkRead(ctx, chatID, readerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	if err := l.chatList.MarkRead(ctx, readerID, chatID); err != nil {
		return fmt.Errorf("update reader chat list: %w", err)
	}

	a, b, ok := models.ChatParticipants(chatID)
	otherID := ""
	if ok {
		otherID = a
		if otherID == readerID {
			otherID = b
		}
	}
	if otherID != "" {
		if err := l.chatList.MarkRead(ctx, otherID, chatID); err != nil {
			return fmt.Errorf("update counterpart chat list: %w", err)
		}
	}

	observability.IncMessage("read")

	if otherID != "" {
		l.fanout.BroadcastToUser(otherID, models.EvMessageRead, models.DeliveryPayload{
			SenderID:   otherID,
			ReceiverID: readerID,
			ChatID:     chatID,
		})
	}
	l.fanout.BroadcastToUser(readerID, models.EvChatListCount, models.ChatListCountPayload{Count: 0, ChatID: chatID})
	return nil
}

// UpdateStatus sets a single message's status directly. The forward-only
// invariant is enforced by the store; regressions surface as
// repositories.ErrInvalidTransition.
func (l *Lifecycle) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) (models.Message, error) {
	if !status.Valid() {
		return models.Message{}, ErrBadStatus
	}
	if err := l.messages.UpdateStatus(ctx, messageID, status); err != nil {
		return models.Message{}, err
	}
	return l.messages.Get(ctx, messageID)
}
