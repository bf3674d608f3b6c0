package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrChatListEntryNotFound = errors.New("chat list entry not found")

// ChatListRepository abstracts the denormalized per-viewer conversation
// summaries.
type ChatListRepository interface {
	Upsert(ctx context.Context, entry models.ChatListEntry) error
	MarkDelivered(ctx context.Context, userID, chatID string) (bool, error)
	MarkRead(ctx context.Context, userID, chatID string) error
	Get(ctx context.Context, userID, chatID string) (models.ChatListEntry, error)
	ListForUser(ctx context.Context, userID string) ([]models.ChatListEntry, error)
}

// ChatListRepo is a sqlx implementation of ChatListRepository.
type ChatListRepo struct {
	db *sqlx.DB
}

// NewChatListRepo constructs a ChatListRepo.
func NewChatListRepo(db *sqlx.DB) *ChatListRepo {
	return &ChatListRepo{db: db}
}

// Upsert writes the full last-message snapshot for one viewer, creating the
// entry on the first message of a conversation. The write is a single atomic
// statement.
func (r *ChatListRepo) Upsert(ctx context.Context, entry models.ChatListEntry) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_list
        (user_id, chat_id, participant_a, participant_b, last_message, last_sender_id, last_receiver_id, last_message_time, last_message_status, unread_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (user_id, chat_id) DO UPDATE SET
            last_message = EXCLUDED.last_message,
            last_sender_id = EXCLUDED.last_sender_id,
            last_receiver_id = EXCLUDED.last_receiver_id,
            last_message_time = EXCLUDED.last_message_time,
            last_message_status = EXCLUDED.last_message_status,
            unread_count = EXCLUDED.unread_count`,
		entry.UserID, entry.ChatID, entry.ParticipantA, entry.ParticipantB,
		entry.LastMessage, entry.LastSenderID, entry.LastReceiverID,
		entry.LastMessageTime, entry.LastMessageStatus, entry.UnreadCount)
	return err
}

// MarkDelivered advances the viewer's last-message tick to delivered, but
// only from sent: an entry already delivered or read is left alone, which
// keeps redelivery idempotent.
func (r *ChatListRepo) MarkDelivered(ctx context.Context, userID, chatID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_list SET last_message_status='delivered'
        WHERE user_id=$1 AND chat_id=$2 AND last_message_status='sent'`,
		userID, chatID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// MarkRead sets the viewer's entry to read with a zero unread count.
func (r *ChatListRepo) MarkRead(ctx context.Context, userID, chatID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_list SET last_message_status='read', unread_count=0
        WHERE user_id=$1 AND chat_id=$2`,
		userID, chatID)
	return err
}

// Get fetches one viewer's entry for a chat.
func (r *ChatListRepo) Get(ctx context.Context, userID, chatID string) (models.ChatListEntry, error) {
	var entry models.ChatListEntry
	err := r.db.GetContext(ctx, &entry, `SELECT user_id, chat_id, participant_a, participant_b, last_message,
        last_sender_id, last_receiver_id, last_message_time, last_message_status, unread_count
        FROM chat_list WHERE user_id=$1 AND chat_id=$2`, userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatListEntry{}, ErrChatListEntryNotFound
	}
	return entry, err
}

// ListForUser returns the viewer's conversation summaries, most recent first.
func (r *ChatListRepo) ListForUser(ctx context.Context, userID string) ([]models.ChatListEntry, error) {
	var entries []models.ChatListEntry
	err := r.db.SelectContext(ctx, &entries, `SELECT user_id, chat_id, participant_a, participant_b, last_message,
        last_sender_id, last_receiver_id, last_message_time, last_message_status, unread_count
        FROM chat_list WHERE user_id=$1 ORDER BY last_message_time DESC`, userID)
	return entries, err
}
