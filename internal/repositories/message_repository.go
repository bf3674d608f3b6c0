package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidTransition is returned when a status update would move a
	// message backwards along sent -> delivered -> read.
	ErrInvalidTransition = errors.New("message status cannot regress")
)

// MessageRepository defines interactions with the message log.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) error
	Get(ctx context.Context, messageID string) (models.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]models.Message, error)
	MarkDelivered(ctx context.Context, chatID, senderID, receiverID string) (int64, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	CountUnread(ctx context.Context, chatID, receiverID string) (int, error)
	UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a new message.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chat_messages (message_id, chat_id, sender_id, receiver_id, body, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.MessageID, msg.ChatID, msg.SenderID, msg.ReceiverID, msg.Body, msg.Status, msg.CreatedAt)
	return err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT message_id, chat_id, sender_id, receiver_id, body, status, created_at
        FROM chat_messages WHERE message_id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListByChat returns the full message log of a chat ordered by send time.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT message_id, chat_id, sender_id, receiver_id, body, status, created_at
        FROM chat_messages WHERE chat_id=$1 ORDER BY created_at ASC`, chatID)
	return msgs, err
}

// MarkDelivered promotes all sent messages of one direction to delivered and
// reports how many rows changed. Calling it again with no new messages is a
// no-op.
func (r *MessageRepo) MarkDelivered(ctx context.Context, chatID, senderID, receiverID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET status='delivered'
        WHERE chat_id=$1 AND sender_id=$2 AND receiver_id=$3 AND status='sent'`,
		chatID, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkRead promotes every message addressed to the reader in this chat to
// read. Messages already read are untouched.
func (r *MessageRepo) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET status='read'
        WHERE chat_id=$1 AND receiver_id=$2 AND status <> 'read'`,
		chatID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread counts messages addressed to receiverID that are not yet read.
func (r *MessageRepo) CountUnread(ctx context.Context, chatID, receiverID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_messages
        WHERE chat_id=$1 AND receiver_id=$2 AND status IN ('sent', 'delivered')`,
		chatID, receiverID)
	return count, err
}

// UpdateStatus sets a message's status directly. The forward-only invariant
// is enforced here rather than trusted to callers: a regressing update
// returns ErrInvalidTransition.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET status=$2
        WHERE message_id=$1
        AND (CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END)
         <= (CASE $2     WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 WHEN 'read' THEN 3 ELSE 0 END)`,
		messageID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		if _, err := r.Get(ctx, messageID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}
