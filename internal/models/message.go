package models

import (
	"strings"
	"time"
)

// MessageStatus tracks the delivery state of a message. Transitions only move
// forward: sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"

	// StatusNone is a chat-list-only marker meaning "the last message was
	// addressed to me": the viewer shows the unread count, not ticks.
	StatusNone = "none"
)

// Rank orders statuses so forward-only transitions can be enforced with a
// single comparison. Unknown statuses rank lowest.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the three message statuses.
func (s MessageStatus) Valid() bool {
	return s == StatusSent || s == StatusDelivered || s == StatusRead
}

// Message is one chat message. Content is immutable after creation; only the
// status advances.
type Message struct {
	MessageID  string        `db:"message_id" json:"messageId"`
	ChatID     string        `db:"chat_id" json:"chatId"`
	SenderID   string        `db:"sender_id" json:"senderId"`
	ReceiverID string        `db:"receiver_id" json:"receiverId"`
	Body       string        `db:"body" json:"message"`
	Status     MessageStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"timestamp"`
}

// ChatID derives the symmetric conversation identifier for two users: the
// participant ids sorted lexicographically and joined, so both sides compute
// the same id regardless of who initiated.
func ChatID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// ChatParticipants splits a chat id back into its two participant ids.
func ChatParticipants(chatID string) (string, string, bool) {
	parts := strings.SplitN(chatID, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// IsChatParticipant reports whether userID is one of the two parties of chatID.
func IsChatParticipant(chatID, userID string) bool {
	a, b, ok := ChatParticipants(chatID)
	return ok && (a == userID || b == userID)
}
