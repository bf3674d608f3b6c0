package models

import "time"

// ChatListEntry is the denormalized per-viewer conversation summary. Each
// two-party conversation has two entries, one per participant, updated
// independently on every send and status change.
type ChatListEntry struct {
	UserID            string    `db:"user_id" json:"userId"`
	ChatID            string    `db:"chat_id" json:"chatId"`
	ParticipantA      string    `db:"participant_a" json:"-"`
	ParticipantB      string    `db:"participant_b" json:"-"`
	LastMessage       string    `db:"last_message" json:"lastMessage"`
	LastSenderID      string    `db:"last_sender_id" json:"senderId"`
	LastReceiverID    string    `db:"last_receiver_id" json:"receiverId"`
	LastMessageTime   time.Time `db:"last_message_time" json:"lastMessageTime"`
	LastMessageStatus string    `db:"last_message_status" json:"lastMessageStatus"`
	UnreadCount       int       `db:"unread_count" json:"unreadCount"`
}

// Participants returns both party ids in stored (sorted) order.
func (e ChatListEntry) Participants() []string {
	return []string{e.ParticipantA, e.ParticipantB}
}

// Opponent resolves the other participant relative to the viewing user by
// comparing the stored sender/receiver references, not array position. The
// second return is false when neither side matches the viewer, i.e. the entry
// carries a broken reference.
func (e ChatListEntry) Opponent(userID string) (string, bool) {
	switch userID {
	case e.LastSenderID:
		return e.LastReceiverID, true
	case e.LastReceiverID:
		return e.LastSenderID, true
	}
	return "", false
}

// LastMessageInfo is the last-message snapshot embedded in chat-list
// projections.
type LastMessageInfo struct {
	Text       string    `json:"text"`
	Status     string    `json:"status"`
	Time       time.Time `json:"time"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
}

// ChatSummary is one row of the opponent-centric chat list view.
type ChatSummary struct {
	ChatID      string          `json:"chatId"`
	LastMessage LastMessageInfo `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
	Opponent    *UserProfile    `json:"opponent"`
}
