package models

import (
	"encoding/json"
	"time"
)

// Socket event names, inbound and outbound. Names mirror the mobile client
// contract and must not be renamed casually.
const (
	EvJoinChat        = "joinChat"
	EvLeaveChat       = "leaveChat"
	EvTyping          = "typing"
	EvStopTyping      = "stopTyping"
	EvMarkDelivered   = "markAsDelivered"
	EvMarkRead        = "markAsRead"
	EvOffer           = "offer"
	EvAnswer          = "answer"
	EvIceCandidate    = "ice-candidate"
	EvEndCall         = "end_call"
	EvUpdateChatList  = "updateChatList"
	EvUpdateChatDet   = "updateChatDetails"
	EvDelivered       = "messageDelivered"
	EvDeliveredAll    = "messageDeliveredAll"
	EvMessageRead     = "messageRead"
	EvChatListCount   = "chatListCount"
	EvUserTyping      = "userTyping"
	EvUserStopped     = "userStoppedTyping"
	EvUserStatus      = "updateUserStatus"
	EvError           = "error"
)

// TypingPayload is relayed to the conversation room excluding the sender.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
}

// DeliveryPayload identifies the messages a delivery/read event refers to.
type DeliveryPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	ChatID     string `json:"chatId"`
	MessageID  string `json:"messageId,omitempty"`
}

// ChatListCountPayload resets the reader's unread badge for one chat.
type ChatListCountPayload struct {
	Count  int    `json:"count"`
	ChatID string `json:"chatId"`
}

// PresencePayload is broadcast globally on connect and final disconnect.
type PresencePayload struct {
	UserID   string     `json:"userId"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// OfferSignal carries a WebRTC offer. SDP is relayed opaquely.
type OfferSignal struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	CallSessionID string          `json:"callSessionId"`
	IsVideoCall   bool            `json:"isVideoCall"`
	SDP           json.RawMessage `json:"sdp,omitempty"`
	UserInfo      *UserProfile    `json:"userInfo,omitempty"`
}

// AnswerSignal carries a WebRTC answer. SDP is relayed opaquely.
type AnswerSignal struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	CallSessionID string          `json:"callSessionId"`
	SDP           json.RawMessage `json:"sdp,omitempty"`
	UserInfo      *UserProfile    `json:"userInfo,omitempty"`
}

// IceSignal is a pure candidate relay; the payload is never inspected.
type IceSignal struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// EndCallSignal terminates a session. IsHangUp distinguishes a genuine
// hang-up (duration counted) from teardown after a failed negotiation.
type EndCallSignal struct {
	From          string `json:"from"`
	To            string `json:"to"`
	CallSessionID string `json:"callSessionId"`
	IsHangUp      bool   `json:"isCallHangUp"`
}

// EndCallNotice is emitted to a party when a call ends or cannot proceed.
type EndCallNotice struct {
	CallSessionID string `json:"callSessionId,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ErrorPayload is sent to the offending connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}
