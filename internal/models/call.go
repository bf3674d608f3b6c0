package models

import "time"

// CallType distinguishes audio from video calls.
type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

// CallStatus is the lifecycle state of a call session. Sessions are created
// as missed so that every early failure path leaves a correct audit trail;
// completed, missed, rejected and failed are terminal.
type CallStatus string

const (
	CallOngoing   CallStatus = "ongoing"
	CallCompleted CallStatus = "completed"
	CallMissed    CallStatus = "missed"
	CallRejected  CallStatus = "rejected"
	CallFailed    CallStatus = "failed"
)

// CallSession is one signaling and media negotiation attempt between two
// users.
type CallSession struct {
	CallSessionID    string     `db:"call_session_id" json:"callSessionId"`
	CallerID         string     `db:"caller_id" json:"callerId"`
	ReceiverID       string     `db:"receiver_id" json:"receiverId"`
	CallType         CallType   `db:"call_type" json:"callType"`
	Status           CallStatus `db:"status" json:"status"`
	StartTime        time.Time  `db:"start_time" json:"startTime"`
	EndTime          *time.Time `db:"end_time" json:"endTime,omitempty"`
	DurationSeconds  int        `db:"duration_seconds" json:"durationSeconds"`
	DisconnectReason string     `db:"disconnect_reason" json:"disconnectReason,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// CallLogEntry is the per-viewer call history row with direction and the
// opposite party's public profile resolved.
type CallLogEntry struct {
	CallSessionID   string       `json:"callSessionId"`
	CallType        CallType     `json:"callType"`
	Status          CallStatus   `json:"status"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         *time.Time   `json:"endTime,omitempty"`
	DurationSeconds int          `json:"durationSeconds"`
	Direction       string       `json:"direction"`
	OtherUser       *UserProfile `json:"otherUser"`
}
