// Package chat implements the message lifecycle state machine and the
// chat-list projection.
package chat

import "errors"

var (
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("sender, receiver, and message are required")

	// ErrBadStatus is returned for a status outside sent/delivered/read.
	ErrBadStatus = errors.New("unknown message status")
)
