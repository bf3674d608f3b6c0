// Package push dispatches push notifications. Actual delivery (FCM and
// friends) belongs to a downstream worker; this service only enqueues.
package push

import (
	"context"

	"github.com/rs/zerolog"

	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
)

// Notifier is fire-and-forget: failures are logged per token, never raised to
// the caller.
type Notifier interface {
	Notify(ctx context.Context, tokens []string, title, body string, data map[string]string)
}

// Notification is the payload handed to the delivery worker, one per token.
type Notification struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// QueueNotifier publishes notifications to the events exchange.
type QueueNotifier struct {
	publisher  rabbitmq.Publisher
	routingKey string
	log        zerolog.Logger
}

// NewQueueNotifier constructs a QueueNotifier.
func NewQueueNotifier(publisher rabbitmq.Publisher, routingKey string, log zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, routingKey: routingKey, log: log}
}

// Notify enqueues one notification per token. An empty token list is logged
// and dropped.
func (n *QueueNotifier) Notify(ctx context.Context, tokens []string, title, body string, data map[string]string) {
	if len(tokens) == 0 {
		n.log.Debug().Str("title", title).Msg("no push tokens available")
		return
	}

	for _, token := range tokens {
		err := n.publisher.Publish(ctx, n.routingKey, Notification{
			Token: token,
			Title: title,
			Body:  body,
			Data:  data,
		})
		if err != nil {
			observability.IncPush("error")
			n.log.Error().Err(err).Str("token", token).Msg("push dispatch failed")
			continue
		}
		observability.IncPush("queued")
	}
}
