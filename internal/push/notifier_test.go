package push

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"messenger-service/internal/mocks"
)

func TestNotifyPublishesPerToken(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	notifier := NewQueueNotifier(publisher, "push.send", zerolog.Nop())

	publisher.On("Publish", mock.Anything, "push.send", mock.MatchedBy(func(n Notification) bool {
		return n.Title == "Alice" && n.Body == "hi"
	})).Return(nil).Twice()

	notifier.Notify(context.Background(), []string{"tok-1", "tok-2"}, "Alice", "hi", nil)

	publisher.AssertExpectations(t)
}

func TestNotifyEmptyTokensIsNoop(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	notifier := NewQueueNotifier(publisher, "push.send", zerolog.Nop())

	notifier.Notify(context.Background(), nil, "Alice", "hi", nil)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyContinuesPastFailures(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	notifier := NewQueueNotifier(publisher, "push.send", zerolog.Nop())

	publisher.On("Publish", mock.Anything, "push.send", mock.MatchedBy(func(n Notification) bool {
		return n.Token == "bad"
	})).Return(assert.AnError).Once()
	publisher.On("Publish", mock.Anything, "push.send", mock.MatchedBy(func(n Notification) bool {
		return n.Token == "good"
	})).Return(nil).Once()

	notifier.Notify(context.Background(), []string{"bad", "good"}, "Alice", "hi", nil)

	publisher.AssertExpectations(t)
}
