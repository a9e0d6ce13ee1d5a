package realtime

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/logging"
)

func init() {
	logging.Log = logrus.New()
}

func snapshot(id string, total int) models.PollResponse {
	return models.PollResponse{ID: id, TotalVotes: total}
}

func TestHubPublish(t *testing.T) {
	t.Run("Happy path - subscriber receives the snapshot", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")
		defer hub.Unsubscribe(sub)

		hub.Publish("p-1", snapshot("p-1", 1))

		event := <-sub.Events()
		assert.Equal(t, models.MessagePollUpdated, event.Type)
		assert.Equal(t, "p-1", event.Poll.ID)
		assert.Equal(t, 1, event.Poll.TotalVotes)
	})

	t.Run("Happy path - events arrive in publish order", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")
		defer hub.Unsubscribe(sub)

		for i := 1; i <= 5; i++ {
			hub.Publish("p-1", snapshot("p-1", i))
		}

		for i := 1; i <= 5; i++ {
			event := <-sub.Events()
			assert.Equal(t, i, event.Poll.TotalVotes)
		}
	})

	t.Run("Happy path - every subscriber of the poll is notified", func(t *testing.T) {
		hub := NewHub()
		first := hub.Subscribe("p-1")
		second := hub.Subscribe("p-1")
		defer hub.Unsubscribe(first)
		defer hub.Unsubscribe(second)

		hub.Publish("p-1", snapshot("p-1", 1))

		assert.Equal(t, 1, (<-first.Events()).Poll.TotalVotes)
		assert.Equal(t, 1, (<-second.Events()).Poll.TotalVotes)
	})

	t.Run("Happy path - other polls are isolated", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")
		defer hub.Unsubscribe(sub)

		hub.Publish("p-2", snapshot("p-2", 1))

		select {
		case event := <-sub.Events():
			t.Fatalf("unexpected event for poll %s", event.Poll.ID)
		default:
		}
	})

	t.Run("Happy path - publish without subscribers is a no-op", func(t *testing.T) {
		hub := NewHub()
		hub.Publish("p-1", snapshot("p-1", 1))
	})
}

func TestHubSlowSubscriber(t *testing.T) {
	t.Run("Happy path - full buffer drops instead of blocking", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")
		defer hub.Unsubscribe(sub)

		// Never read; publishing past the buffer must not block.
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish("p-1", snapshot("p-1", i))
		}

		assert.Len(t, sub.Events(), subscriberBuffer)
	})
}

func TestHubUnsubscribe(t *testing.T) {
	t.Run("Happy path - closes the event channel", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")

		hub.Unsubscribe(sub)

		_, open := <-sub.Events()
		assert.False(t, open)
		assert.Equal(t, 0, hub.SubscriberCount("p-1"))
	})

	t.Run("Happy path - idempotent", func(t *testing.T) {
		hub := NewHub()
		sub := hub.Subscribe("p-1")

		hub.Unsubscribe(sub)
		require.NotPanics(t, func() { hub.Unsubscribe(sub) })
	})

	t.Run("Happy path - remaining subscribers still receive events", func(t *testing.T) {
		hub := NewHub()
		gone := hub.Subscribe("p-1")
		stays := hub.Subscribe("p-1")
		defer hub.Unsubscribe(stays)

		hub.Unsubscribe(gone)
		hub.Publish("p-1", snapshot("p-1", 1))

		assert.Equal(t, 1, (<-stays.Events()).Poll.TotalVotes)
	})
}
