package realtime

import (
	"sync"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/logging"
)

// Buffer per subscriber. A viewer that falls this far behind loses events
// rather than blocking the publisher; it catches up on the next snapshot.
const subscriberBuffer = 16

// Hub fans poll snapshots out to every connection currently viewing a poll.
// Delivery is at-most-once best-effort: there is no replay buffer, a client
// disconnected at publish time misses that update and re-fetches on remount.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

type Subscription struct {
	pollID string
	events chan models.PollUpdatedEvent
}

// Events delivers snapshots for the subscribed poll in publish order.
// The channel is closed on Unsubscribe.
func (s *Subscription) Events() <-chan models.PollUpdatedEvent {
	return s.events
}

func (s *Subscription) PollID() string {
	return s.pollID
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(pollID string) *Subscription {
	sub := &Subscription{
		pollID: pollID,
		events: make(chan models.PollUpdatedEvent, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[pollID] == nil {
		h.subs[pollID] = make(map[*Subscription]struct{})
	}
	h.subs[pollID][sub] = struct{}{}
	return sub
}

// Unsubscribe is idempotent and safe to call after the connection dropped.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.pollID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.pollID)
	}
	close(sub.events)
}

// Publish enqueues the snapshot for every subscriber of the poll. Sends are
// non-blocking; a full subscriber buffer drops the event for that subscriber
// only. Holding the lock across the whole fan-out keeps events for one poll
// in publish order for every subscriber.
func (h *Hub) Publish(pollID string, snapshot models.PollResponse) {
	event := models.NewPollUpdatedEvent(snapshot)

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[pollID] {
		select {
		case sub.events <- event:
		default:
			logging.Log.Warnf("WS: dropping update for slow subscriber on poll %s", pollID)
		}
	}
}

// SubscriberCount reports how many connections are watching a poll.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[pollID])
}
