package models

// Messages exchanged on the realtime channel. The client emits join-poll,
// the server emits poll-updated frames carrying the full snapshot.

const (
	MessageJoinPoll    = "join-poll"
	MessagePollUpdated = "poll-updated"
)

type JoinPollMessage struct {
	Type   string `json:"type"`
	PollID string `json:"pollId"`
}

type PollUpdatedEvent struct {
	Type string       `json:"type"`
	Poll PollResponse `json:"poll"`
}

func NewPollUpdatedEvent(poll PollResponse) PollUpdatedEvent {
	return PollUpdatedEvent{Type: MessagePollUpdated, Poll: poll}
}
