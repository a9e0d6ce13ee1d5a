package models

import (
	"time"

	"github.com/sayan40020805/jusense-polls/storage"
)

type OptionPayload struct {
	Text string `json:"text"`
}

type CreatePollRequest struct {
	Question string          `json:"question"`
	Options  []OptionPayload `json:"options"`
	IsPublic bool            `json:"isPublic"`
}

type OptionResponse struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollResponse is the public snapshot of a poll: the full current state as of
// the last fetch or broadcast. Clients replace it wholesale, never patch it.
type PollResponse struct {
	ID         string           `json:"id"`
	Question   string           `json:"question"`
	Options    []OptionResponse `json:"options"`
	TotalVotes int              `json:"totalVotes"`
	IsPublic   bool             `json:"isPublic"`
	Owner      string           `json:"owner,omitempty"`
	OwnerEmail string           `json:"ownerEmail,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type PollEnvelope struct {
	Poll PollResponse `json:"poll"`
}

type PollListResponse struct {
	Polls []PollResponse `json:"polls"`
}

func TransformPollFromStorage(p *storage.Poll) PollResponse {
	options := make([]OptionResponse, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, OptionResponse{Text: o.Text, Votes: o.Votes})
	}
	return PollResponse{
		ID:         p.ID,
		Question:   p.Question,
		Options:    options,
		TotalVotes: p.TotalVotes,
		IsPublic:   p.IsPublic,
		Owner:      p.Owner,
		OwnerEmail: p.OwnerEmail,
		CreatedAt:  p.CreatedAt,
	}
}
