package storage

import "time"

type Poll struct {
	ID         string    `dynamodbav:"PK"`
	Question   string    `dynamodbav:"Question"`
	Options    []Option  `dynamodbav:"Options"`
	IsPublic   bool      `dynamodbav:"IsPublic"`
	Owner      string    `dynamodbav:"Owner"`
	OwnerEmail string    `dynamodbav:"OwnerEmail"`
	TotalVotes int       `dynamodbav:"TotalVotes"`
	Version    int64     `dynamodbav:"Version"`
	CreatedAt  time.Time `dynamodbav:"CreatedAt"`
}

// Option position inside the poll's option list is the index votes refer to.
// Options are immutable once the poll is created.
type Option struct {
	Text  string `dynamodbav:"Text"`
	Votes int    `dynamodbav:"Votes"`
}

type Vote struct {
	PollID      string    `dynamodbav:"PK" json:"pollId"`
	SortKey     string    `dynamodbav:"SK" json:"-"` // opt#<index>#<vote id>
	OptionIndex int       `dynamodbav:"OptionIndex" json:"optionIndex"`
	VoterName   string    `dynamodbav:"VoterName" json:"voterName"`
	Timestamp   time.Time `dynamodbav:"Timestamp" json:"timestamp"`
}
