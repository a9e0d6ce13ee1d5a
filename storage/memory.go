package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryPollStorage is the in-process driver used for local development and
// tests. It honors the same compare-and-increment contract as the DynamoDB
// driver.
type MemoryPollStorage struct {
	mu    sync.Mutex
	polls map[string]*Poll
}

func NewMemoryPollStorage() *MemoryPollStorage {
	return &MemoryPollStorage{polls: make(map[string]*Poll)}
}

func (s *MemoryPollStorage) Get(ctx context.Context, id string) (*Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok {
		return nil, ErrPollNotFound
	}
	return clonePoll(poll), nil
}

func (s *MemoryPollStorage) GetAll(ctx context.Context) ([]*Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	polls := make([]*Poll, 0, len(s.polls))
	for _, p := range s.polls {
		polls = append(polls, clonePoll(p))
	}
	return polls, nil
}

func (s *MemoryPollStorage) Create(ctx context.Context, poll *Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if poll.CreatedAt.IsZero() {
		poll.CreatedAt = time.Now().UTC()
	}
	s.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (s *MemoryPollStorage) IncrementVote(ctx context.Context, id string, optionIndex int, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok {
		return ErrPollNotFound
	}
	if poll.Version != expectedVersion {
		return ErrVersionConflict
	}
	poll.Options[optionIndex].Votes++
	poll.TotalVotes++
	poll.Version++
	return nil
}

func clonePoll(p *Poll) *Poll {
	out := *p
	out.Options = make([]Option, len(p.Options))
	copy(out.Options, p.Options)
	return &out
}

// MemoryVoteStorage keeps the append-only vote log per poll.
type MemoryVoteStorage struct {
	mu    sync.Mutex
	votes map[string][]*Vote
	keys  map[string]struct{}
}

func NewMemoryVoteStorage() *MemoryVoteStorage {
	return &MemoryVoteStorage{
		votes: make(map[string][]*Vote),
		keys:  make(map[string]struct{}),
	}
}

func (s *MemoryVoteStorage) Create(ctx context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vote.PollID + "/" + vote.SortKey
	if _, exists := s.keys[key]; exists {
		return ErrVoteAlreadyExists
	}
	s.keys[key] = struct{}{}
	v := *vote
	s.votes[vote.PollID] = append(s.votes[vote.PollID], &v)
	return nil
}

func (s *MemoryVoteStorage) GetByPoll(ctx context.Context, pollID string) ([]*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	votes := make([]*Vote, 0, len(s.votes[pollID]))
	for _, v := range s.votes[pollID] {
		out := *v
		votes = append(votes, &out)
	}
	return votes, nil
}
