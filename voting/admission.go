package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/logging"
	"github.com/sayan40020805/jusense-polls/realtime"
	"github.com/sayan40020805/jusense-polls/storage"
)

var ErrInvalidOption = errors.New("option index is out of range")

// Commit retries on version conflict. Conflicts only happen when several
// votes land on the same poll at once, and every retry re-reads the poll.
const maxCommitRetries = 5

// Admission validates and commits a single vote against the poll store and
// publishes the updated snapshot to every connected viewer of the poll.
//
// There is no server-side per-voter idempotency here: the duplicate guard is
// the device-local voted record kept by clients, a deliberate tradeoff so
// anonymous voting needs no durable per-voter key.
type Admission struct {
	polls storage.PollStorage
	votes storage.VoteStorage
	hub   *realtime.Hub
}

func NewAdmission(polls storage.PollStorage, votes storage.VoteStorage, hub *realtime.Hub) *Admission {
	return &Admission{
		polls: polls,
		votes: votes,
		hub:   hub,
	}
}

// SubmitVote appends a vote for the given option, increments the option and
// poll totals, and returns the updated poll snapshot. voterName is the
// display name recorded for the vote ("Anonymous" for unauthenticated
// voters).
func (a *Admission) SubmitVote(ctx context.Context, pollID string, optionIndex int, voterName string) (*storage.Poll, error) {
	poll, err := a.polls.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, ErrInvalidOption
	}

	voteID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("could not generate vote id: %w", err)
	}
	vote := &storage.Vote{
		PollID:      pollID,
		SortKey:     fmt.Sprintf("opt#%d#%s", optionIndex, voteID),
		OptionIndex: optionIndex,
		VoterName:   voterName,
		Timestamp:   time.Now().UTC(),
	}
	if err := a.votes.Create(ctx, vote); err != nil {
		return nil, fmt.Errorf("could not persist vote: %w", err)
	}

	if err := a.commitIncrement(ctx, poll, optionIndex); err != nil {
		return nil, err
	}

	updated, err := a.polls.Get(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("could not reload poll after vote: %w", err)
	}

	a.hub.Publish(pollID, models.TransformPollFromStorage(updated))
	logging.Log.Infof("VOTE: recorded vote for option %d on poll %s (total %d)", optionIndex, pollID, updated.TotalVotes)
	return updated, nil
}

// commitIncrement runs the compare-and-increment against the store, re-reading
// the poll on version conflicts so concurrent votes are all recorded.
func (a *Admission) commitIncrement(ctx context.Context, poll *storage.Poll, optionIndex int) error {
	version := poll.Version
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		err := a.polls.IncrementVote(ctx, poll.ID, optionIndex, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return fmt.Errorf("could not commit vote: %w", err)
		}

		fresh, err := a.polls.Get(ctx, poll.ID)
		if err != nil {
			return fmt.Errorf("could not reload poll for retry: %w", err)
		}
		version = fresh.Version
	}
	return fmt.Errorf("could not commit vote after %d attempts: %w", maxCommitRetries, storage.ErrVersionConflict)
}
