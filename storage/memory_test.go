package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPollStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - create and get returns an independent copy", func(t *testing.T) {
		s := NewMemoryPollStorage()
		poll := &Poll{
			ID:       "p-1",
			Question: "Tea or coffee?",
			Options:  []Option{{Text: "Tea"}, {Text: "Coffee"}},
		}
		require.NoError(t, s.Create(ctx, poll))

		got, err := s.Get(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Tea or coffee?", got.Question)
		assert.False(t, got.CreatedAt.IsZero())

		got.Options[0].Votes = 99
		again, err := s.Get(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Options[0].Votes, "mutating a returned poll must not touch the store")
	})

	t.Run("Unhappy path - unknown poll", func(t *testing.T) {
		s := NewMemoryPollStorage()
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrPollNotFound)
	})

	t.Run("Happy path - increment bumps option, total and version together", func(t *testing.T) {
		s := NewMemoryPollStorage()
		require.NoError(t, s.Create(ctx, &Poll{
			ID:      "p-1",
			Options: []Option{{Text: "Tea"}, {Text: "Coffee"}},
		}))

		require.NoError(t, s.IncrementVote(ctx, "p-1", 1, 0))

		got, err := s.Get(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Options[0].Votes)
		assert.Equal(t, 1, got.Options[1].Votes)
		assert.Equal(t, 1, got.TotalVotes)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("Unhappy path - stale version is refused", func(t *testing.T) {
		s := NewMemoryPollStorage()
		require.NoError(t, s.Create(ctx, &Poll{
			ID:      "p-1",
			Options: []Option{{Text: "Tea"}},
		}))
		require.NoError(t, s.IncrementVote(ctx, "p-1", 0, 0))

		err := s.IncrementVote(ctx, "p-1", 0, 0)
		assert.ErrorIs(t, err, ErrVersionConflict)

		got, err := s.Get(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalVotes, "refused increment must not change counts")
	})

	t.Run("Unhappy path - increment on unknown poll", func(t *testing.T) {
		s := NewMemoryPollStorage()
		assert.ErrorIs(t, s.IncrementVote(ctx, "missing", 0, 0), ErrPollNotFound)
	})
}

func TestMemoryVoteStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - append and read back in order", func(t *testing.T) {
		s := NewMemoryVoteStorage()
		require.NoError(t, s.Create(ctx, &Vote{PollID: "p-1", SortKey: "opt#0#a", OptionIndex: 0, VoterName: "Alice"}))
		require.NoError(t, s.Create(ctx, &Vote{PollID: "p-1", SortKey: "opt#1#b", OptionIndex: 1, VoterName: "Bob"}))
		require.NoError(t, s.Create(ctx, &Vote{PollID: "p-2", SortKey: "opt#0#c", OptionIndex: 0, VoterName: "Carol"}))

		votes, err := s.GetByPoll(ctx, "p-1")
		require.NoError(t, err)
		require.Len(t, votes, 2)
		assert.Equal(t, "Alice", votes[0].VoterName)
		assert.Equal(t, "Bob", votes[1].VoterName)
	})

	t.Run("Unhappy path - duplicate key is refused", func(t *testing.T) {
		s := NewMemoryVoteStorage()
		require.NoError(t, s.Create(ctx, &Vote{PollID: "p-1", SortKey: "opt#0#a"}))
		assert.ErrorIs(t, s.Create(ctx, &Vote{PollID: "p-1", SortKey: "opt#0#a"}), ErrVoteAlreadyExists)
	})

	t.Run("Happy path - poll with no votes yields empty slice", func(t *testing.T) {
		s := NewMemoryVoteStorage()
		votes, err := s.GetByPoll(ctx, "p-1")
		require.NoError(t, err)
		assert.Empty(t, votes)
	})
}
