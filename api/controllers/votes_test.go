package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutils "github.com/sayan40020805/jusense-polls/api/controllers/testing"
	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/auth"
	"github.com/sayan40020805/jusense-polls/storage"
)

func teaOrCoffee(owner, ownerEmail string) *storage.Poll {
	return &storage.Poll{
		ID:         "p-1",
		Question:   "Tea or coffee?",
		Options:    []storage.Option{{Text: "Tea"}, {Text: "Coffee"}},
		IsPublic:   true,
		Owner:      owner,
		OwnerEmail: ownerEmail,
	}
}

func votePayload(index int, name string) models.RegisterVoteRequest {
	return models.RegisterVoteRequest{OptionIndex: &index, Name: name}
}

func TestRegisterVote(t *testing.T) {
	t.Run("Happy path - vote lands on the chosen option and is broadcast", func(t *testing.T) {
		router, polls, _, hub := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		// A viewer connected before the vote.
		sub := hub.Subscribe("p-1")
		defer hub.Unsubscribe(sub)

		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(1, "Bob"), nil)

		require.Equal(t, http.StatusOK, res.Code)
		var envelope models.PollEnvelope
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envelope))
		assert.Equal(t, 0, envelope.Poll.Options[0].Votes)
		assert.Equal(t, 1, envelope.Poll.Options[1].Votes)
		assert.Equal(t, 1, envelope.Poll.TotalVotes)

		event := <-sub.Events()
		assert.Equal(t, models.MessagePollUpdated, event.Type)
		assert.Equal(t, envelope.Poll, event.Poll, "subscribers get the exact same snapshot without re-fetching")
	})

	t.Run("Happy path - anonymous voter is recorded as Anonymous", func(t *testing.T) {
		router, polls, votes, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(0, ""), nil)

		require.Equal(t, http.StatusOK, res.Code)
		recorded, err := votes.GetByPoll(context.Background(), "p-1")
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, "Anonymous", recorded[0].VoterName)
	})

	t.Run("Happy path - authenticated voter name comes from the claim", func(t *testing.T) {
		router, polls, votes, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		headers := bearerHeaders(t, auth.Identity{ID: "u-bob", Email: "bob@example.com", Name: "Bob"})
		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(0, ""), headers)

		require.Equal(t, http.StatusOK, res.Code)
		recorded, err := votes.GetByPoll(context.Background(), "p-1")
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, "Bob", recorded[0].VoterName)
	})

	t.Run("Unhappy path - option index out of range", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(5, ""), nil)

		assert.Equal(t, http.StatusBadRequest, res.Code)

		poll, err := polls.Get(context.Background(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, 0, poll.TotalVotes, "rejected vote must not change counts")
	})

	t.Run("Unhappy path - unknown poll", func(t *testing.T) {
		router, _, _, _ := setupTestServer(t)

		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/missing/vote", votePayload(0, ""), nil)

		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("Unhappy path - missing optionIndex", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		res := testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", models.RegisterVoteRequest{}, nil)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestGetVoterDetails(t *testing.T) {
	alice := auth.Identity{ID: "u-alice", Email: "alice@example.com", Name: "Alice"}
	bob := auth.Identity{ID: "u-bob", Email: "bob@example.com", Name: "Bob"}

	t.Run("Happy path - owner sees voters grouped by option", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		require.Equal(t, http.StatusOK,
			testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(0, "Bob"), nil).Code)
		require.Equal(t, http.StatusOK,
			testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(1, "Carol"), nil).Code)
		require.Equal(t, http.StatusOK,
			testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(1, "Dave"), nil).Code)

		res := testutils.PerformRequest(router, http.MethodGet, "/api/votes/p-1/voters", nil, bearerHeaders(t, alice))

		require.Equal(t, http.StatusOK, res.Code)
		var details models.VoterDetailsResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &details))
		require.Len(t, details.VoterDetails, 2)
		assert.Equal(t, []string{"Bob"}, details.VoterDetails[0].Voters)
		assert.ElementsMatch(t, []string{"Carol", "Dave"}, details.VoterDetails[1].Voters)
		assert.Equal(t, 3, details.TotalVotes)
	})

	t.Run("Happy path - ownership also matches by email", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("", "alice@example.com"))

		res := testutils.PerformRequest(router, http.MethodGet, "/api/votes/p-1/voters", nil,
			bearerHeaders(t, auth.Identity{Email: "Alice@Example.com"}))

		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Unhappy path - non-owner gets access denied and no names", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		require.Equal(t, http.StatusOK,
			testutils.PerformRequest(router, http.MethodPost, "/api/votes/p-1/vote", votePayload(0, "Carol"), nil).Code)

		res := testutils.PerformRequest(router, http.MethodGet, "/api/votes/p-1/voters", nil, bearerHeaders(t, bob))

		assert.Equal(t, http.StatusForbidden, res.Code)
		assert.NotContains(t, res.Body.String(), "Carol", "denied response must not leak voter names")
		assert.NotContains(t, res.Body.String(), "voterDetails")
	})

	t.Run("Unhappy path - no token", func(t *testing.T) {
		router, polls, _, _ := setupTestServer(t)
		seedPoll(t, polls, teaOrCoffee("u-alice", "alice@example.com"))

		res := testutils.PerformRequest(router, http.MethodGet, "/api/votes/p-1/voters", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - unknown poll", func(t *testing.T) {
		router, _, _, _ := setupTestServer(t)

		res := testutils.PerformRequest(router, http.MethodGet, "/api/votes/missing/voters", nil, bearerHeaders(t, alice))

		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}
