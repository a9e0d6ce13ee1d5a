package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/api/transport"
	"github.com/sayan40020805/jusense-polls/logging"
	"github.com/sayan40020805/jusense-polls/storage"
	"github.com/sayan40020805/jusense-polls/voting"
)

type VotesController struct {
	admission    *voting.Admission
	pollsStorage storage.PollStorage
	votesStorage storage.VoteStorage
	authSecret   string
}

func NewVotesController(admission *voting.Admission, pollStorage storage.PollStorage, voteStorage storage.VoteStorage, authSecret string) *VotesController {
	return &VotesController{
		admission:    admission,
		pollsStorage: pollStorage,
		votesStorage: voteStorage,
		authSecret:   authSecret,
	}
}

func (c *VotesController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/votes", transport.BearerAuthMiddleware(c.authSecret))

	group.POST("/:id/vote", c.registerVote)
	group.GET("/:id/voters", transport.RequireAuth(), c.getVoterDetails)
}

// registerVote godoc
// @Summary Register a vote on a poll
// @Description Accepts a vote for one option index. A bearer token is optional; anonymous votes are allowed.
// @Tags votes
// @Accept json
// @Produce json
// @Param id path string true "Poll ID"
// @Param vote body models.RegisterVoteRequest true "Vote submission"
// @Success 200 {object} models.PollEnvelope
// @Failure 400 {object} models.ErrorResponse "Invalid vote data or option index"
// @Failure 404 {object} models.ErrorResponse "Unknown poll"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/votes/{id}/vote [post]
func (c *VotesController) registerVote(g *gin.Context) {
	pollID := g.Param("id")

	var req models.RegisterVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}
	if req.OptionIndex == nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "optionIndex is required"})
		return
	}

	identity, _ := transport.IdentityFromContext(g)
	voterName := req.Name
	if voterName == "" {
		voterName = identity.DisplayName()
	}

	poll, err := c.admission.SubmitVote(g.Request.Context(), pollID, *req.OptionIndex, voterName)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPollNotFound):
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "poll not found"})
		case errors.Is(err, voting.ErrInvalidOption):
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid option"})
		default:
			logging.Log.Errorf("VOTE: failed to register vote on poll %s: %v", pollID, err)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not register vote"})
		}
		return
	}

	g.JSON(http.StatusOK, models.PollEnvelope{Poll: models.TransformPollFromStorage(poll)})
}

// getVoterDetails godoc
// @Summary Get per-option voter names for a poll
// @Description Only the poll owner may see who voted for what. Everyone else gets 403, never partial data.
// @Tags votes
// @Produce json
// @Security BearerToken
// @Param id path string true "Poll ID"
// @Success 200 {object} models.VoterDetailsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse "Caller is not the poll owner"
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/votes/{id}/voters [get]
func (c *VotesController) getVoterDetails(g *gin.Context) {
	pollID := g.Param("id")
	identity, _ := transport.IdentityFromContext(g)

	poll, err := c.pollsStorage.Get(g.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "poll not found"})
			return
		}
		logging.Log.Errorf("VOTE: failed to get poll %s for voter details: %v", pollID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load poll"})
		return
	}

	if !identity.Owns(poll.Owner, poll.OwnerEmail) {
		logging.Log.Warnf("VOTE: non-owner requested voter details for poll %s", pollID)
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "access denied: only the poll owner can view voter details"})
		return
	}

	votes, err := c.votesStorage.GetByPoll(g.Request.Context(), pollID)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to load votes for poll %s: %v", pollID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load voter details"})
		return
	}

	details := make([]models.OptionVoters, len(poll.Options))
	for i := range details {
		details[i].Voters = []string{}
	}
	for _, v := range votes {
		if v.OptionIndex < 0 || v.OptionIndex >= len(details) {
			continue
		}
		details[v.OptionIndex].Voters = append(details[v.OptionIndex].Voters, v.VoterName)
	}

	g.JSON(http.StatusOK, models.VoterDetailsResponse{
		VoterDetails: details,
		TotalVotes:   poll.TotalVotes,
	})
}
