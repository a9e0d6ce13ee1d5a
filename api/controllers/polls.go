package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/api/transport"
	"github.com/sayan40020805/jusense-polls/logging"
	"github.com/sayan40020805/jusense-polls/storage"
)

const (
	minPollOptions = 2
	maxPollOptions = 10
)

type PollsController struct {
	pollsStorage storage.PollStorage
	authSecret   string
}

func NewPollsController(pollStorage storage.PollStorage, authSecret string) *PollsController {
	return &PollsController{
		pollsStorage: pollStorage,
		authSecret:   authSecret,
	}
}

func (c *PollsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/polls", transport.BearerAuthMiddleware(c.authSecret))

	group.GET("", transport.RequireAuth(), c.listPolls)
	group.POST("", transport.RequireAuth(), c.createPoll)
	group.GET("/:id", c.getPoll)
}

// listPolls godoc
// @Summary List polls owned by or visible to the caller
// @Tags polls
// @Produce json
// @Security BearerToken
// @Success 200 {object} models.PollListResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/polls [get]
func (c *PollsController) listPolls(g *gin.Context) {
	identity, _ := transport.IdentityFromContext(g)

	polls, err := c.pollsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("POLL: failed to list polls: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not list polls"})
		return
	}

	visible := make([]models.PollResponse, 0, len(polls))
	for _, p := range polls {
		if p.IsPublic || identity.Owns(p.Owner, p.OwnerEmail) {
			visible = append(visible, models.TransformPollFromStorage(p))
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})

	g.JSON(http.StatusOK, models.PollListResponse{Polls: visible})
}

// createPoll godoc
// @Summary Create a poll
// @Description Creates a multiple-choice poll. Options are immutable once created.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerToken
// @Param poll body models.CreatePollRequest true "Poll to create"
// @Success 201 {object} models.PollEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/polls [post]
func (c *PollsController) createPoll(g *gin.Context) {
	identity, _ := transport.IdentityFromContext(g)

	var req models.CreatePollRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "question is required"})
		return
	}

	options := make([]storage.Option, 0, len(req.Options))
	for _, o := range req.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			continue
		}
		options = append(options, storage.Option{Text: text})
	}
	if len(options) < minPollOptions || len(options) > maxPollOptions {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "a poll needs between 2 and 10 options"})
		return
	}

	id, err := gonanoid.New()
	if err != nil {
		logging.Log.Errorf("POLL: failed to generate poll id: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not create poll"})
		return
	}

	poll := &storage.Poll{
		ID:         id,
		Question:   req.Question,
		Options:    options,
		IsPublic:   req.IsPublic,
		Owner:      identity.ID,
		OwnerEmail: identity.Email,
	}
	if err := c.pollsStorage.Create(g.Request.Context(), poll); err != nil {
		logging.Log.Errorf("POLL: failed to create poll: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not create poll"})
		return
	}

	logging.Log.Infof("POLL: created poll %s with %d options", poll.ID, len(poll.Options))
	g.JSON(http.StatusCreated, models.PollEnvelope{Poll: models.TransformPollFromStorage(poll)})
}

// getPoll godoc
// @Summary Get the public snapshot of a poll
// @Tags polls
// @Produce json
// @Param id path string true "Poll ID"
// @Success 200 {object} models.PollEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/polls/{id} [get]
func (c *PollsController) getPoll(g *gin.Context) {
	id := g.Param("id")

	poll, err := c.pollsStorage.Get(g.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "poll not found"})
			return
		}
		logging.Log.Errorf("POLL: failed to get poll %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load poll"})
		return
	}

	g.JSON(http.StatusOK, models.PollEnvelope{Poll: models.TransformPollFromStorage(poll)})
}
