package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/auth"
)

type State string

const (
	StateLoading      State = "loading"
	StateVoting       State = "voting"
	StateAlreadyVoted State = "already-voted"
	StateError        State = "error"
)

var (
	ErrAlreadyVoted = errors.New("this device already voted on the poll")
	ErrNotVoting    = errors.New("session is not accepting votes")
	ErrNotOwner     = errors.New("only the poll owner can view this")
	ErrNoSnapshot   = errors.New("no poll snapshot loaded yet")
)

type Config struct {
	// BaseURL of the poll service, e.g. http://localhost:5000.
	BaseURL string
	PollID  string
	// Token is the optional bearer token; Identity is the claim it carries.
	// Both stay zero for anonymous viewers.
	Token    string
	Identity auth.Identity
	// Record is the device-local voted record. Optional; without it every
	// mount starts in Voting.
	Record     *VotedRecord
	HTTPClient *http.Client
}

// Session is one viewer's connection to one poll: it fetches the initial
// snapshot, subscribes to live updates and tracks whether this device voted.
// Every snapshot that arrives, from the fetch or from a broadcast, replaces
// the cached one wholesale; the last arrival wins.
type Session struct {
	cfg   Config
	httpc *http.Client

	mu            sync.Mutex
	state         State
	snapshot      *models.PollResponse
	isOwner       bool
	ownerResolved bool

	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	wg     sync.WaitGroup

	updates chan models.PollResponse
}

func NewSession(cfg Config) *Session {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Session{
		cfg:     cfg,
		httpc:   httpc,
		state:   StateLoading,
		updates: make(chan models.PollResponse, 16),
	}
}

// Start fetches the poll snapshot, checks the local voted record and opens
// the broadcast subscription. The subscription listener runs concurrently
// with the fetch, so a broadcast may land before the fetch response; both
// paths just replace the cached snapshot. Fetch failure moves the session to
// Error and returns the error. A failed subscription is tolerated silently:
// the session works, it just stops seeing live updates.
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	voted := s.cfg.Record != nil && s.cfg.Record.Has(s.cfg.PollID)

	s.subscribe()

	snapshot, err := s.fetchSnapshot(s.ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.mu.Unlock()
		return err
	}
	s.applySnapshot(snapshot)

	s.mu.Lock()
	if voted {
		s.state = StateAlreadyVoted
	} else {
		s.state = StateVoting
	}
	s.mu.Unlock()
	return nil
}

// Vote submits a vote for the given option index. From AlreadyVoted the
// request is never sent. On success the poll id is recorded durably and the
// session adopts the returned snapshot; on failure it stays in Voting.
func (s *Session) Vote(ctx context.Context, optionIndex int) error {
	s.mu.Lock()
	switch s.state {
	case StateAlreadyVoted:
		s.mu.Unlock()
		return ErrAlreadyVoted
	case StateVoting:
		s.mu.Unlock()
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotVoting, state)
	}

	body, err := json.Marshal(models.RegisterVoteRequest{OptionIndex: &optionIndex})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/votes/%s/vote", s.cfg.BaseURL, s.cfg.PollID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	res, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("vote submission failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("vote rejected: %s", readAPIError(res.Body))
	}

	var envelope models.PollEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("could not decode vote response: %w", err)
	}

	if s.cfg.Record != nil {
		if err := s.cfg.Record.Add(s.cfg.PollID); err != nil {
			return fmt.Errorf("vote recorded but voted record not persisted: %w", err)
		}
	}

	s.applySnapshot(envelope.Poll)
	s.mu.Lock()
	s.state = StateAlreadyVoted
	s.mu.Unlock()
	return nil
}

// VoterDetails fetches the per-option voter names. Owner-gated on the client
// as a shortcut; the server enforces the same check regardless.
func (s *Session) VoterDetails(ctx context.Context) (*models.VoterDetailsResponse, error) {
	if !s.IsOwner() {
		return nil, ErrNotOwner
	}

	url := fmt.Sprintf("%s/api/votes/%s/voters", s.cfg.BaseURL, s.cfg.PollID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	res, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voter details fetch failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusForbidden {
		return nil, ErrNotOwner
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voter details rejected: %s", readAPIError(res.Body))
	}

	var details models.VoterDetailsResponse
	if err := json.NewDecoder(res.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("could not decode voter details: %w", err)
	}
	return &details, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the most recently received poll snapshot, or
// nil while still loading.
func (s *Session) Snapshot() *models.PollResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	out := *s.snapshot
	out.Options = make([]models.OptionResponse, len(s.snapshot.Options))
	copy(out.Options, s.snapshot.Options)
	return &out
}

// IsOwner reports the ownership capability, resolved once when the first
// snapshot arrived by matching the session identity against the poll owner.
func (s *Session) IsOwner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOwner
}

// Updates delivers each snapshot the session adopts. Best-effort: slow
// consumers miss intermediate snapshots, never the state.
func (s *Session) Updates() <-chan models.PollResponse {
	return s.updates
}

// Close cancels in-flight work and tears down the broadcast subscription.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "session closed")
	}
	s.wg.Wait()
}

func (s *Session) fetchSnapshot(ctx context.Context) (models.PollResponse, error) {
	url := fmt.Sprintf("%s/api/polls/%s", s.cfg.BaseURL, s.cfg.PollID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.PollResponse{}, err
	}

	res, err := s.httpc.Do(req)
	if err != nil {
		return models.PollResponse{}, fmt.Errorf("poll fetch failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return models.PollResponse{}, fmt.Errorf("poll fetch rejected: %s", readAPIError(res.Body))
	}

	var envelope models.PollEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return models.PollResponse{}, fmt.Errorf("could not decode poll: %w", err)
	}
	return envelope.Poll, nil
}

// subscribe opens the websocket, joins the poll channel and starts the
// listener. Any failure here or later on the connection is silent; the
// session keeps its last snapshot and stops receiving live updates.
func (s *Session) subscribe() {
	conn, _, err := websocket.Dial(s.ctx, websocketURL(s.cfg.BaseURL)+"/api/stream", nil)
	if err != nil {
		return
	}
	join := models.JoinPollMessage{Type: models.MessageJoinPoll, PollID: s.cfg.PollID}
	if err := wsjson.Write(s.ctx, conn, join); err != nil {
		conn.Close(websocket.StatusNormalClosure, "join failed")
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.wg.Add(1)
	go s.listen(conn)
}

func (s *Session) listen(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		var event models.PollUpdatedEvent
		if err := wsjson.Read(s.ctx, conn, &event); err != nil {
			return
		}
		if event.Type != models.MessagePollUpdated || event.Poll.ID != s.cfg.PollID {
			continue
		}
		s.applySnapshot(event.Poll)
	}
}

// applySnapshot replaces the cached snapshot wholesale and resolves the
// ownership claim on first arrival. The voting state never changes here:
// broadcasts update displayed totals, not where the viewer is in the flow.
func (s *Session) applySnapshot(poll models.PollResponse) {
	s.mu.Lock()
	s.snapshot = &poll
	if !s.ownerResolved {
		s.isOwner = s.cfg.Identity.Owns(poll.Owner, poll.OwnerEmail)
		s.ownerResolved = true
	}
	s.mu.Unlock()

	select {
	case s.updates <- poll:
	default:
	}
}

func websocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return baseURL
}

func readAPIError(r io.Reader) string {
	var apiErr models.ErrorResponse
	if err := json.NewDecoder(r).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return "unexpected server response"
}
