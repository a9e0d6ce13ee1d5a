package controllers

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/sayan40020805/jusense-polls/api/models"
	"github.com/sayan40020805/jusense-polls/logging"
	"github.com/sayan40020805/jusense-polls/realtime"
)

const writeTimeout = 5 * time.Second

// RealtimeController serves the websocket channel. A connection emits
// join-poll messages to pick the poll it watches and receives poll-updated
// frames with the full snapshot on every committed vote.
type RealtimeController struct {
	hub *realtime.Hub
}

func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

func (c *RealtimeController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/api/stream", c.stream)
}

// stream godoc
// @Summary Realtime poll updates over websocket
// @Description Client sends {"type":"join-poll","pollId":"..."}; server pushes {"type":"poll-updated","poll":{...}} frames.
// @Tags realtime
// @Router /api/stream [get]
func (c *RealtimeController) stream(g *gin.Context) {
	conn, err := websocket.Accept(g.Writer, g.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logging.Log.Warnf("WS: websocket accept failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(g.Request.Context())
	defer cancel()

	joins := make(chan string)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var msg models.JoinPollMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			if msg.Type != models.MessageJoinPoll || msg.PollID == "" {
				continue
			}
			select {
			case joins <- msg.PollID:
			case <-ctx.Done():
				return
			}
		}
	}()

	var sub *realtime.Subscription
	var events <-chan models.PollUpdatedEvent
	defer func() {
		if sub != nil {
			c.hub.Unsubscribe(sub)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readDone:
			// Client went away; drop the subscription silently.
			conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case pollID := <-joins:
			if sub != nil {
				c.hub.Unsubscribe(sub)
			}
			sub = c.hub.Subscribe(pollID)
			events = sub.Events()
			logging.Log.Infof("WS: connection joined poll %s (%d watching)", pollID, c.hub.SubscriberCount(pollID))
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancelWrite()
			if err != nil {
				conn.Close(websocket.StatusNormalClosure, "write failed")
				return
			}
		}
	}
}
