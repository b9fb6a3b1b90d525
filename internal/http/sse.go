package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
)

const sseHeartbeat = 30 * time.Second

// handleEvents streams game events from NATS as Server-Sent Events.
//
// Each NATS message becomes one SSE event named after the last subject
// token:
//
//	event: state_update
//	data: {"type":"state_update","player_position":7,"robot_position":4,...}
//
// The stream stays open across games until the client disconnects.
func (s *Server) handleEvents(c echo.Context) error {
	if s.nc == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event stream requires nats")
	}

	msgChan := make(chan *nats.Msg, 64)
	sub, err := s.nc.ChanSubscribe(notify.WildcardSubject(s.prefix), msgChan)
	if err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	// Set SSE headers
	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case msg := <-msgChan:
			eventType := msg.Subject[strings.LastIndex(msg.Subject, ".")+1:]
			fmt.Fprintf(c.Response(), "event: %s\n", eventType)
			fmt.Fprintf(c.Response(), "data: %s\n\n", msg.Data)
			c.Response().Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Response(), ": heartbeat\n\n")
			c.Response().Flush()

		case <-c.Request().Context().Done():
			return nil
		}
	}
}
