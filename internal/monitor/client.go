package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrHistoryDisabled is returned when the server runs without a history store.
var ErrHistoryDisabled = errors.New("history disabled on server")

// GameState mirrors GET /api/v1/game/state.
type GameState struct {
	Running        bool   `json:"running"`
	SessionID      string `json:"session_id"`
	PlayerPosition int    `json:"player_position"`
	RobotPosition  int    `json:"robot_position"`
	CurrentTurn    string `json:"current_turn"`
	GameOver       bool   `json:"game_over"`
	Winner         string `json:"winner"`
	Error          string `json:"error"`
}

// Stats mirrors GET /api/v1/history/stats.
type Stats struct {
	Games      int `json:"games"`
	PlayerWins int `json:"player_wins"`
	RobotWins  int `json:"robot_wins"`
	Unfinished int `json:"unfinished"`
}

// Client polls a snakebot server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// State fetches the current or last game.
func (c *Client) State(ctx context.Context) (GameState, error) {
	var st GameState
	if err := c.get(ctx, "/api/v1/game/state", &st); err != nil {
		return GameState{}, err
	}
	return st, nil
}

// Stats fetches the win totals. It returns ErrHistoryDisabled when the
// server has no history store.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := c.get(ctx, "/api/v1/history/stats", &st); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		return ErrHistoryDisabled
	default:
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
