package http

import "time"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SuccessResponse is the body of every game command response.
type SuccessResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DiceRequest is the request body for POST /api/v1/game/dice.
type DiceRequest struct {
	DiceValue int `json:"dice_value"`
}

// StateResponse is the response body for GET /api/v1/game/state.
type StateResponse struct {
	Running        bool   `json:"running"`
	SessionID      string `json:"session_id,omitempty"`
	PlayerPosition int    `json:"player_position"`
	RobotPosition  int    `json:"robot_position"`
	CurrentTurn    string `json:"current_turn,omitempty"`
	GameOver       bool   `json:"game_over"`
	Winner         string `json:"winner,omitempty"`
	Error          string `json:"error,omitempty"`
}

// GameSummary is one entry of GET /api/v1/history/games.
type GameSummary struct {
	SessionID      string    `json:"session_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Winner         string    `json:"winner,omitempty"`
	PlayerPosition int       `json:"player_position"`
	RobotPosition  int       `json:"robot_position"`
	Turns          int       `json:"turns"`
	Error          string    `json:"error,omitempty"`
}

// TurnSummary is one entry of GET /api/v1/history/games/:id/turns.
type TurnSummary struct {
	Number           int    `json:"number"`
	Actor            string `json:"actor"`
	Roll             int    `json:"roll"`
	From             int    `json:"from"`
	Landing          int    `json:"landing"`
	Final            int    `json:"final"`
	PreMoveCollision bool   `json:"pre_move_collision"`
	Bumped           bool   `json:"bumped"`
	Outcome          string `json:"outcome"`
	DurationMS       int64  `json:"duration_ms"`
}

// StatsResponse is the response body for GET /api/v1/history/stats.
type StatsResponse struct {
	Games      int `json:"games"`
	PlayerWins int `json:"player_wins"`
	RobotWins  int `json:"robot_wins"`
	Unfinished int `json:"unfinished"`
}
