package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fyrsmithlabs/snakebot/internal/history"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HistoryReader is the read side of the history store.
type HistoryReader interface {
	RecentGames(ctx context.Context, limit int) ([]history.GameRow, error)
	Turns(ctx context.Context, sessionID string) ([]history.TurnRow, error)
	Stats(ctx context.Context) (history.Stats, error)
}

const maxHistoryLimit = 200

func (s *Server) requireHistory() error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history is disabled")
	}
	return nil
}

// handleRecentGames lists finished games, newest first.
func (s *Server) handleRecentGames(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(v, maxHistoryLimit)
	}

	rows, err := s.history.RecentGames(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error("failed to list games", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list games")
	}

	out := make([]GameSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, GameSummary{
			SessionID:      r.SessionID,
			StartedAt:      r.StartedAt,
			FinishedAt:     r.FinishedAt,
			Winner:         r.Winner,
			PlayerPosition: r.PlayerPosition,
			RobotPosition:  r.RobotPosition,
			Turns:          r.Turns,
			Error:          r.Error,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// handleTurns lists the turns of one game.
func (s *Server) handleTurns(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}

	rows, err := s.history.Turns(c.Request().Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("failed to list turns", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list turns")
	}
	if len(rows) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "game not found")
	}

	out := make([]TurnSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, TurnSummary{
			Number:           r.Number,
			Actor:            r.Actor,
			Roll:             r.Roll,
			From:             r.From,
			Landing:          r.Landing,
			Final:            r.Final,
			PreMoveCollision: r.PreMoveCollision,
			Bumped:           r.Bumped,
			Outcome:          r.Outcome,
			DurationMS:       r.DurationMS,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// handleStats returns win counts.
func (s *Server) handleStats(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}

	st, err := s.history.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to read stats", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read stats")
	}
	return c.JSON(http.StatusOK, StatsResponse{
		Games:      st.Games,
		PlayerWins: st.PlayerWins,
		RobotWins:  st.RobotWins,
		Unfinished: st.Unfinished,
	})
}
