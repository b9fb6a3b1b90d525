package http

import (
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/snakebot/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleStart starts a new game in the background.
func (s *Server) handleStart(c echo.Context) error {
	id, err := s.runner.Start(s.baseCtx)
	switch {
	case errors.Is(err, service.ErrGameRunning):
		return c.JSON(http.StatusConflict, SuccessResponse{Success: false, Error: err.Error()})
	case err != nil:
		s.logger.Error("failed to start game", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start game")
	}
	return c.JSON(http.StatusAccepted, SuccessResponse{Success: true, SessionID: id})
}

// handleDice stages the value the player rolled.
func (s *Server) handleDice(c echo.Context) error {
	var req DiceRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid dice request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.runner.Mailbox().SubmitDice(req.DiceValue); err != nil {
		s.metrics.diceSubmitted(c.Request().Context(), diceRejected)
		return c.JSON(http.StatusBadRequest, SuccessResponse{
			Success: false,
			Error:   "Invalid dice value. Please enter a value between 1 and 6.",
		})
	}

	s.metrics.diceSubmitted(c.Request().Context(), diceAccepted)
	s.logger.Debug("dice submitted", zap.Int("value", req.DiceValue))
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleCollision acknowledges the pending collision prompt.
func (s *Server) handleCollision(c echo.Context) error {
	s.runner.Mailbox().ConfirmCollision()
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// handleState reports the current or last game.
func (s *Server) handleState(c echo.Context) error {
	st := s.runner.State()
	resp := StateResponse{
		Running:        st.Running,
		SessionID:      st.SessionID,
		PlayerPosition: st.Board.PlayerPosition,
		RobotPosition:  st.Board.RobotPosition,
		GameOver:       st.Board.GameOver,
		Winner:         st.Board.Winner,
		Error:          st.Err,
	}
	if st.SessionID != "" {
		resp.CurrentTurn = st.Board.CurrentTurn.String()
	}
	return c.JSON(http.StatusOK, resp)
}
