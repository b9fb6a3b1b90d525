package game

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Winner messages shown at the end of a game.
const (
	PlayerWinsMessage = "Congratulations! You won!"
	RobotWinsMessage  = "The robot won! Better luck next time!"
	NoWinnerMessage   = "Game ended"
)

// Result summarizes a finished or aborted game.
type Result struct {
	SessionID      string
	Winner         string // "player", "robot" or empty
	PlayerPosition int
	RobotPosition  int
	Turns          int
	StartedAt      time.Time
	FinishedAt     time.Time
	Err            string
}

// Run plays until someone wins, a robot turn fails or ctx is canceled. The
// returned error is nil only for a game that reached the winning field.
func (s *Session) Run(ctx context.Context) (Result, error) {
	ctx = logging.WithSessionID(ctx, s.id)
	ctx, span := s.tracer.Start(ctx, "game.session", trace.WithAttributes(
		attribute.String("session.id", s.id),
	))
	defer span.End()

	if s.metrics != nil {
		s.metrics.SetGameActive(true)
		defer s.metrics.SetGameActive(false)
	}

	res := Result{SessionID: s.id, StartedAt: time.Now().UTC()}
	s.logger.Info(ctx, "game started", zap.String("post_warp", s.postWarp))
	s.say(ctx, notify.CategorySystem, "Game initialized! Starting game...")
	s.publishState(ctx)

	runErr := s.loop(ctx)

	snap := s.Snapshot()
	res.FinishedAt = time.Now().UTC()
	res.PlayerPosition, res.RobotPosition = snap.PlayerPosition, snap.RobotPosition
	res.Winner = snap.Winner
	s.mu.Lock()
	res.Turns = s.turns
	s.mu.Unlock()
	if runErr != nil {
		res.Err = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	s.finish(ctx, res)
	return res, runErr
}

func (s *Session) loop(ctx context.Context) error {
	for !s.gameOver() {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch s.Snapshot().CurrentTurn {
		case board.Player:
			if _, err := s.PlayerTurn(ctx); err != nil {
				return fmt.Errorf("player turn: %w", err)
			}
			if s.gameOver() {
				return nil
			}
			s.notifier.Notify(ctx, notify.Waiting("Waiting for robot turn..."))
			if err := s.sleep(ctx, s.handOff); err != nil {
				return err
			}
			s.switchTurn()

		case board.Robot:
			s.say(ctx, notify.CategoryRobot, "Robot's turn starting...")
			s.notifier.Notify(ctx, notify.RobotTurn())
			if _, err := s.RobotTurn(ctx); err != nil {
				s.logger.Error(ctx, "robot turn failed", zap.Error(err))
				s.say(ctx, notify.CategorySystem, "Robot turn failed. Ending game.")
				return fmt.Errorf("robot turn: %w", err)
			}
			s.publishState(ctx)
			s.switchTurn()
		}
	}
	return nil
}

// finish announces the result, parks the arm and records the game.
func (s *Session) finish(ctx context.Context, res Result) {
	s.say(ctx, notify.CategorySystem, "Game Over!")

	msg := NoWinnerMessage
	switch res.Winner {
	case board.Player.String():
		msg = PlayerWinsMessage
	case board.Robot.String():
		msg = RobotWinsMessage
	}
	s.notifier.Notify(ctx, notify.GameOver(msg, s.Snapshot()))

	if ctx.Err() == nil {
		s.say(ctx, notify.CategorySystem, "Returning robot to default position...")
		if err := s.exec.Execute(ctx, "rest", s.builder.Rest()); err != nil {
			s.logger.Warn(ctx, "failed to return to rest", zap.Error(err))
		}
	}
	s.say(ctx, notify.CategorySystem, "Thank you for playing!")

	s.logger.Info(ctx, "game finished",
		zap.String("winner", res.Winner),
		zap.Int("turns", res.Turns),
		zap.Int("player_position", res.PlayerPosition),
		zap.Int("robot_position", res.RobotPosition))

	if s.metrics != nil {
		winner := res.Winner
		if winner == "" {
			winner = "none"
		}
		s.metrics.RecordGame(winner)
	}
	if s.journal != nil {
		// Record even when ctx was canceled by shutdown.
		if err := s.journal.RecordGame(context.WithoutCancel(ctx), res); err != nil {
			s.logger.Warn(ctx, "failed to record game", zap.Error(err))
		}
	}
}
