// Package game runs a snakes-and-ladders session between a human and the
// robot arm.
//
// A Session owns one Board and is driven by a single goroutine. The two
// points where it waits on the human, the player's roll and the removal of
// a bumped piece, go through a Prompter so the same session runs behind a
// terminal or an HTTP mailbox.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/metrics"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/snakebot/internal/game"

// DefaultHandOff is the pause between a player turn and the robot turn.
const DefaultHandOff = 2 * time.Second

// Prompter suspends the session until the human acts.
type Prompter interface {
	// AwaitDice blocks until the player submits a roll.
	AwaitDice(ctx context.Context) (int, error)
	// AwaitCollision blocks until someone confirms the bumped piece was
	// physically moved back to field 1.
	AwaitCollision(ctx context.Context) error
}

// Journal persists turns and finished games. Errors are logged, never
// fatal to the game.
type Journal interface {
	RecordTurn(ctx context.Context, sessionID string, t TurnResult) error
	RecordGame(ctx context.Context, r Result) error
}

// Options wires a Session. Board, Builder, Executor, Dice and Prompter are
// required.
type Options struct {
	ID       string
	Board    *board.Board
	Builder  *plan.Builder
	Executor *plan.Executor
	Dice     dice.Source
	Prompter Prompter
	Notifier notify.Notifier
	Journal  Journal
	Metrics  *metrics.Metrics
	Logger   *logging.Logger
	Tracer   trace.Tracer
	PostWarp string
	HandOff  time.Duration
	Sleep    dice.Sleeper
}

// Session is one game.
type Session struct {
	id       string
	builder  *plan.Builder
	exec     *plan.Executor
	dice     dice.Source
	prompter Prompter
	notifier notify.Notifier
	journal  Journal
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
	postWarp string
	handOff  time.Duration
	sleep    dice.Sleeper

	mu    sync.Mutex
	board *board.Board
	turns int
}

// New creates a session from opts.
func New(opts Options) (*Session, error) {
	switch {
	case opts.Board == nil:
		return nil, errors.New("game: board is required")
	case opts.Builder == nil || opts.Executor == nil:
		return nil, errors.New("game: plan builder and executor are required")
	case opts.Dice == nil:
		return nil, errors.New("game: dice source is required")
	case opts.Prompter == nil:
		return nil, errors.New("game: prompter is required")
	}

	s := &Session{
		id:       opts.ID,
		board:    opts.Board,
		builder:  opts.Builder,
		exec:     opts.Executor,
		dice:     opts.Dice,
		prompter: opts.Prompter,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		postWarp: opts.PostWarp,
		handOff:  opts.HandOff,
		sleep:    opts.Sleep,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.Named("game")
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}
	switch s.postWarp {
	case "":
		s.postWarp = config.PostWarpImmediate
	case config.PostWarpImmediate, config.PostWarpConfirm:
	default:
		return nil, fmt.Errorf("game: unknown post-warp policy %q", s.postWarp)
	}
	if s.handOff == 0 {
		s.handOff = DefaultHandOff
	}
	if s.sleep == nil {
		s.sleep = dice.ContextSleep
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current board state. Safe to call from any goroutine.
func (s *Session) Snapshot() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

func (s *Session) position(a board.Actor) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Position(a)
}

func (s *Session) resetToStart(a board.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.ResetToStart(a)
}

func (s *Session) switchTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.SwitchTurn()
}

// commit applies the move and any post-warp bump in one critical section so
// no observer sees both pieces on one field.
func (s *Session) commit(a board.Actor, raw int) (final int, bumped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	final = s.board.CommitMove(a, raw)
	if !s.board.IsGameOver() {
		bumped = s.board.BumpOpponentToStart(a)
	}
	return final, bumped
}

func (s *Session) gameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.IsGameOver()
}

func (s *Session) say(ctx context.Context, category, format string, args ...any) {
	s.notifier.Notify(ctx, notify.Log(fmt.Sprintf(format, args...), category))
}

func (s *Session) publishState(ctx context.Context) {
	s.notifier.Notify(ctx, notify.State(s.Snapshot()))
}

func (s *Session) nextTurn(ctx context.Context, a board.Actor) (context.Context, int) {
	s.mu.Lock()
	s.turns++
	n := s.turns
	s.mu.Unlock()
	return logging.WithTurn(ctx, n, a.String()), n
}

// awaitCollision emits the prompt and blocks until it is acknowledged.
func (s *Session) awaitCollision(ctx context.Context, prompt string) error {
	s.notifier.Notify(ctx, notify.CollisionPrompt(prompt))
	start := time.Now()
	err := s.prompter.AwaitCollision(ctx)
	if s.metrics != nil {
		s.metrics.ObserveSuspension("collision", time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("waiting for collision confirmation: %w", err)
	}
	return nil
}

func (s *Session) record(ctx context.Context, t TurnResult) {
	if s.metrics != nil {
		s.metrics.RecordTurn(t.Actor.String(), t.Outcome)
		if t.Roll > 0 {
			s.metrics.RecordRoll(t.Actor.String(), t.Roll)
		}
		if t.Warped() {
			s.metrics.RecordWarp(t.Actor.String(), board.KindOf(t.Landing, t.Final).String())
		}
		if t.PreMoveCollision {
			s.metrics.RecordCollision(metrics.CollisionPreMove)
		}
		if t.Bumped {
			s.metrics.RecordCollision(metrics.CollisionPostWarp)
		}
	}
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordTurn(ctx, s.id, t); err != nil {
		s.logger.Warn(ctx, "failed to record turn", zap.Error(err))
	}
}
