package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/metrics"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TurnResult describes one turn.
type TurnResult struct {
	Number           int
	Actor            board.Actor
	Roll             int
	From             int
	Landing          int // raw target clamped to the board, before any warp
	Final            int
	PreMoveCollision bool
	Bumped           bool
	Outcome          string
	Duration         time.Duration
}

// Warped reports whether the turn took a ladder or snake.
func (t TurnResult) Warped() bool {
	return t.Landing != 0 && t.Landing != t.Final
}

func (s *Session) startTurn(ctx context.Context, a board.Actor) (context.Context, trace.Span, TurnResult) {
	ctx, n := s.nextTurn(ctx, a)
	ctx, span := s.tracer.Start(ctx, "game.turn", trace.WithAttributes(
		attribute.Int("turn.number", n),
		attribute.String("turn.actor", a.String()),
	))
	return ctx, span, TurnResult{Number: n, Actor: a, From: s.position(a)}
}

func endTurn(span trace.Span, t *TurnResult, start time.Time, err error) {
	t.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("turn.roll", t.Roll),
		attribute.Int("turn.final", t.Final),
		attribute.String("turn.outcome", t.Outcome),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// PlayerTurn asks the player for a roll and moves their piece on the board
// model. The human moves the physical piece.
func (s *Session) PlayerTurn(ctx context.Context) (result TurnResult, err error) {
	start := time.Now()
	ctx, span, t := s.startTurn(ctx, board.Player)
	defer func() {
		endTurn(span, &t, start, err)
		result = t
	}()

	s.say(ctx, notify.CategoryPlayer, "Your turn! Roll your dice and enter the value.")
	s.notifier.Notify(ctx, notify.TurnRequest())

	roll, err := s.awaitRoll(ctx)
	if err != nil {
		t.Outcome = metrics.OutcomeFailed
		return t, err
	}
	t.Roll = roll

	target := board.ProposeMove(t.From, roll)
	if s.preMoveCollision(board.Player, target) {
		t.PreMoveCollision = true
		s.say(ctx, notify.CategoryPlayer, "Collision detected! You would land on field %d where the robot is.", target)
		if err := s.awaitCollision(ctx, "Collision! Please move the robot's character back to field 1 on the physical board."); err != nil {
			t.Outcome = metrics.OutcomeFailed
			return t, err
		}
		s.resetToStart(board.Robot)
		s.say(ctx, notify.CategorySystem, "Robot's character has been reset to field 1.")
		s.publishState(ctx)
	}

	final, bumped := s.commit(board.Player, target)
	t.Landing, t.Final, t.Bumped = min(target, s.board.MaxField()), final, bumped

	s.say(ctx, notify.CategoryPlayer, "You rolled %d. Moving from field %d to field %d!", roll, t.From, t.Landing)
	if t.Warped() {
		s.say(ctx, notify.CategoryPlayer, "%s", plan.WarpMessage(board.Player, t.Landing, t.Final))
	}
	if bumped {
		if err := s.resolveBump(ctx, board.Player, final); err != nil {
			t.Outcome = metrics.OutcomeFailed
			return t, err
		}
	}

	s.say(ctx, notify.CategoryPlayer, "Please move your character on the physical board.")
	s.publishState(ctx)

	t.Outcome = metrics.OutcomeMoved
	if s.gameOver() {
		t.Outcome = metrics.OutcomeWon
	}
	s.record(ctx, t)
	return t, nil
}

// awaitRoll blocks for a roll and re-prompts on values outside 1..6.
func (s *Session) awaitRoll(ctx context.Context) (int, error) {
	for {
		start := time.Now()
		v, err := s.prompter.AwaitDice(ctx)
		if s.metrics != nil {
			s.metrics.ObserveSuspension("dice", time.Since(start).Seconds())
		}
		if err != nil {
			return 0, fmt.Errorf("waiting for dice: %w", err)
		}
		if err := board.ValidateRoll(v); err != nil {
			s.logger.Warn(ctx, "rejected roll", zap.Int("value", v))
			s.say(ctx, notify.CategorySystem, "Invalid dice value %d. Please enter a value between 1 and 6.", v)
			s.notifier.Notify(ctx, notify.TurnRequest())
			continue
		}
		return v, nil
	}
}

// RobotTurn throws the die, reads it and relocates the robot's piece. The
// board is committed before any figure is moved; a failed actuation ends
// the turn with a *plan.StepError and the committed state stays.
func (s *Session) RobotTurn(ctx context.Context) (result TurnResult, err error) {
	start := time.Now()
	ctx, span, t := s.startTurn(ctx, board.Robot)
	defer func() {
		endTurn(span, &t, start, err)
		if s.metrics != nil {
			s.metrics.ObserveRobotTurn(t.Duration.Seconds())
		}
		result = t
	}()

	fail := func(err error) (TurnResult, error) {
		t.Outcome = metrics.OutcomeFailed
		var stepErr *plan.StepError
		if errors.As(err, &stepErr) && s.metrics != nil {
			s.metrics.RecordPlanFailure(stepErr.Step.Kind.String())
		}
		s.record(ctx, t)
		return t, err
	}

	s.say(ctx, notify.CategoryRobot, "Robot's current position: Field %d", t.From)
	s.say(ctx, notify.CategoryRobot, "Player's current position: Field %d", s.position(board.Player))

	s.say(ctx, notify.CategoryRobot, "Throwing dice...")
	if err := s.exec.Execute(ctx, "throw", s.builder.Throw()); err != nil {
		return fail(fmt.Errorf("throw dice: %w", err))
	}
	s.say(ctx, notify.CategoryRobot, "Returning to default position after throw...")
	if err := s.exec.Execute(ctx, "rest", s.builder.Rest()); err != nil {
		return fail(fmt.Errorf("return to rest: %w", err))
	}

	s.say(ctx, notify.CategoryRobot, "Reading the dice...")
	roll, err := s.dice.Read(ctx)
	switch {
	case errors.Is(err, dice.ErrSkipTurn):
		s.logger.Warn(ctx, "robot turn skipped", zap.Error(err))
		s.say(ctx, notify.CategoryRobot, "Could not read the dice. Robot skips this turn.")
		t.Outcome = metrics.OutcomeSkipped
		s.record(ctx, t)
		return t, nil
	case err != nil:
		return fail(fmt.Errorf("read dice: %w", err))
	}
	t.Roll = roll
	s.say(ctx, notify.CategoryRobot, "Robot rolled: %d", roll)

	target := board.ProposeMove(t.From, roll)
	if s.preMoveCollision(board.Robot, target) {
		t.PreMoveCollision = true
		s.say(ctx, notify.CategoryRobot, "Collision detected! Robot would land on field %d where the player is.", target)
		if err := s.awaitCollision(ctx, "Please move the player's character back to field 1 on the physical board."); err != nil {
			return fail(err)
		}
		s.resetToStart(board.Player)
		s.say(ctx, notify.CategorySystem, "Player's character has been reset to field 1.")
		s.publishState(ctx)
	}

	// The human piece is still physically where it was when the robot
	// starts moving, even if the commit below bumps it.
	human := s.position(board.Player)

	final, bumped := s.commit(board.Robot, target)
	t.Landing, t.Final, t.Bumped = min(target, s.board.MaxField()), final, bumped

	if s.gameOver() {
		t.Outcome = metrics.OutcomeWon
		s.record(ctx, t)
		return t, nil
	}

	relocation, err := s.builder.Relocation(t.From, t.Landing, t.Final, human)
	if err != nil {
		return fail(fmt.Errorf("plan relocation: %w", err))
	}

	if bumped {
		if err := s.resolveBump(ctx, board.Robot, final); err != nil {
			return fail(err)
		}
	}

	s.say(ctx, notify.CategoryRobot, "Moving robot's character from field %d to field %d...", t.From, t.Landing)
	if err := s.exec.Execute(ctx, "relocate", relocation.Then(s.builder.Rest())); err != nil {
		return fail(fmt.Errorf("move figure: %w", err))
	}

	s.say(ctx, notify.CategoryRobot, "Robot's turn complete!")
	t.Outcome = metrics.OutcomeMoved
	s.record(ctx, t)
	return t, nil
}

func (s *Session) preMoveCollision(a board.Actor, raw int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.PreMoveCollision(a, raw)
}

// resolveBump narrates a post-warp bump that commit already applied and,
// under the confirm policy, waits until the piece is physically moved.
func (s *Session) resolveBump(ctx context.Context, mover board.Actor, field int) error {
	var prompt string
	if mover == board.Player {
		s.say(ctx, notify.CategoryPlayer, "Collision after ladder/snake! You landed on field %d where the robot is.", field)
		s.say(ctx, notify.CategorySystem, "Robot's character is being sent back to field 1!")
		prompt = "Collision! Please move the robot's character back to field 1 on the physical board."
	} else {
		s.say(ctx, notify.CategoryRobot, "Collision after ladder/snake! Robot landed on field %d where the player is.", field)
		s.say(ctx, notify.CategorySystem, "Player's character is being sent back to field 1!")
		prompt = "Please move the player's character back to field 1 on the physical board."
	}
	s.publishState(ctx)

	if s.postWarp != config.PostWarpConfirm {
		return nil
	}
	return s.awaitCollision(ctx, prompt)
}
