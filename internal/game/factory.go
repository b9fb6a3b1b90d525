package game

import (
	"fmt"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"github.com/fyrsmithlabs/snakebot/internal/metrics"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/plan"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Factory holds the collaborators shared by every session of a process and
// creates a fresh board per game.
type Factory struct {
	Config   *config.Config
	Builder  *plan.Builder
	Executor *plan.Executor
	// Dice is shared by all sessions. When nil, each session gets a source
	// built from Config.Dice that asks its prompter.
	Dice     dice.Source
	Notifier notify.Notifier
	Journal  Journal
	Metrics  *metrics.Metrics
	Logger   *logging.Logger
	Tracer   trace.Tracer
	Sleep    dice.Sleeper
}

// NewSession creates a session with a new id and an empty board.
func (f *Factory) NewSession(p Prompter) (*Session, error) {
	b, err := board.New(f.Config.Board)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	src := f.Dice
	if src == nil {
		asker, _ := p.(dice.Asker)
		src, err = dice.New(f.Config.Dice, asker, f.zapLogger())
		if err != nil {
			return nil, fmt.Errorf("create dice source: %w", err)
		}
	}
	return New(Options{
		ID:       uuid.NewString(),
		Board:    b,
		Builder:  f.Builder,
		Executor: f.Executor,
		Dice:     src,
		Prompter: p,
		Notifier: f.Notifier,
		Journal:  f.Journal,
		Metrics:  f.Metrics,
		Logger:   f.Logger,
		Tracer:   f.Tracer,
		PostWarp: f.Config.Collision.PostWarp,
		Sleep:    f.Sleep,
	})
}

func (f *Factory) zapLogger() *zap.Logger {
	if f.Logger == nil {
		return nil
	}
	return f.Logger.Underlying()
}
