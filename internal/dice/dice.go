// Package dice reads the robot's own roll.
//
// A Source reports a missing or unreadable value as an error wrapping
// ErrNoValue. WithFallback turns that into the configured policy: a default
// value, a skipped turn, or a failed turn.
package dice

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrNoValue means the source could not produce a roll in 1..6.
	ErrNoValue = errors.New("no dice value")

	// ErrSkipTurn is returned under the skip policy when no value was read.
	ErrSkipTurn = errors.New("dice unreadable, turn skipped")

	// ErrNoAsker is returned by New for the manual source without an Asker.
	ErrNoAsker = errors.New("manual dice source needs someone to ask")
)

// Source produces one dice roll.
type Source interface {
	Read(ctx context.Context) (int, error)
}

// Fixed always returns the same roll.
type Fixed int

// Read returns the fixed value, or ErrNoValue if it is not a valid roll.
func (f Fixed) Read(context.Context) (int, error) {
	if err := board.ValidateRoll(int(f)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoValue, err)
	}
	return int(f), nil
}

// Asker asks a person for the value the robot's die shows.
type Asker interface {
	AwaitRobotDice(ctx context.Context) (int, error)
}

// Manual reads the robot's roll from whoever watches the board.
type Manual struct {
	Asker Asker
}

// Read blocks until the asker answers. Out-of-range answers are reported as
// ErrNoValue.
func (m Manual) Read(ctx context.Context) (int, error) {
	v, err := m.Asker.AwaitRobotDice(ctx)
	if err != nil {
		return 0, err
	}
	if err := board.ValidateRoll(v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoValue, err)
	}
	return v, nil
}

// Policy is the fallback applied when a source reports ErrNoValue or a value
// outside 1..6.
type Policy struct {
	Mode  string // config.FallbackDefault, FallbackSkip or FallbackAbort
	Value int    // used by FallbackDefault
}

type fallback struct {
	src    Source
	policy Policy
	logger *zap.Logger
}

// WithFallback wraps src with policy. Errors other than ErrNoValue, such as
// a canceled context, pass through untouched.
func WithFallback(src Source, policy Policy, logger *zap.Logger) Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallback{src: src, policy: policy, logger: logger}
}

func (f *fallback) Read(ctx context.Context) (int, error) {
	v, err := f.src.Read(ctx)
	if err == nil {
		verr := board.ValidateRoll(v)
		if verr == nil {
			return v, nil
		}
		err = fmt.Errorf("%w: %v", ErrNoValue, verr)
	}
	if !errors.Is(err, ErrNoValue) {
		return 0, err
	}

	switch f.policy.Mode {
	case config.FallbackDefault:
		f.logger.Warn("dice unreadable, using fallback value",
			zap.Error(err), zap.Int("value", f.policy.Value))
		return f.policy.Value, nil
	case config.FallbackSkip:
		f.logger.Warn("dice unreadable, skipping turn", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrSkipTurn, err)
	default:
		f.logger.Error("dice unreadable, aborting turn", zap.Error(err))
		return 0, err
	}
}

// New builds the configured source wrapped in its fallback policy. asker is
// only used, and then required, by the manual source.
func New(cfg config.DiceConfig, asker Asker, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var src Source
	switch cfg.Source {
	case config.DiceSourceDetector:
		src = NewDetector(cfg.DetectorURL, cfg.Attempts, cfg.Wait.Duration(), logger)
	case config.DiceSourceFixed:
		src = Fixed(cfg.FixedValue)
	case config.DiceSourceManual:
		if asker == nil {
			return nil, ErrNoAsker
		}
		src = Manual{Asker: asker}
	default:
		return nil, fmt.Errorf("unknown dice source %q", cfg.Source)
	}
	return WithFallback(src, Policy{Mode: cfg.Fallback, Value: cfg.FallbackValue}, logger.Named("dice")), nil
}
