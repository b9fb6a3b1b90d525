package plan

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/robot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/snakebot/internal/plan"

// Executor runs plans against an actuator.
type Executor struct {
	client   robot.ActuationClient
	notifier notify.Notifier
	sleep    dice.Sleeper
	scale    float64
	tracer   trace.Tracer
	logger   *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleeper replaces the dwell implementation.
func WithSleeper(s dice.Sleeper) ExecutorOption {
	return func(e *Executor) { e.sleep = s }
}

// WithDwellScale multiplies every dwell. Zero disables dwells.
func WithDwellScale(scale float64) ExecutorOption {
	return func(e *Executor) {
		if scale >= 0 {
			e.scale = scale
		}
	}
}

// WithTracer sets the tracer used for plan and step spans.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an executor driving client. Announce steps go to n.
func NewExecutor(client robot.ActuationClient, n notify.Notifier, opts ...ExecutorOption) *Executor {
	if n == nil {
		n = notify.Discard
	}
	e := &Executor{
		client:   client,
		notifier: n,
		sleep:    dice.ContextSleep,
		scale:    1.0,
		tracer:   otel.Tracer(instrumentationName),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("plan")
	return e
}

// Execute runs p in order and stops at the first failure, returning a
// *StepError for it.
func (e *Executor) Execute(ctx context.Context, name string, p Plan) error {
	ctx, span := e.tracer.Start(ctx, "plan."+name,
		trace.WithAttributes(
			attribute.Int("plan.steps", len(p)),
			attribute.Int("plan.moves", p.Count(KindMove)),
			attribute.Int64("plan.dwell_ms", p.Duration().Milliseconds()),
		))
	defer span.End()

	for i, step := range p {
		if err := e.run(ctx, step); err != nil {
			stepErr := &StepError{Index: i, Step: step, Err: err}
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, "step failed")
			span.SetAttributes(
				attribute.Int("plan.failed_step", i),
				attribute.String("plan.failed_kind", step.Kind.String()),
			)
			e.logger.Error("plan step failed",
				zap.String("plan", name),
				zap.Int("index", i),
				zap.Stringer("step", step),
				zap.Error(err))
			return stepErr
		}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (e *Executor) run(ctx context.Context, s Step) error {
	switch s.Kind {
	case KindMove:
		e.logger.Debug("move", zap.String("label", s.Label), zap.Stringer("pose", s.Pose))
		return e.client.MoveTo(ctx, s.Pose)
	case KindGripper:
		e.logger.Debug("gripper", zap.String("label", s.Label), zap.Int("value", s.Gripper))
		return e.client.SetGripper(ctx, s.Gripper)
	case KindDwell:
		d := time.Duration(float64(s.Dwell) * e.scale)
		if d <= 0 {
			return ctx.Err()
		}
		return e.sleep(ctx, d)
	case KindAnnounce:
		e.notifier.Notify(ctx, s.Event)
		return nil
	default:
		return nil
	}
}
