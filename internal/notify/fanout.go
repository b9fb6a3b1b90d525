package notify

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/logging"
	"go.uber.org/zap"
)

// Fanout delivers each event to every sink in order. It stamps the event
// time and the session id from ctx before delivery.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if e.SessionID == "" {
		e.SessionID = logging.SessionIDFromContext(ctx)
	}
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}

// LogNotifier writes narration and prompts to a structured logger. It is
// the audit trail in service mode.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier logging to logger.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("events")}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, e Event) {
	switch e.Type {
	case EventLog:
		l.logger.Info(ctx, e.Message, zap.String("category", e.Category))
	case EventStateUpdate:
		l.logger.Debug(ctx, "state",
			zap.Int("player_position", e.PlayerPosition),
			zap.Int("robot_position", e.RobotPosition))
	case EventCollisionPrompt:
		l.logger.Warn(ctx, "collision", zap.String("prompt", e.Message))
	case EventGameOver:
		l.logger.Info(ctx, e.WinnerMessage,
			zap.Int("player_position", e.PlayerPosition),
			zap.Int("robot_position", e.RobotPosition))
	default:
		l.logger.Debug(ctx, string(e.Type), zap.String("message", e.Message))
	}
}
