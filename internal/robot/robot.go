// Package robot drives the physical arm: the cherrybot REST client and an
// in-memory simulator share the ActuationClient contract.
package robot

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by commands issued before Connect.
var ErrNotConnected = errors.New("robot: no operator registered")

// ActuationClient moves the arm and sets the gripper. A non-nil error means
// the command did not complete; callers abort their plan on it. Retries are
// never attempted here.
type ActuationClient interface {
	MoveTo(ctx context.Context, p pose.Pose) error
	SetGripper(ctx context.Context, value int) error
}

// Driver is an ActuationClient with a session lifecycle.
type Driver interface {
	ActuationClient
	// Connect claims the arm, initializes it and parks it at home.
	Connect(ctx context.Context, home pose.Pose) error
	// Close releases the arm.
	Close(ctx context.Context) error
}

// StatusError is an unexpected HTTP status from the arm.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("robot %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("robot %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// New returns the driver selected by configuration.
func New(cfg config.RobotConfig, logger *zap.Logger) (Driver, error) {
	switch cfg.Driver {
	case config.DriverCherrybot:
		return NewClient(cfg, logger)
	case config.DriverSimulator:
		return NewSimulator(logger), nil
	default:
		return nil, fmt.Errorf("unknown robot driver %q", cfg.Driver)
	}
}
