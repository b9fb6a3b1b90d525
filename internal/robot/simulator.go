package robot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/snakebot/internal/pose"
	"go.uber.org/zap"
)

// ErrSimulatedFault is returned by a Simulator call configured to fail.
var ErrSimulatedFault = errors.New("simulated actuator fault")

// CommandKind names a recorded simulator command.
type CommandKind string

const (
	CommandMove    CommandKind = "move"
	CommandGripper CommandKind = "gripper"
)

// Command is one call received by the Simulator.
type Command struct {
	Kind    CommandKind
	Pose    pose.Pose
	Gripper int
}

// Simulator records commands without moving anything. Used for dry runs
// and tests.
type Simulator struct {
	logger *zap.Logger

	mu       sync.Mutex
	commands []Command
	failAt   int
	calls    int
	home     pose.Pose
	online   bool
}

var _ Driver = (*Simulator)(nil)

// NewSimulator creates a simulator that accepts every command.
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger.Named("simulator")}
}

// FailAt makes the n-th actuation call (1-based, counting moves and gripper
// commands) fail. Zero disables the fault.
func (s *Simulator) FailAt(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = n
}

// Connect parks the simulated arm at home. The home move is not recorded.
func (s *Simulator) Connect(_ context.Context, home pose.Pose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.home = home
	s.online = true
	s.logger.Info("simulated arm online", zap.Stringer("home", home))
	return nil
}

// Close takes the simulated arm offline.
func (s *Simulator) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = false
	return nil
}

// MoveTo records a move.
func (s *Simulator) MoveTo(ctx context.Context, p pose.Pose) error {
	return s.record(ctx, Command{Kind: CommandMove, Pose: p})
}

// SetGripper records a gripper command.
func (s *Simulator) SetGripper(ctx context.Context, value int) error {
	return s.record(ctx, Command{Kind: CommandGripper, Gripper: value})
}

func (s *Simulator) record(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return fmt.Errorf("%s call #%d: %w", cmd.Kind, s.calls, ErrSimulatedFault)
	}
	s.commands = append(s.commands, cmd)
	s.logger.Debug(string(cmd.Kind), zap.Stringer("pose", cmd.Pose), zap.Int("gripper", cmd.Gripper))
	return nil
}

// Commands returns a copy of the successfully recorded commands.
func (s *Simulator) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Calls returns how many commands were attempted, including failed ones.
func (s *Simulator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Online reports whether Connect was called without a later Close.
func (s *Simulator) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Home returns the pose passed to Connect.
func (s *Simulator) Home() pose.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.home
}

// Reset clears recorded commands and the call counter.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
	s.calls = 0
}
