package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/game"
	"go.uber.org/zap"
)

// ErrGameRunning is returned by Start while a session is active.
var ErrGameRunning = errors.New("game already running")

// SessionFactory creates sessions bound to a prompter.
type SessionFactory interface {
	NewSession(p game.Prompter) (*game.Session, error)
}

// State is what the HTTP layer reports about the current or last game.
type State struct {
	Running   bool
	SessionID string
	Board     board.Snapshot
	Result    *game.Result
	Err       string
}

// Runner owns the single worker goroutine of service mode.
type Runner struct {
	factory SessionFactory
	mailbox *Mailbox
	logger  *zap.Logger

	mu      sync.Mutex
	session *game.Session
	running bool
	result  *game.Result
	err     error
	wg      sync.WaitGroup
}

// NewRunner creates a runner. Sessions it starts read input from its
// mailbox.
func NewRunner(f SessionFactory, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		factory: f,
		mailbox: NewMailbox(),
		logger:  logger.Named("runner"),
	}
}

// Mailbox returns the mailbox handlers submit input to.
func (r *Runner) Mailbox() *Mailbox { return r.mailbox }

// Start creates a session and plays it on a new goroutine bound to ctx.
// ctx should be the process context, not a request context.
func (r *Runner) Start(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return "", ErrGameRunning
	}
	s, err := r.factory.NewSession(r.mailbox)
	if err != nil {
		return "", err
	}
	r.session = s
	r.running = true
	r.result = nil
	r.err = nil

	r.wg.Add(1)
	go r.work(ctx, s)

	r.logger.Info("game started", zap.String("session_id", s.ID()))
	return s.ID(), nil
}

func (r *Runner) work(ctx context.Context, s *game.Session) {
	defer r.wg.Done()

	res, err := s.Run(ctx)

	r.mu.Lock()
	r.running = false
	r.result = &res
	r.err = err
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("game ended with error", zap.String("session_id", s.ID()), zap.Error(err))
		return
	}
	r.logger.Info("game finished", zap.String("session_id", s.ID()), zap.String("winner", res.Winner))
}

// State reports the current session, or the last one if none is running.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := State{Running: r.running, Result: r.result}
	if r.err != nil {
		st.Err = r.err.Error()
	}
	if r.session != nil {
		st.SessionID = r.session.ID()
		st.Board = r.session.Snapshot()
	}
	return st
}

// Wait blocks until the worker, if any, has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
