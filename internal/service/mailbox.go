// Package service runs games in the background for the HTTP front end.
//
// A worker goroutine owns the session. Handlers never touch the board; they
// stage input in a Mailbox and the worker picks it up at its next
// suspension point.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/game"
)

// ErrInvalidDice is returned by SubmitDice for values outside 1..6.
var ErrInvalidDice = errors.New("invalid dice value")

// Mailbox stages human input for the worker. It implements game.Prompter.
type Mailbox struct {
	mu        sync.Mutex
	dice      int
	hasDice   bool
	confirmed bool

	diceReady      chan struct{}
	collisionReady chan struct{}
}

var (
	_ game.Prompter = (*Mailbox)(nil)
	_ dice.Asker    = (*Mailbox)(nil)
)

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		diceReady:      make(chan struct{}, 1),
		collisionReady: make(chan struct{}, 1),
	}
}

// SubmitDice stages a roll for the waiting player turn.
func (m *Mailbox) SubmitDice(v int) error {
	if err := board.ValidateRoll(v); err != nil {
		return fmt.Errorf("%w: %d", ErrInvalidDice, v)
	}
	m.mu.Lock()
	m.dice = v
	m.hasDice = true
	m.mu.Unlock()
	raise(m.diceReady)
	return nil
}

// ConfirmCollision acknowledges the pending collision prompt.
func (m *Mailbox) ConfirmCollision() {
	m.mu.Lock()
	m.confirmed = true
	m.mu.Unlock()
	raise(m.collisionReady)
}

// AwaitDice discards anything staged before the call, then blocks until a
// roll is submitted or ctx is done.
func (m *Mailbox) AwaitDice(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.hasDice = false
	drain(m.diceReady)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-m.diceReady:
		}
		m.mu.Lock()
		if m.hasDice {
			v := m.dice
			m.hasDice = false
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()
	}
}

// AwaitRobotDice waits on the same slot as AwaitDice: with the manual dice
// source the frontend submits the robot's roll like the player's.
func (m *Mailbox) AwaitRobotDice(ctx context.Context) (int, error) {
	return m.AwaitDice(ctx)
}

// AwaitCollision discards earlier confirmations, then blocks until the
// next one or until ctx is done.
func (m *Mailbox) AwaitCollision(ctx context.Context) error {
	m.mu.Lock()
	m.confirmed = false
	drain(m.collisionReady)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.collisionReady:
		}
		m.mu.Lock()
		if m.confirmed {
			m.confirmed = false
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()
	}
}

func raise(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
