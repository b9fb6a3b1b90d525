// Package console is the terminal front end for a game: it prints the
// narration, draws the board after every position change, and reads dice
// values and collision confirmations from the keyboard.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/dice"
	"github.com/fyrsmithlabs/snakebot/internal/game"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
)

// ErrAborted is returned when the human leaves a prompt with esc or ctrl+c.
var ErrAborted = errors.New("console: input aborted")

type runFunc func(ctx context.Context, m tea.Model) (tea.Model, error)

// Console implements game.Prompter and notify.Notifier on a terminal.
type Console struct {
	in     io.Reader
	out    io.Writer
	length int
	warps  map[int]int

	mu         sync.Mutex
	lastPrompt string
	run        runFunc
}

var (
	_ game.Prompter   = (*Console)(nil)
	_ dice.Asker      = (*Console)(nil)
	_ notify.Notifier = (*Console)(nil)
)

// New creates a console reading keys from in and drawing to out.
func New(in io.Reader, out io.Writer, cfg config.BoardConfig) *Console {
	c := &Console{
		in:     in,
		out:    out,
		length: cfg.Length,
		warps:  cfg.WarpMap(),
	}
	c.run = c.runProgram
	return c
}

func (c *Console) runProgram(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m,
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithContext(ctx),
	)
	return p.Run()
}

// Notify prints one event.
func (c *Console) Notify(_ context.Context, e notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case notify.EventLog:
		c.println(categoryStyle(e.Category).Render(e.Message))
	case notify.EventStateUpdate:
		s := board.Snapshot{PlayerPosition: e.PlayerPosition, RobotPosition: e.RobotPosition, MaxField: c.length}
		c.println(RenderBoard(s, c.warps))
		c.println(RenderProgress(s))
	case notify.EventWaiting:
		c.println(dimStyle.Render(e.Message))
	case notify.EventRobotTurn:
		c.println(headerStyle.Render("Robot's turn"))
	case notify.EventCollisionPrompt:
		c.lastPrompt = e.Message
	case notify.EventGameOver:
		c.println(headerStyle.Render("Game over"))
		if e.WinnerMessage != "" {
			c.println(warningStyle.Render(e.WinnerMessage))
		}
	}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// AwaitDice blocks until a valid die value is entered.
func (c *Console) AwaitDice(ctx context.Context) (int, error) {
	return c.readDice(ctx, newDiceModel())
}

// AwaitRobotDice asks for the value of the die the robot threw.
func (c *Console) AwaitRobotDice(ctx context.Context) (int, error) {
	return c.readDice(ctx, newRobotDiceModel())
}

func (c *Console) readDice(ctx context.Context, model diceModel) (int, error) {
	final, err := c.run(ctx, model)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if err != nil {
		return 0, fmt.Errorf("dice prompt: %w", err)
	}
	m, ok := final.(diceModel)
	if !ok || m.canceled || !m.done {
		return 0, ErrAborted
	}
	return m.value, nil
}

// AwaitCollision blocks until the human confirms the last collision prompt.
func (c *Console) AwaitCollision(ctx context.Context) error {
	c.mu.Lock()
	prompt := c.lastPrompt
	c.mu.Unlock()

	final, err := c.run(ctx, newConfirmModel(prompt))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("collision prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok || m.canceled || !m.done {
		return ErrAborted
	}
	return nil
}
