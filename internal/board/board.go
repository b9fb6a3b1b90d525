// Package board implements the snakes-and-ladders state machine: both piece
// positions, the warp table, the turn indicator and the win condition.
//
// A Board is owned by exactly one game session and is not safe for
// concurrent use.
package board

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/snakebot/internal/config"
)

// RowSize is the number of fields per physical board row.
const RowSize = 5

// StartField is the field both pieces start on and return to when bumped.
const StartField = 1

// ErrInvalidRoll is returned for a dice value outside 1..6.
var ErrInvalidRoll = errors.New("roll must be between 1 and 6")

// ValidateRoll rejects dice values outside 1..6.
func ValidateRoll(v int) error {
	if v < 1 || v > 6 {
		return fmt.Errorf("%w: got %d", ErrInvalidRoll, v)
	}
	return nil
}

// Actor is one of the two sides.
type Actor int

const (
	Player Actor = iota
	Robot
)

func (a Actor) String() string {
	switch a {
	case Player:
		return "player"
	case Robot:
		return "robot"
	default:
		return fmt.Sprintf("actor(%d)", int(a))
	}
}

// Opponent returns the other side.
func (a Actor) Opponent() Actor {
	if a == Player {
		return Robot
	}
	return Player
}

// MarshalText renders the actor by name.
func (a Actor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// WarpKind distinguishes ladders from snakes.
type WarpKind int

const (
	Ladder WarpKind = iota
	Snake
)

func (k WarpKind) String() string {
	if k == Ladder {
		return "ladder"
	}
	return "snake"
}

// KindOf classifies the warp from -> to.
func KindOf(from, to int) WarpKind {
	if to > from {
		return Ladder
	}
	return Snake
}

// Adjacent reports whether two fields are horizontal neighbours in the same
// row block. Fields in different rows are never adjacent.
func Adjacent(a, b int) bool {
	if a < 1 || b < 1 {
		return false
	}
	if (a-1)/RowSize != (b-1)/RowSize {
		return false
	}
	d := a - b
	return d == 1 || d == -1
}

// ProposeMove returns the raw target of moving steps fields from position.
func ProposeMove(position, steps int) int {
	return position + steps
}

// Snapshot is a read-only copy of the board state.
type Snapshot struct {
	PlayerPosition int    `json:"player_position"`
	RobotPosition  int    `json:"robot_position"`
	CurrentTurn    Actor  `json:"current_turn"`
	GameOver       bool   `json:"game_over"`
	Winner         string `json:"winner,omitempty"`
	MaxField       int    `json:"max_field"`
}

// Board is the game state machine.
type Board struct {
	maxField  int
	warps     map[int]int
	positions [2]int
	turn      Actor
	gameOver  bool
	winner    Actor
}

// New creates a board from validated configuration. Both pieces start on
// field 1 and the player moves first.
func New(cfg config.BoardConfig) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}
	return &Board{
		maxField:  cfg.Length,
		warps:     cfg.WarpMap(),
		positions: [2]int{StartField, StartField},
		turn:      Player,
	}, nil
}

// MaxField returns the winning field.
func (b *Board) MaxField() int { return b.maxField }

// Position returns the actor's current field.
func (b *Board) Position(a Actor) int { return b.positions[a] }

// CurrentTurn returns whose turn it is.
func (b *Board) CurrentTurn() Actor { return b.turn }

// IsGameOver reports whether a piece reached the winning field.
func (b *Board) IsGameOver() bool { return b.gameOver }

// Winner returns the winning side once the game is over.
func (b *Board) Winner() (Actor, bool) {
	return b.winner, b.gameOver
}

// ProposeMove is the board-bound form of the package function.
func (b *Board) ProposeMove(position, steps int) int {
	return ProposeMove(position, steps)
}

// PreMoveCollision reports whether moving actor to rawTarget would land on the
// opponent before any warp is applied. Reaching the winning field is always a
// win and never a collision.
func (b *Board) PreMoveCollision(actor Actor, rawTarget int) bool {
	return rawTarget < b.maxField && rawTarget == b.positions[actor.Opponent()]
}

// CommitMove sets the actor onto rawTarget and resolves a warp from there.
// A raw target at or past the winning field clamps to it and ends the game
// without applying any warp. Returns the final field.
func (b *Board) CommitMove(actor Actor, rawTarget int) int {
	if b.gameOver {
		return b.positions[actor]
	}
	if rawTarget >= b.maxField {
		b.positions[actor] = b.maxField
		b.gameOver = true
		b.winner = actor
		return b.maxField
	}
	if rawTarget < StartField {
		rawTarget = StartField
	}
	b.positions[actor] = rawTarget
	if to, ok := b.warps[rawTarget]; ok {
		b.positions[actor] = to
	}
	return b.positions[actor]
}

// BumpOpponentToStart sends the opponent back to field 1 if the actor's
// final field equals it. Reports whether a bump happened.
func (b *Board) BumpOpponentToStart(actor Actor) bool {
	opp := actor.Opponent()
	if b.positions[actor] != b.positions[opp] {
		return false
	}
	b.positions[opp] = StartField
	return true
}

// ResetToStart forces an actor back to field 1.
func (b *Board) ResetToStart(actor Actor) {
	b.positions[actor] = StartField
}

// IsSpecialField reports whether the field is a warp source.
func (b *Board) IsSpecialField(field int) bool {
	_, ok := b.warps[field]
	return ok
}

// WarpTarget returns the warp destination of field, or field itself when it
// is not a warp source.
func (b *Board) WarpTarget(field int) int {
	if to, ok := b.warps[field]; ok {
		return to
	}
	return field
}

// SwitchTurn hands the turn to the other side. No-op once the game is over.
func (b *Board) SwitchTurn() {
	if b.gameOver {
		return
	}
	b.turn = b.turn.Opponent()
}

// Snapshot copies the current state.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		PlayerPosition: b.positions[Player],
		RobotPosition:  b.positions[Robot],
		CurrentTurn:    b.turn,
		GameOver:       b.gameOver,
		MaxField:       b.maxField,
	}
	if b.gameOver {
		s.Winner = b.winner.String()
	}
	return s
}
