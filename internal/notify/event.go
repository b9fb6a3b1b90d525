// Package notify carries game progress to the people watching it: terminal
// output, websocket clients, and a NATS subject stream.
//
// Delivery is best effort. A Notifier never returns an error to the game;
// a failing sink is logged and, for websocket clients, dropped.
package notify

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
)

// EventType is the wire name of an event. The names match what the web
// frontend dispatches on.
type EventType string

const (
	EventLog             EventType = "log"
	EventStateUpdate     EventType = "state_update"
	EventTurnRequest     EventType = "turn_request"
	EventRobotTurn       EventType = "robot_turn"
	EventWaiting         EventType = "waiting"
	EventCollisionPrompt EventType = "collision_prompt"
	EventGameOver        EventType = "game_over"
)

// Log categories.
const (
	CategoryPlayer = "player"
	CategoryRobot  = "robot"
	CategorySystem = "system"
)

// Event is one outbound notification, serialized flat.
type Event struct {
	Type           EventType `json:"type"`
	Message        string    `json:"message,omitempty"`
	Category       string    `json:"category,omitempty"`
	PlayerPosition int       `json:"player_position,omitempty"`
	RobotPosition  int       `json:"robot_position,omitempty"`
	WinnerMessage  string    `json:"winner_message,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	Time           time.Time `json:"time"`
}

// Notifier receives events. Implementations must not block the game for
// longer than a single write.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(context.Context, Event) {})

// Log is a narration line.
func Log(message, category string) Event {
	return Event{Type: EventLog, Message: message, Category: category}
}

// State is a position snapshot.
func State(s board.Snapshot) Event {
	return Event{Type: EventStateUpdate, PlayerPosition: s.PlayerPosition, RobotPosition: s.RobotPosition}
}

// TurnRequest asks the player to roll.
func TurnRequest() Event { return Event{Type: EventTurnRequest} }

// RobotTurn announces the robot is playing.
func RobotTurn() Event { return Event{Type: EventRobotTurn} }

// Waiting shows a hold message.
func Waiting(message string) Event { return Event{Type: EventWaiting, Message: message} }

// CollisionPrompt asks a human to clear a piece off a field.
func CollisionPrompt(message string) Event {
	return Event{Type: EventCollisionPrompt, Message: message}
}

// GameOver carries the final result.
func GameOver(winnerMessage string, s board.Snapshot) Event {
	return Event{
		Type:           EventGameOver,
		WinnerMessage:  winnerMessage,
		PlayerPosition: s.PlayerPosition,
		RobotPosition:  s.RobotPosition,
	}
}
