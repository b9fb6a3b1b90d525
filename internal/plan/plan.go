// Package plan turns a robot turn into an ordered list of actuation steps
// and runs that list against an actuator.
//
// A Plan is built fresh for every turn and never persisted. Execution stops
// at the first failing step; nothing that already happened is undone.
package plan

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
)

// Kind identifies what a step does.
type Kind int

const (
	KindMove Kind = iota
	KindGripper
	KindDwell
	KindAnnounce
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindGripper:
		return "gripper"
	case KindDwell:
		return "dwell"
	case KindAnnounce:
		return "announce"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Step is one actuation instruction. Only the field matching Kind is set.
type Step struct {
	Kind    Kind
	Label   string
	Pose    pose.Pose
	Gripper int
	Dwell   time.Duration
	Event   notify.Event
}

func (s Step) String() string {
	if s.Label != "" {
		return s.Kind.String() + " " + s.Label
	}
	switch s.Kind {
	case KindMove:
		return "move " + s.Pose.String()
	case KindGripper:
		return fmt.Sprintf("gripper %d", s.Gripper)
	case KindDwell:
		return "dwell " + s.Dwell.String()
	default:
		return s.Kind.String()
	}
}

// Move returns a move step.
func Move(label string, p pose.Pose) Step {
	return Step{Kind: KindMove, Label: label, Pose: p}
}

// Grip returns a gripper step.
func Grip(label string, value int) Step {
	return Step{Kind: KindGripper, Label: label, Gripper: value}
}

// Dwell returns a pause step.
func Dwell(d time.Duration) Step {
	return Step{Kind: KindDwell, Dwell: d}
}

// Announce returns a step that emits e when reached.
func Announce(e notify.Event) Step {
	return Step{Kind: KindAnnounce, Event: e}
}

// Plan is an ordered sequence of steps.
type Plan []Step

// Then appends the steps of other.
func (p Plan) Then(other ...Plan) Plan {
	for _, o := range other {
		p = append(p, o...)
	}
	return p
}

// Count returns how many steps of kind k the plan holds.
func (p Plan) Count(k Kind) int {
	n := 0
	for _, s := range p {
		if s.Kind == k {
			n++
		}
	}
	return n
}

// Duration is the unscaled sum of all dwells.
func (p Plan) Duration() time.Duration {
	var d time.Duration
	for _, s := range p {
		if s.Kind == KindDwell {
			d += s.Dwell
		}
	}
	return d
}

// StepError reports the step that aborted a plan.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("plan step %d (%s): %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
