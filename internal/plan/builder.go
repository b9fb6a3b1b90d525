package plan

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/pose"
)

// Settle times after each kind of motion.
const (
	DwellApproach = 3 * time.Second
	DwellThrow    = 6 * time.Second
	DwellRotate   = 10 * time.Second
	DwellGrip     = 1 * time.Second
	DwellLift     = 1 * time.Second
)

// Builder derives turn plans from the pose table and gripper settings.
type Builder struct {
	poses   *pose.Table
	gripper config.GripperConfig
}

// NewBuilder creates a plan builder.
func NewBuilder(poses *pose.Table, gripper config.GripperConfig) *Builder {
	return &Builder{poses: poses, gripper: gripper}
}

// Throw picks the die up and drops it from the throw pose.
func (b *Builder) Throw() Plan {
	return Plan{
		Move("dice above", b.poses.DiceAbove), Dwell(DwellApproach),
		Move("dice down", b.poses.DiceDown), Dwell(DwellApproach),
		Grip("close on die", b.gripper.ClosedDie), Dwell(DwellGrip),
		Move("lift die", b.poses.DiceAbove), Dwell(DwellApproach),
		Move("throw", b.poses.Throw), Dwell(DwellThrow),
		Grip("release die", b.gripper.Open), Dwell(DwellGrip),
		Move("dice above", b.poses.DiceAbove), Dwell(DwellApproach),
	}
}

// Rest returns the arm to its rest pose and lets it settle.
func (b *Builder) Rest() Plan {
	return Plan{Move("rest", b.poses.Rest), Dwell(DwellApproach)}
}

// FigureMove carries the robot's piece from one field to another. Each end
// is approached at the alternate yaw when the human piece sits on a
// neighbouring field of the same row.
func (b *Builder) FigureMove(from, to, human int) (Plan, error) {
	src, err := b.poses.Field(from)
	if err != nil {
		return nil, fmt.Errorf("pick: %w", err)
	}
	dst, err := b.poses.Field(to)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	pick := b.visit(fmt.Sprintf("field %d", from), src, board.Adjacent(from, human), Grip("grab piece", b.gripper.ClosedFigure))
	place := b.visit(fmt.Sprintf("field %d", to), dst, board.Adjacent(to, human), Grip("release piece", b.gripper.Open))
	return pick.Then(place), nil
}

func (b *Builder) visit(where string, fp pose.FieldPoses, alt bool, grip Step) Plan {
	if alt {
		return Plan{
			Move("above "+where, fp.Above), Dwell(DwellApproach),
			Move("rotate above "+where, fp.AboveAlt), Dwell(DwellRotate),
			Move("down "+where+" rotated", fp.DownAlt), Dwell(DwellApproach),
			grip, Dwell(DwellGrip),
			Move("lift "+where+" rotated", fp.AboveAlt), Dwell(DwellLift),
		}
	}
	return Plan{
		Move("above "+where, fp.Above), Dwell(DwellApproach),
		Move("down "+where, fp.Down), Dwell(DwellApproach),
		grip, Dwell(DwellGrip),
		Move("lift "+where, fp.Above), Dwell(DwellLift),
	}
}

// Relocation moves the robot's piece after a committed turn. When the
// landing field is a warp source (landing != final) the piece is first set
// down on the landing field, the arm rests, the warp is announced, and the
// piece is carried on to final. The plan does not end at rest.
func (b *Builder) Relocation(from, landing, final, human int) (Plan, error) {
	if landing == final {
		return b.FigureMove(from, final, human)
	}

	first, err := b.FigureMove(from, landing, human)
	if err != nil {
		return nil, err
	}
	second, err := b.FigureMove(landing, final, human)
	if err != nil {
		return nil, err
	}
	return first.Then(
		b.Rest(),
		Plan{Announce(notify.Log(WarpMessage(board.Robot, landing, final), notify.CategoryRobot))},
		second,
	), nil
}

// WarpMessage narrates a ladder or snake taken by actor.
func WarpMessage(actor board.Actor, from, to int) string {
	if actor == board.Player {
		if board.KindOf(from, to) == board.Ladder {
			return fmt.Sprintf("Ladder! You climb from field %d to field %d!", from, to)
		}
		return fmt.Sprintf("Snake! You slide down from field %d to field %d!", from, to)
	}
	if board.KindOf(from, to) == board.Ladder {
		return fmt.Sprintf("Ladder! Robot climbs from field %d to field %d!", from, to)
	}
	return fmt.Sprintf("Snake! Robot slides down from field %d to field %d!", from, to)
}
