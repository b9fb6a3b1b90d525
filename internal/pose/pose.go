// Package pose maps board fields and fixed waypoints to actuator targets.
package pose

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
)

// ErrUnknownField is returned for a field outside the board.
var ErrUnknownField = errors.New("no poses for field")

// Pose is a 6-DoF actuator target plus approach speed.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Speed int     `json:"speed"`
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.0f,%.0f,%.0f r%.0f p%.0f y%.0f)", p.X, p.Y, p.Z, p.Roll, p.Pitch, p.Yaw)
}

// WithYaw returns a copy rotated to yaw.
func (p Pose) WithYaw(yaw float64) Pose {
	p.Yaw = yaw
	return p
}

func fromConfig(c config.PoseConfig) Pose {
	return Pose{X: c.X, Y: c.Y, Z: c.Z, Roll: c.Roll, Pitch: c.Pitch, Yaw: c.Yaw, Speed: c.Speed}
}

// FieldPoses holds the four waypoints of one field. The Alt variants use the
// alternate yaw and are taken when the human piece sits on a neighbouring
// field.
type FieldPoses struct {
	Above    Pose
	Down     Pose
	AboveAlt Pose
	DownAlt  Pose
}

// Table is the immutable pose lookup built once at startup.
type Table struct {
	Rest      Pose
	DiceAbove Pose
	DiceDown  Pose
	Throw     Pose

	fields []FieldPoses // index 0 is field 1
}

// NewTable lays out length fields in rows of board.RowSize. Rows alternate
// direction so consecutive fields stay physically next to each other.
// Per-field overrides replace the generated x/y.
func NewTable(cfg config.PosesConfig, length int) (*Table, error) {
	if length < 1 {
		return nil, fmt.Errorf("board length must be positive, got %d", length)
	}
	l := cfg.Layout
	t := &Table{
		Rest:      fromConfig(cfg.Rest),
		DiceAbove: fromConfig(cfg.DiceAbove),
		DiceDown:  fromConfig(cfg.DiceDown),
		Throw:     fromConfig(cfg.Throw),
		fields:    make([]FieldPoses, length),
	}

	overrides := make(map[int]config.FieldPoseOverride, len(cfg.Fields))
	for _, o := range cfg.Fields {
		if o.Field < 1 || o.Field > length {
			return nil, fmt.Errorf("%w %d: override outside 1..%d", ErrUnknownField, o.Field, length)
		}
		overrides[o.Field] = o
	}

	for field := 1; field <= length; field++ {
		row := (field - 1) / board.RowSize
		col := (field - 1) % board.RowSize
		if row%2 == 1 {
			col = board.RowSize - 1 - col
		}
		x := l.OriginX + float64(col)*l.StepX
		y := l.OriginY + float64(row)*l.StepY
		if o, ok := overrides[field]; ok {
			x, y = o.X, o.Y
		}

		above := Pose{X: x, Y: y, Z: l.AboveZ, Roll: l.Roll, Pitch: l.Pitch, Yaw: l.Yaw, Speed: l.Speed}
		down := above
		down.Z = l.DownZ
		t.fields[field-1] = FieldPoses{
			Above:    above,
			Down:     down,
			AboveAlt: above.WithYaw(l.AltYaw),
			DownAlt:  down.WithYaw(l.AltYaw),
		}
	}
	return t, nil
}

// Field returns the waypoints of a board field.
func (t *Table) Field(field int) (FieldPoses, error) {
	if field < 1 || field > len(t.fields) {
		return FieldPoses{}, fmt.Errorf("%w %d", ErrUnknownField, field)
	}
	return t.fields[field-1], nil
}

// Len returns the number of fields in the table.
func (t *Table) Len() int { return len(t.fields) }
