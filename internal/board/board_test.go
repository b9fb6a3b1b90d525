package board

import (
	"testing"

	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultBoard(t *testing.T) *Board {
	t.Helper()
	b, err := New(config.Default().Board)
	require.NoError(t, err)
	return b
}

func TestNew_InitialState(t *testing.T) {
	b := newDefaultBoard(t)

	assert.Equal(t, 1, b.Position(Player))
	assert.Equal(t, 1, b.Position(Robot))
	assert.Equal(t, Player, b.CurrentTurn())
	assert.False(t, b.IsGameOver())
	_, won := b.Winner()
	assert.False(t, won)
	assert.Equal(t, 30, b.MaxField())
}

func TestNew_RejectsChainedWarps(t *testing.T) {
	_, err := New(config.BoardConfig{
		Length: 10,
		Warps:  []config.WarpConfig{{From: 2, To: 5}, {From: 5, To: 8}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid board")
}

func TestProposeMove_Pure(t *testing.T) {
	b := newDefaultBoard(t)
	before := b.Snapshot()

	for pos := 1; pos <= 30; pos++ {
		for steps := 1; steps <= 6; steps++ {
			assert.Equal(t, pos+steps, b.ProposeMove(pos, steps))
		}
	}
	assert.Equal(t, before, b.Snapshot())
}

func TestCommitMove_WinClampsWithoutWarp(t *testing.T) {
	for _, raw := range []int{30, 31, 35} {
		b := newDefaultBoard(t)
		got := b.CommitMove(Robot, raw)

		assert.Equal(t, 30, got)
		assert.Equal(t, 30, b.Position(Robot))
		assert.True(t, b.IsGameOver())
		winner, ok := b.Winner()
		require.True(t, ok)
		assert.Equal(t, Robot, winner)
	}
}

func TestCommitMove_WarpsAreSingleHop(t *testing.T) {
	cfg := config.Default().Board
	for _, w := range cfg.Warps {
		b := newDefaultBoard(t)
		got := b.CommitMove(Player, w.From)

		assert.Equal(t, w.To, got, "warp from %d", w.From)
		assert.False(t, b.IsSpecialField(got), "destination %d must not be a warp source", got)
	}
}

func TestCommitMove_PlainField(t *testing.T) {
	b := newDefaultBoard(t)
	assert.Equal(t, 5, b.CommitMove(Player, 5))
	assert.Equal(t, 5, b.Position(Player))
	assert.False(t, b.IsGameOver())
}

func TestCommitMove_AfterGameOverIsIgnored(t *testing.T) {
	b := newDefaultBoard(t)
	b.CommitMove(Player, 30)
	assert.Equal(t, 1, b.CommitMove(Robot, 5))
	winner, _ := b.Winner()
	assert.Equal(t, Player, winner)
}

func TestPreMoveCollision(t *testing.T) {
	b := newDefaultBoard(t)
	b.CommitMove(Robot, 4)

	tests := []struct {
		name string
		raw  int
		want bool
	}{
		{"lands on robot", 4, true},
		{"short of robot", 3, false},
		{"past robot", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.PreMoveCollision(Player, tt.raw))
		})
	}
}

func TestPreMoveCollision_NeverOnWinningField(t *testing.T) {
	b := newDefaultBoard(t)
	// Force the opponent onto the last field without ending the game.
	b.positions[Robot] = 30
	assert.False(t, b.PreMoveCollision(Player, 30))
}

func TestBumpOpponentToStart(t *testing.T) {
	t.Run("warp carries mover onto opponent", func(t *testing.T) {
		b := newDefaultBoard(t)
		b.CommitMove(Player, 4)
		// Robot lands on 6 and snakes down to 4.
		assert.False(t, b.PreMoveCollision(Robot, 6))
		assert.Equal(t, 4, b.CommitMove(Robot, 6))

		assert.True(t, b.BumpOpponentToStart(Robot))
		assert.Equal(t, 1, b.Position(Player))
		assert.Equal(t, 4, b.Position(Robot))
	})

	t.Run("different fields", func(t *testing.T) {
		b := newDefaultBoard(t)
		b.CommitMove(Player, 4)
		b.CommitMove(Robot, 5)
		assert.False(t, b.BumpOpponentToStart(Robot))
		assert.Equal(t, 4, b.Position(Player))
	})

	t.Run("equal fields without a warp", func(t *testing.T) {
		b := newDefaultBoard(t)
		b.CommitMove(Player, 2)
		b.CommitMove(Robot, 2)
		assert.True(t, b.BumpOpponentToStart(Robot))
		assert.Equal(t, 1, b.Position(Player))
	})
}

func TestResetToStart(t *testing.T) {
	b := newDefaultBoard(t)
	b.CommitMove(Robot, 9)
	b.ResetToStart(Robot)
	assert.Equal(t, 1, b.Position(Robot))
}

func TestWarpTarget(t *testing.T) {
	b := newDefaultBoard(t)
	assert.True(t, b.IsSpecialField(6))
	assert.Equal(t, 4, b.WarpTarget(6))
	assert.False(t, b.IsSpecialField(5))
	assert.Equal(t, 5, b.WarpTarget(5))
}

func TestSwitchTurn(t *testing.T) {
	b := newDefaultBoard(t)
	b.SwitchTurn()
	assert.Equal(t, Robot, b.CurrentTurn())
	b.SwitchTurn()
	assert.Equal(t, Player, b.CurrentTurn())

	b.CommitMove(Player, 30)
	b.SwitchTurn()
	assert.Equal(t, Player, b.CurrentTurn(), "no transition out of game over")
}

func TestAdjacent(t *testing.T) {
	for a := 1; a <= 30; a++ {
		for c := 1; c <= 30; c++ {
			assert.Equal(t, Adjacent(a, c), Adjacent(c, a), "symmetry %d/%d", a, c)
			if a-c > 1 || c-a > 1 || a == c {
				assert.False(t, Adjacent(a, c), "%d/%d", a, c)
			}
		}
	}

	assert.True(t, Adjacent(1, 2))
	assert.True(t, Adjacent(4, 5))
	assert.False(t, Adjacent(5, 6), "row boundary")
	assert.False(t, Adjacent(10, 11), "row boundary")
	assert.True(t, Adjacent(6, 7))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Ladder, KindOf(3, 7))
	assert.Equal(t, Snake, KindOf(6, 4))
	assert.Equal(t, "ladder", Ladder.String())
	assert.Equal(t, "snake", Snake.String())
}

func TestValidateRoll(t *testing.T) {
	for v := 1; v <= 6; v++ {
		assert.NoError(t, ValidateRoll(v))
	}
	for _, v := range []int{-1, 0, 7} {
		assert.ErrorIs(t, ValidateRoll(v), ErrInvalidRoll)
	}
}

func TestSnapshot(t *testing.T) {
	b := newDefaultBoard(t)
	b.CommitMove(Player, 8)
	b.CommitMove(Robot, 30)

	s := b.Snapshot()
	assert.Equal(t, Snapshot{
		PlayerPosition: 8,
		RobotPosition:  30,
		CurrentTurn:    Player,
		GameOver:       true,
		Winner:         "robot",
		MaxField:       30,
	}, s)
}
