package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTurn(t *testing.T) {
	tests := []struct {
		name  string
		state GameState
		want  string
	}{
		{"idle", GameState{}, "no game yet"},
		{"player to move", GameState{SessionID: "a", Running: true, CurrentTurn: "player"}, "your turn"},
		{"robot to move", GameState{SessionID: "a", Running: true, CurrentTurn: "robot"}, "robot's turn"},
		{"player won", GameState{SessionID: "a", GameOver: true, Winner: "player"}, "you won"},
		{"robot won", GameState{SessionID: "a", GameOver: true, Winner: "robot"}, "the robot won"},
		{"failed", GameState{SessionID: "a", CurrentTurn: "robot", Error: "robot turn: move failed"}, "game ended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTurn(tt.state))
		})
	}
}

func TestFormatWinRate(t *testing.T) {
	assert.Equal(t, "-", FormatWinRate(Stats{Games: 2, Unfinished: 2}))
	assert.Equal(t, "25%", FormatWinRate(Stats{PlayerWins: 1, RobotWins: 3}))
	assert.Equal(t, "100%", FormatWinRate(Stats{PlayerWins: 2}))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "0s", FormatAge(300*time.Millisecond))
	assert.Equal(t, "59s", FormatAge(59*time.Second))
	assert.Equal(t, "2m 5s", FormatAge(125*time.Second))
}
