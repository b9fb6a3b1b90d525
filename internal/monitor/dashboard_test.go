package monitor

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/snakebot/internal/config"
)

func newTestModel() Model {
	return NewModel("http://localhost:5001", 2*time.Second, config.Default().Board)
}

func TestNewModel(t *testing.T) {
	model := newTestModel()
	assert.Equal(t, "http://localhost:5001", model.serverURL)
	assert.Equal(t, 2*time.Second, model.interval)
	assert.Len(t, model.warps, 7)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	assert.NotNil(t, newTestModel().Init())
}

func TestModel_Update_QuitKey(t *testing.T) {
	updated, cmd := newTestModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	m := updated.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestModel_Update_RefreshKey(t *testing.T) {
	updated, cmd := newTestModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})

	m := updated.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_Update_TickMsg(t *testing.T) {
	_, cmd := newTestModel().Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestModel_Update_PollMsg(t *testing.T) {
	model := newTestModel()
	model.err = errors.New("old failure")

	updated, cmd := model.Update(pollMsg{
		state: GameState{Running: true, SessionID: "a", PlayerPosition: 4, RobotPosition: 9, CurrentTurn: "robot"},
		stats: &Stats{Games: 3, PlayerWins: 2, RobotWins: 1},
	})
	assert.Nil(t, cmd)

	m := updated.(Model)
	assert.NoError(t, m.err)
	assert.False(t, m.lastUpdate.IsZero())
	assert.Equal(t, []float64{4}, m.playerTrace)
	assert.Equal(t, []float64{9}, m.robotTrace)
	require.NotNil(t, m.stats)
	assert.Equal(t, 3, m.stats.Games)
}

func TestModel_Update_NewSessionResetsTrace(t *testing.T) {
	var model tea.Model = newTestModel()
	for _, pos := range []int{2, 5, 8} {
		model, _ = model.Update(pollMsg{state: GameState{Running: true, SessionID: "a", PlayerPosition: pos, RobotPosition: 1}})
	}
	assert.Equal(t, []float64{2, 5, 8}, model.(Model).playerTrace)

	model, _ = model.Update(pollMsg{state: GameState{Running: true, SessionID: "b", PlayerPosition: 1, RobotPosition: 1}})
	assert.Equal(t, []float64{1}, model.(Model).playerTrace)
}

func TestModel_Update_KeepsStatsWhenHistoryDisabled(t *testing.T) {
	var model tea.Model = newTestModel()
	model, _ = model.Update(pollMsg{state: GameState{SessionID: "a"}, stats: &Stats{Games: 1}})
	model, _ = model.Update(pollMsg{state: GameState{SessionID: "a"}})

	require.NotNil(t, model.(Model).stats)
	assert.Equal(t, 1, model.(Model).stats.Games)
}

func TestModel_Update_ErrMsg(t *testing.T) {
	updated, _ := newTestModel().Update(errMsg(errors.New("connection refused")))

	m := updated.(Model)
	require.Error(t, m.err)
	view := m.View()
	assert.Contains(t, view, "Cannot reach the game server")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:5001")
}

func TestModel_View(t *testing.T) {
	var model tea.Model = newTestModel()
	model, _ = model.Update(pollMsg{
		state: GameState{Running: true, SessionID: "a", PlayerPosition: 12, RobotPosition: 3, CurrentTurn: "player"},
		stats: &Stats{Games: 4, PlayerWins: 1, RobotWins: 3},
	})

	view := model.View()
	assert.Contains(t, view, "snakebot watch")
	assert.Contains(t, view, "your turn")
	assert.Contains(t, view, "Positions")
	assert.Contains(t, view, "38%")
	assert.Contains(t, view, "[q]")
}

func TestModel_View_NoGame(t *testing.T) {
	var model tea.Model = newTestModel()
	model, _ = model.Update(pollMsg{state: GameState{}})

	view := model.View()
	assert.Contains(t, view, "no game yet")
	assert.Contains(t, view, "no data")
	assert.NotContains(t, view, "History")
}

func TestModel_Snapshot(t *testing.T) {
	m := newTestModel()
	m.state = GameState{PlayerPosition: 30, RobotPosition: 7, CurrentTurn: "robot", GameOver: true, Winner: "player"}

	s := m.snapshot()
	assert.Equal(t, 30, s.PlayerPosition)
	assert.Equal(t, 7, s.RobotPosition)
	assert.Equal(t, "robot", s.CurrentTurn.String())
	assert.Equal(t, 30, s.MaxField)
	assert.True(t, s.GameOver)
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, float64(5), h[0])
}
