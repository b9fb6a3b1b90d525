package monitor

import (
	"fmt"
	"time"
)

// FormatTurn describes whose turn it is.
func FormatTurn(st GameState) string {
	switch {
	case st.SessionID == "":
		return "no game yet"
	case st.GameOver && st.Winner == "player":
		return "you won"
	case st.GameOver && st.Winner == "robot":
		return "the robot won"
	case !st.Running && st.Error != "":
		return "game ended"
	case st.CurrentTurn == "player":
		return "your turn"
	case st.CurrentTurn == "robot":
		return "robot's turn"
	default:
		return st.CurrentTurn
	}
}

// FormatWinRate formats the player's share of decided games.
func FormatWinRate(s Stats) string {
	decided := s.PlayerWins + s.RobotWins
	if decided == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(s.PlayerWins)/float64(decided)*100)
}

// FormatAge formats the time since the last successful poll as "Xs" or "Xm Ys".
func FormatAge(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
