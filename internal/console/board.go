package console

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/fyrsmithlabs/snakebot/internal/board"
)

const (
	progressWidth   = 30
	sparklineWidth  = 40
	sparklineHeight = 4
)

// RenderBoard draws the board as the players see it: field 1 bottom left,
// rows alternating direction, the winning field at the top.
func RenderBoard(s board.Snapshot, warps map[int]int) string {
	length := s.MaxField
	rows := (length + board.RowSize - 1) / board.RowSize

	lines := make([]string, 0, rows)
	for row := rows - 1; row >= 0; row-- {
		cells := make([]string, 0, board.RowSize)
		for col := 0; col < board.RowSize; col++ {
			field := row*board.RowSize + col + 1
			if row%2 == 1 {
				field = row*board.RowSize + (board.RowSize - col)
			}
			if field > length {
				cells = append(cells, cellStyle.Render(""))
				continue
			}
			cells = append(cells, cellStyle.Render(renderCell(field, s, warps)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return boardStyle.Render(strings.Join(lines, "\n"))
}

func renderCell(field int, s board.Snapshot, warps map[int]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", field)
	if to, ok := warps[field]; ok {
		if board.KindOf(field, to) == board.Ladder {
			b.WriteString(ladderStyle.Render(fmt.Sprintf("^%d", to)))
		} else {
			b.WriteString(snakeStyle.Render(fmt.Sprintf("v%d", to)))
		}
	}
	if s.PlayerPosition == field {
		b.WriteString(playerStyle.Render("P"))
	}
	if s.RobotPosition == field {
		b.WriteString(robotStyle.Render("R"))
	}
	return b.String()
}

// RenderProgress shows how far each side is from the winning field.
func RenderProgress(s board.Snapshot) string {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth))
	pct := func(pos int) float64 {
		if s.MaxField <= 1 {
			return 0
		}
		return float64(pos-1) / float64(s.MaxField-1)
	}
	return fmt.Sprintf("%s %s %2d\n%s %s %2d",
		playerStyle.Render("You  "), bar.ViewAs(pct(s.PlayerPosition)), s.PlayerPosition,
		robotStyle.Render("Robot"), bar.ViewAs(pct(s.RobotPosition)), s.RobotPosition)
}

// RenderTrace plots a sequence of board positions as a sparkline.
func RenderTrace(positions []float64) string {
	if len(positions) == 0 {
		return dimStyle.Render("no turns")
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range positions {
		spark.Push(v)
	}
	spark.Draw()
	return spark.View()
}
