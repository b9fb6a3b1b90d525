package console

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	robotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	ladderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	snakeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	cellStyle = lipgloss.NewStyle().
			Width(8).
			Align(lipgloss.Center)

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func categoryStyle(category string) lipgloss.Style {
	switch category {
	case "player":
		return playerStyle
	case "robot":
		return robotStyle
	default:
		return systemStyle
	}
}
