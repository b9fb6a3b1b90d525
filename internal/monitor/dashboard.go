// Package monitor implements `snakebot watch`, a terminal dashboard that
// follows a game served by `snakebot serve`.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/snakebot/internal/board"
	"github.com/fyrsmithlabs/snakebot/internal/config"
	"github.com/fyrsmithlabs/snakebot/internal/console"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model is the bubbletea watch model.
type Model struct {
	client     *Client
	serverURL  string
	interval   time.Duration
	boardCfg   config.BoardConfig
	warps      map[int]int
	lastUpdate time.Time
	state      GameState
	stats      *Stats
	err        error
	quitting   bool

	// per-poll positions of the current session
	playerTrace []float64
	robotTrace  []float64

	playerProgress progress.Model
	robotProgress  progress.Model
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a watch model polling serverURL every interval.
func NewModel(serverURL string, interval time.Duration, boardCfg config.BoardConfig) Model {
	return Model{
		client:    NewClient(serverURL),
		serverURL: serverURL,
		interval:  interval,
		boardCfg:  boardCfg,
		warps:     boardCfg.WarpMap(),
		playerProgress: progress.New(
			progress.WithGradient("#00ff00", "#ffff00"),
			progress.WithWidth(40),
		),
		robotProgress: progress.New(
			progress.WithGradient("#ff00ff", "#00ffff"),
			progress.WithWidth(40),
		),
	}
}

type tickMsg time.Time

type pollMsg struct {
	state GameState
	stats *Stats
}

type errMsg error

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		poll(m.client),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// poll fetches the game state and, if the server keeps history, the totals.
func poll(client *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		state, err := client.State(ctx)
		if err != nil {
			return errMsg(err)
		}

		msg := pollMsg{state: state}
		stats, err := client.Stats(ctx)
		switch {
		case err == nil:
			msg.stats = &stats
		case errors.Is(err, ErrHistoryDisabled):
		default:
			return errMsg(err)
		}
		return msg
	}
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, poll(m.client)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			poll(m.client),
		)

	case pollMsg:
		if msg.state.SessionID != m.state.SessionID {
			m.playerTrace, m.robotTrace = nil, nil
		}
		if msg.state.SessionID != "" {
			m.playerTrace = appendToHistory(m.playerTrace, float64(msg.state.PlayerPosition))
			m.robotTrace = appendToHistory(m.robotTrace, float64(msg.state.RobotPosition))
		}
		m.state = msg.state
		if msg.stats != nil {
			m.stats = msg.stats
		}
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("snakebot watch") + "\n\n")
	b.WriteString(errorStyle.Render("⚠ Cannot reach the game server") + "\n\n")
	b.WriteString(dimStyle.Render("URL: ") + valueStyle.Render(m.serverURL) + "\n")
	b.WriteString(dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n\n")
	b.WriteString(dimStyle.Render("Start it with: snakebot serve") + "\n")
	b.WriteString(m.renderFooter())
	return containerStyle.Render(b.String())
}

func (m Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("snakebot watch") + "  " + m.statusBadge() + "\n")

	b.WriteString(sectionStyle.Render("Board") + "\n")
	b.WriteString(console.RenderBoard(m.snapshot(), m.warps) + "\n")

	b.WriteString(sectionStyle.Render("Positions") + "\n")
	b.WriteString(m.renderPositions())

	b.WriteString(sectionStyle.Render("Trace") + "\n")
	b.WriteString(labelStyle.Render("You   ") + createSparkline(m.playerTrace) + "\n")
	b.WriteString(labelStyle.Render("Robot ") + createSparkline(m.robotTrace) + "\n")

	if m.stats != nil {
		b.WriteString(sectionStyle.Render("History") + "\n")
		fmt.Fprintf(&b, "%s %s  %s %s  %s %s  %s %s\n",
			labelStyle.Render("games"), valueStyle.Render(fmt.Sprint(m.stats.Games)),
			labelStyle.Render("you"), valueStyle.Render(fmt.Sprint(m.stats.PlayerWins)),
			labelStyle.Render("robot"), valueStyle.Render(fmt.Sprint(m.stats.RobotWins)),
			labelStyle.Render("your win rate"), valueStyle.Render(FormatWinRate(*m.stats)))
	}

	if m.state.Error != "" {
		b.WriteString("\n" + errorStyle.Render("Last game failed: "+m.state.Error) + "\n")
	}

	b.WriteString(m.renderFooter())
	return containerStyle.Render(b.String())
}

func (m Model) renderPositions() string {
	pct := func(pos int) float64 {
		if m.boardCfg.Length <= 1 || pos < 1 {
			return 0
		}
		return float64(pos-1) / float64(m.boardCfg.Length-1)
	}
	return fmt.Sprintf("%s %s %s\n%s %s %s\n",
		labelStyle.Render("You  "), m.playerProgress.ViewAs(pct(m.state.PlayerPosition)),
		valueStyle.Render(fmt.Sprint(m.state.PlayerPosition)),
		labelStyle.Render("Robot"), m.robotProgress.ViewAs(pct(m.state.RobotPosition)),
		valueStyle.Render(fmt.Sprint(m.state.RobotPosition)))
}

func (m Model) renderFooter() string {
	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = FormatAge(time.Since(m.lastUpdate)) + " ago"
	}
	return footerStyle.Render(fmt.Sprintf("%s quit  %s refresh  updated %s",
		footerKeyStyle.Render("[q]"), footerKeyStyle.Render("[r]"), updated))
}

// statusBadge colors the turn description by game phase.
func (m Model) statusBadge() string {
	text := FormatTurn(m.state)
	switch {
	case m.state.Error != "":
		return errorStyle.Render("✗ " + text)
	case m.state.GameOver:
		return warningStyle.Render("★ " + text)
	case m.state.Running:
		return healthyStyle.Render("● " + text)
	default:
		return dimStyle.Render(text)
	}
}

// snapshot converts the polled state for the shared board renderer.
func (m Model) snapshot() board.Snapshot {
	s := board.Snapshot{
		PlayerPosition: m.state.PlayerPosition,
		RobotPosition:  m.state.RobotPosition,
		GameOver:       m.state.GameOver,
		Winner:         m.state.Winner,
		MaxField:       m.boardCfg.Length,
	}
	if m.state.CurrentTurn == board.Robot.String() {
		s.CurrentTurn = board.Robot
	}
	return s
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}
