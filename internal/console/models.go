package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fyrsmithlabs/snakebot/internal/board"
)

// diceModel asks for the value shown on a physical die.
type diceModel struct {
	input    textinput.Model
	title    string
	result   string // format for the accepted value
	value    int
	errText  string
	done     bool
	canceled bool
}

func newDiceModel() diceModel {
	return newDiceInput("Your turn", "Dice value (1-6): ", "You rolled %d")
}

// newRobotDiceModel asks the operator to read the die the robot threw.
func newRobotDiceModel() diceModel {
	return newDiceInput("Robot's roll", "What did the robot roll? (1-6): ", "The robot rolled %d")
}

func newDiceInput(title, prompt, result string) diceModel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "1-6"
	ti.CharLimit = 2
	ti.Width = 4
	ti.Focus()
	return diceModel{input: ti, title: title, result: result}
}

func (m diceModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m diceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			raw := strings.TrimSpace(m.input.Value())
			v, err := strconv.Atoi(raw)
			if err == nil {
				err = board.ValidateRoll(v)
			}
			if err != nil {
				m.errText = fmt.Sprintf("Invalid dice value %q. Please enter a value between 1 and 6.", raw)
				m.input.Reset()
				return m, nil
			}
			m.value = v
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m diceModel) View() string {
	if m.done {
		return playerStyle.Render(fmt.Sprintf(m.result, m.value)) + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("enter: confirm • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

// confirmModel waits until the human acknowledges a board correction.
type confirmModel struct {
	message  string
	done     bool
	canceled bool
}

func newConfirmModel(message string) confirmModel {
	return confirmModel{message: message}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.canceled = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return dimStyle.Render("Confirmed.") + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s\n",
		warningStyle.Render("Collision!"),
		m.message,
		dimStyle.Render("Press enter once the piece is back on field 1."))
}
