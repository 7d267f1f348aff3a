// Package tui is the text simulation frontend: a conversation pane fed
// by session updates and an input line that speaks as the patient.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/caretone/intake-core/core/call"
	"github.com/caretone/intake-core/core/session"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Controller is the slice of a session the simulation needs.
// *session.Session satisfies it.
type Controller interface {
	SendUserMessage(text string) error
	Snapshot() call.Call
	Observe() (<-chan session.Update, func())
}

type styles struct {
	header    lipgloss.Style
	assistant lipgloss.Style
	patient   lipgloss.Style
	system    lipgloss.Style
	errorText lipgloss.Style
	inputBox  lipgloss.Style
	help      lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1),
		assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		patient:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		system:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		inputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

type updateMsg session.Update

type sessionEndedMsg struct{}

type sendErrMsg struct{ err error }

// Model is the bubbletea model for simulation mode.
type Model struct {
	ctrl Controller

	input        textinput.Model
	conversation viewport.Model
	styles       styles

	lines     []string
	remaining int
	width     int
	height    int
	ready     bool
	ended     bool
}

// NewModel creates the simulation model around a live session.
func NewModel(ctrl Controller) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Speak as the patient (status, quit)"
	input.CharLimit = 500
	input.Focus()

	return Model{
		ctrl:      ctrl,
		input:     input,
		styles:    newStyles(),
		remaining: len(call.RequiredTopics()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		paneHeight := msg.Height - 6
		if paneHeight < 3 {
			paneHeight = 3
		}
		if !m.ready {
			m.conversation = viewport.New(msg.Width, paneHeight)
			m.ready = true
		} else {
			m.conversation.Width = msg.Width
			m.conversation.Height = paneHeight
		}
		m.refreshConversation()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case updateMsg:
		m.apply(session.Update(msg))
		return m, nil

	case sessionEndedMsg:
		m.ended = true
		m.appendLine(m.styles.system.Render("Interview ended. Output saved."))
		return m, tea.Quit

	case sendErrMsg:
		m.appendLine(m.styles.errorText.Render("send failed: " + msg.err.Error()))
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.conversation, cmd = m.conversation.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	switch strings.ToLower(text) {
	case "quit", "exit":
		return m, tea.Quit
	case "status":
		snapshot := m.ctrl.Snapshot()
		for _, line := range strings.Split(snapshot.Summary(), "\n") {
			m.appendLine(m.styles.system.Render(line))
		}
		return m, nil
	}

	if m.ended {
		m.appendLine(m.styles.system.Render("The interview has ended."))
		return m, nil
	}

	ctrl := m.ctrl
	return m, func() tea.Msg {
		if err := ctrl.SendUserMessage(text); err != nil {
			return sendErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) apply(update session.Update) {
	switch update.Kind {
	case session.UpdateTranscript:
		label := m.styles.assistant.Render("Assistant")
		if update.Entry.Speaker == "patient" {
			label = m.styles.patient.Render("Patient")
		}
		m.appendLine(label + ": " + update.Entry.Text)
	case session.UpdateState:
		state := update.State
		m.remaining = len(state.UncoveredTopics())
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshConversation()
}

func (m *Model) refreshConversation() {
	if !m.ready {
		return
	}
	width := m.conversation.Width
	if width <= 0 {
		width = 80
	}
	wrapped := make([]string, 0, len(m.lines))
	for _, line := range m.lines {
		wrapped = append(wrapped, wordwrap.String(line, width))
	}
	m.conversation.SetContent(strings.Join(wrapped, "\n"))
	m.conversation.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "connecting..."
	}
	header := m.styles.header.Render(
		fmt.Sprintf("Intake Simulation | required topics remaining: %d", m.remaining))
	help := m.styles.help.Render("enter to speak · status for coverage · quit to hang up")
	return strings.Join([]string{
		header,
		m.conversation.View(),
		m.styles.inputBox.Render(m.input.View()),
		help,
	}, "\n")
}

// Run drives the simulation UI until the user quits or the session
// finalizes.
func Run(ctx context.Context, ctrl Controller) error {
	program := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))

	updates, unsubscribe := ctrl.Observe()
	defer unsubscribe()
	go func() {
		for update := range updates {
			program.Send(updateMsg(update))
		}
		program.Send(sessionEndedMsg{})
	}()

	_, err := program.Run()
	return err
}
