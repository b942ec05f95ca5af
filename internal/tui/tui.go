// Package tui provides the terminal client for agrolake.
//
// The client renders the same operation surface the MCP server exposes as an
// interactive menu: pick an operation, optionally type its argument, and the
// JSON result is rendered in a scrollable viewport. It follows a state-based
// architecture on top of the Bubble Tea framework, with state transitions
// driven by custom message types.
package tui

import (
	"fmt"

	"agrolake/internal/logging"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// AppState represents the current view of the client.
type AppState int

const (
	StateMenu AppState = iota
	StateInput
	StateLoading
	StateResult
	StateError
	StateQuitting
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// MainModel is the root model of the client.
type MainModel struct {
	deps   Deps
	logger *logging.AppLogger

	state     AppState
	prevState AppState

	menu     list.Model
	input    textinput.Model
	viewport viewport.Model

	selected  operation
	resultFor string
	err       error

	windowWidth  int
	windowHeight int
}

func NewMainModel(deps Deps) *MainModel {
	ops := operations(deps)
	items := make([]list.Item, len(ops))
	for i, op := range ops {
		items[i] = op
	}

	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = ""
	menu.SetShowTitle(false)
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(true)
	menu.SetShowHelp(false)

	input := textinput.New()
	input.CharLimit = 500

	return &MainModel{
		deps:   deps,
		logger: deps.Logger,
		state:  StateMenu,
		menu:   menu,
		input:  input,
	}
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Debug("client initialized")
	return nil
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		if msg.Width > 0 && msg.Height > 0 {
			m.menu.SetSize(msg.Width-4, msg.Height-8)
			m.viewport = viewport.New(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = StateQuitting
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case resultMsg:
		m.logger.Debug("operation completed", "op", msg.op)
		m.resultFor = msg.op
		m.viewport.SetContent(m.renderResult(msg.output))
		m.viewport.GotoTop()
		m.state = StateResult
		return m, nil

	case opErrorMsg:
		m.logger.Error("operation failed", "op", msg.op, "error", msg.err)
		m.err = msg.err
		m.prevState = StateMenu
		m.state = StateError
		return m, nil
	}

	switch m.state {
	case StateMenu:
		m.menu, cmd = m.menu.Update(msg)
	case StateInput:
		m.input, cmd = m.input.Update(msg)
	case StateResult:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case StateMenu:
		switch msg.String() {
		case "q":
			if m.menu.FilterState() != list.Filtering {
				m.state = StateQuitting
				return m, tea.Quit
			}
		case "enter":
			if m.menu.FilterState() != list.Filtering {
				if op, ok := m.menu.SelectedItem().(operation); ok {
					return m.startOperation(op)
				}
			}
		}
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd

	case StateInput:
		switch msg.String() {
		case "esc":
			m.state = StateMenu
			return m, nil
		case "enter":
			m.state = StateLoading
			return m, runOperation(m.selected, m.deps, m.input.Value())
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case StateResult:
		switch msg.String() {
		case "esc", "q":
			m.state = StateMenu
			return m, nil
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StateError:
		if msg.String() == "esc" {
			m.state = m.prevState
			m.err = nil
			return m, nil
		}
	}
	return m, nil
}

func (m *MainModel) startOperation(op operation) (tea.Model, tea.Cmd) {
	m.selected = op
	m.logger.Debug("operation selected", "op", op.id)

	if op.argLabel != "" {
		m.input.SetValue("")
		m.input.Placeholder = op.argPlaceholder
		m.input.Focus()
		m.state = StateInput
		return m, textinput.Blink
	}

	m.state = StateLoading
	return m, runOperation(op, m.deps, "")
}

// renderResult pretty-prints a JSON payload through glamour so the terminal
// gets syntax highlighting, falling back to the wrapped raw text.
func (m *MainModel) renderResult(output string) string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	markdown := "```json\n" + output + "\n```"
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if rendered, err := renderer.Render(markdown); err == nil {
			return rendered
		}
	}
	return wordwrap.String(output, width)
}

func (m *MainModel) View() string {
	switch m.state {
	case StateQuitting:
		return "Até logo! 🌱\n"

	case StateMenu:
		return titleStyle.Render("🌱 agrolake - dados agrícolas") + "\n" +
			m.menu.View() +
			helpStyle.Render("↑/↓ navegar • Enter selecionar • / filtrar • q sair")

	case StateInput:
		return titleStyle.Render(m.selected.title) + "\n" +
			m.selected.argLabel + ":\n" +
			m.input.View() +
			helpStyle.Render("Enter executar • Esc voltar")

	case StateLoading:
		return titleStyle.Render(m.selected.title) + "\n" +
			"Consultando...\n"

	case StateResult:
		return titleStyle.Render(m.resultFor) + "\n" +
			m.viewport.View() +
			helpStyle.Render("↑/↓ rolar • Esc voltar")

	case StateError:
		content := ""
		if m.err != nil {
			content = m.err.Error()
		}
		return errorStyle.Render("❌ Erro") + "\n\n" +
			wordwrap.String(content, max(m.windowWidth-4, 40)) +
			helpStyle.Render("Esc para voltar • Ctrl+C para sair")
	}
	return ""
}

// Run starts the client in the alternate screen.
func Run(deps Deps) error {
	p := tea.NewProgram(NewMainModel(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("client exited with error: %w", err)
	}
	return nil
}
