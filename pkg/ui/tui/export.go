package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Messages the export panel adapter sends into the program
type (
	percentMsg int
	statusMsg  string
	erroredMsg bool
	visibleMsg bool
	doneMsg    struct{}
)

// ExportModel renders one export submission: a progress bar, a spinner while
// work is in flight, and the status narration
type ExportModel struct {
	spinner spinner.Model
	bar     progress.Model

	percent int
	status  string
	errored bool
	visible bool
	done    bool
}

// NewExportModel creates the export progress model
func NewExportModel() ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return ExportModel{
		spinner: s,
		bar:     bar,
	}
}

// Init starts the spinner
func (m ExportModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress messages and key presses
func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case percentMsg:
		m.percent = int(msg)

	case statusMsg:
		m.status = string(msg)

	case erroredMsg:
		m.errored = bool(msg)

	case visibleMsg:
		m.visible = bool(msg)

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the panel
func (m ExportModel) View() string {
	if !m.visible {
		return ""
	}

	status := statusStyle.Render(m.status)
	if m.errored {
		status = errorStyle.Render(m.status)
	} else if m.percent >= 100 {
		status = successStyle.Render(m.status)
	}

	indicator := m.spinner.View()
	if m.percent >= 100 || m.errored {
		indicator = " "
	}

	body := fmt.Sprintf("%s\n\n%s %s %3d%%\n\n%s",
		titleStyle.Render("EXPORT"),
		indicator,
		m.bar.ViewAs(float64(m.percent)/100),
		m.percent,
		status,
	)

	return panelStyle.Render(body) + helpStyle.Render("q quit")
}

// Panel forwards progress updates into a running program. It implements the
// export controller's ProgressPanel interface, so the controller can drive
// the TUI without knowing about Bubble Tea.
type Panel struct {
	program *tea.Program
}

// NewPanel wraps a program in a panel adapter
func NewPanel(program *tea.Program) *Panel {
	return &Panel{program: program}
}

func (p *Panel) Show()                  { p.program.Send(visibleMsg(true)) }
func (p *Panel) Hide()                  { p.program.Send(visibleMsg(false)) }
func (p *Panel) SetPercent(percent int) { p.program.Send(percentMsg(percent)) }
func (p *Panel) SetStatus(msg string)   { p.program.Send(statusMsg(msg)) }
func (p *Panel) SetErrored(errored bool) {
	p.program.Send(erroredMsg(errored))
}

// Done ends the program once the submission has fully settled
func (p *Panel) Done() {
	p.program.Send(doneMsg{})
}

// NewExportProgram builds a program plus its panel adapter
func NewExportProgram() (*tea.Program, *Panel) {
	program := tea.NewProgram(NewExportModel())
	return program, NewPanel(program)
}
