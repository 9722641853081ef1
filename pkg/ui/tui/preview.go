package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igfollow/pkg/preview"
)

// refreshMsg tells the model the widget applied a debounced update
type refreshMsg struct{}

// PreviewModel is the live profile preview: a handle input above an avatar
// box. Keystrokes are forwarded to the widget, which debounces them and
// sends a refresh back once the value settles.
type PreviewModel struct {
	input  textinput.Model
	widget *preview.Widget
}

// NewPreviewModel creates the preview model around a widget
func NewPreviewModel(widget *preview.Widget) PreviewModel {
	input := textinput.New()
	input.Placeholder = "username"
	input.Prompt = "@ "
	input.CharLimit = 64
	input.Width = 32
	input.Focus()

	return PreviewModel{
		input:  input,
		widget: widget,
	}
}

// Init starts the cursor blink
func (m PreviewModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards input changes to the widget
func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.widget.Flush(m.input.Value())
			return m, nil
		}

	case refreshMsg:
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.widget.Input(m.input.Value())
	}
	return m, cmd
}

// View renders the input and the avatar box
func (m PreviewModel) View() string {
	body := titleStyle.Render("PREVIEW") + "\n\n" + m.input.View() + "\n"

	if m.widget.Visible() {
		slot := m.widget.Slot()
		box := avatarBoxStyle.Render(glyphStyle.Render(slot.Glyph()))

		detail := fmt.Sprintf("@%s", m.widget.Handle())
		if slot.Fallback() {
			detail += statusStyle.Render("  (no avatar)")
		} else if src := slot.Source(); src != "" {
			detail += "\n" + urlStyle.Render(src)
		}

		body += "\n" + lipgloss.JoinHorizontal(lipgloss.Top, box, "  "+detail)
	}

	return panelStyle.Render(body) + helpStyle.Render("enter apply • esc quit")
}

// NewPreviewProgram builds a program around a widget and wires the widget's
// update callback back into the event loop
func NewPreviewProgram(widget *preview.Widget) *tea.Program {
	program := tea.NewProgram(NewPreviewModel(widget))
	widget.SetOnUpdate(func() {
		program.Send(refreshMsg{})
	})
	return program
}
