// Package tui provides the Bubble Tea surfaces: a live export progress
// panel driven by the export controller and an interactive profile preview.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"igfollow/pkg/preview"
)

// RunExport runs the export progress program until the submission settles
// or the user quits. Drive the returned panel from the export controller.
func RunExport(program *tea.Program) error {
	_, err := program.Run()
	return err
}

// RunPreview runs the interactive preview for a widget
func RunPreview(widget *preview.Widget) error {
	program := NewPreviewProgram(widget)
	_, err := program.Run()
	return err
}
