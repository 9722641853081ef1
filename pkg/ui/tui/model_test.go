package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"igfollow/pkg/config"
	"igfollow/pkg/logger"
	"igfollow/pkg/preview"
	"igfollow/pkg/sched"
)

func TestExportModelHiddenByDefault(t *testing.T) {
	m := NewExportModel()

	if m.View() != "" {
		t.Errorf("Hidden model must render nothing, got %q", m.View())
	}
}

func TestExportModelRendersProgress(t *testing.T) {
	m := NewExportModel()

	m = applyExport(m, visibleMsg(true))
	m = applyExport(m, percentMsg(42))
	m = applyExport(m, statusMsg("Crunching the numbers..."))

	out := m.View()
	if !strings.Contains(out, "42%") {
		t.Errorf("Expected percent in view, got %q", out)
	}
	if !strings.Contains(out, "Crunching the numbers...") {
		t.Errorf("Expected status in view, got %q", out)
	}
}

func TestExportModelErroredStatus(t *testing.T) {
	m := NewExportModel()

	m = applyExport(m, visibleMsg(true))
	m = applyExport(m, statusMsg("Export failed. Please try again."))
	m = applyExport(m, erroredMsg(true))

	if !strings.Contains(m.View(), "Export failed. Please try again.") {
		t.Error("Expected failure message in view")
	}
}

func TestExportModelQuitsOnDone(t *testing.T) {
	m := NewExportModel()

	updated, cmd := m.Update(doneMsg{})
	m = updated.(ExportModel)

	if !m.done {
		t.Error("Expected done after doneMsg")
	}
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit after doneMsg")
	}
}

func TestExportModelQuitsOnKey(t *testing.T) {
	m := NewExportModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit on ctrl+c")
	}
}

func TestPreviewModelShowsGlyphAndHandle(t *testing.T) {
	widget := newTestWidget(t)
	widget.Start("JaneDoe")

	m := NewPreviewModel(widget)
	out := m.View()

	if !strings.Contains(out, "@janedoe") {
		t.Errorf("Expected normalized handle in view, got %q", out)
	}
	if !strings.Contains(out, "J") {
		t.Errorf("Expected placeholder glyph in view, got %q", out)
	}
}

func TestPreviewModelHidesEmptyHandle(t *testing.T) {
	widget := newTestWidget(t)
	widget.Start("")

	m := NewPreviewModel(widget)

	if widget.Visible() {
		t.Error("Expected widget hidden for empty handle")
	}
	if strings.Contains(m.View(), "(no avatar)") {
		t.Error("Hidden preview must not render avatar details")
	}
}

func TestPreviewModelEnterFlushes(t *testing.T) {
	manual := sched.NewManual()
	widget := newTestWidgetWith(t, manual)

	m := NewPreviewModel(widget)
	m.input.SetValue("janedoe")
	widget.Input("janedoe")

	// Enter applies without waiting out the debounce
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(PreviewModel)

	if widget.Handle() != "janedoe" {
		t.Errorf("Expected flush to apply immediately, got %q", widget.Handle())
	}
}

func applyExport(m ExportModel, msg tea.Msg) ExportModel {
	updated, _ := m.Update(msg)
	return updated.(ExportModel)
}

func newTestWidget(t *testing.T) *preview.Widget {
	t.Helper()
	return newTestWidgetWith(t, sched.NewManual())
}

func newTestWidgetWith(t *testing.T, scheduler sched.Scheduler) *preview.Widget {
	t.Helper()
	cfg := config.DefaultConfig()
	return preview.NewWidget(cfg, nil, nil, scheduler, logger.NewNopLogger())
}
