package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	progressFilled = "█"
	progressEmpty  = "░"
	barWidth       = 30
)

// TerminalPanel renders export progress as a single redrawn terminal line.
// It implements the export controller's ProgressPanel interface.
type TerminalPanel struct {
	mu      sync.Mutex
	out     io.Writer
	visible bool
	errored bool
	percent int
	status  string
}

// NewTerminalPanel creates a panel writing to out
func NewTerminalPanel(out io.Writer) *TerminalPanel {
	return &TerminalPanel{out: out}
}

// Show makes the panel visible and draws it
func (p *TerminalPanel) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
	p.draw()
}

// Hide finishes the panel line
func (p *TerminalPanel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		fmt.Fprintln(p.out)
	}
	p.visible = false
}

// SetPercent updates the bar
func (p *TerminalPanel) SetPercent(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = percent
	p.draw()
}

// SetStatus updates the status text
func (p *TerminalPanel) SetStatus(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = message
	p.draw()
}

// SetErrored toggles error styling
func (p *TerminalPanel) SetErrored(errored bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errored = errored
	p.draw()
}

// draw renders the current state. Caller must hold the lock.
func (p *TerminalPanel) draw() {
	if !p.visible {
		return
	}

	filled := p.percent * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, barWidth-filled)

	status := p.status
	if p.errored {
		status = Red(status)
	}

	fmt.Fprintf(p.out, "\r\033[K[%s] %3d%%  %s", bar, p.percent, status)
}

// PrintedNavigator prints redirect targets instead of opening a browser
type PrintedNavigator struct {
	Out io.Writer
}

// Navigate prints the redirect URL
func (n PrintedNavigator) Navigate(url string) {
	fmt.Fprintf(n.Out, "\n%s %s\n", Yellow("Open in your browser:"), url)
}
