package export

// ProgressPanel is the display surface for one export submission. Terminal
// and TUI renderers implement it; tests use a recording fake.
type ProgressPanel interface {
	// Show makes the panel visible
	Show()
	// Hide removes the panel
	Hide()
	// SetPercent updates the progress bar. Values are pre-clamped to [0,100].
	SetPercent(percent int)
	// SetStatus updates the status text
	SetStatus(message string)
	// SetErrored toggles error styling
	SetErrored(errored bool)
}

// SubmitControl guards against concurrent submissions
type SubmitControl interface {
	SetEnabled(enabled bool)
	Enabled() bool
}

// Navigator handles redirect instructions from the service, typically by
// opening the URL in a browser or printing it
type Navigator interface {
	Navigate(url string)
}

// NopPanel discards all panel updates
type NopPanel struct{}

func (NopPanel) Show()            {}
func (NopPanel) Hide()            {}
func (NopPanel) SetPercent(int)   {}
func (NopPanel) SetStatus(string) {}
func (NopPanel) SetErrored(bool)  {}

// BoolSubmit is a plain in-memory submit control
type BoolSubmit struct {
	enabled bool
}

// NewBoolSubmit returns an enabled submit control
func NewBoolSubmit() *BoolSubmit {
	return &BoolSubmit{enabled: true}
}

func (b *BoolSubmit) SetEnabled(enabled bool) { b.enabled = enabled }
func (b *BoolSubmit) Enabled() bool           { return b.enabled }
