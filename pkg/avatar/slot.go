package avatar

import (
	"strings"
	"sync"
	"unicode"
)

// Slot is one avatar display surface: an image source plus a fallback state
// shown when the image cannot be loaded. Renderers (the TUI preview, the
// diff listing) read the slot; the binder and fetcher mutate it.
type Slot struct {
	mu        sync.Mutex
	source    string
	glyph     string
	bound     bool
	fallback  bool
	onFailure []func()
}

// NewSlot creates an empty slot
func NewSlot() *Slot {
	return &Slot{}
}

// Source returns the current image source URL
func (s *Slot) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SetSource sets the image source URL
func (s *Slot) SetSource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = url
}

// ClearSource removes the image source URL
func (s *Slot) ClearSource() {
	s.SetSource("")
}

// Glyph returns the placeholder glyph shown in fallback state
func (s *Slot) Glyph() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.glyph
}

// SetGlyph sets the placeholder glyph
func (s *Slot) SetGlyph(glyph string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glyph = glyph
}

// Fallback reports whether the slot is showing its fallback state
func (s *Slot) Fallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// ShowFallback switches the slot to its fallback state
func (s *Slot) ShowFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = true
}

// ClearFallback switches the slot back to showing its image
func (s *Slot) ClearFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = false
}

// Bound reports whether a binder has already claimed this slot
func (s *Slot) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// markBound claims the slot for a binder. Returns false when it was already
// claimed, so duplicate failure handlers are never attached.
func (s *Slot) markBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound {
		return false
	}
	s.bound = true
	return true
}

// OnLoadFailure registers a handler invoked when a load attempt fails
func (s *Slot) OnLoadFailure(fn func()) {
	s.mu.Lock()
	s.onFailure = append(s.onFailure, fn)
	s.mu.Unlock()
}

// FailLoad signals that loading the slot's image failed
func (s *Slot) FailLoad() {
	s.mu.Lock()
	handlers := make([]func(), len(s.onFailure))
	copy(handlers, s.onFailure)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// failureHandlerCount is used by tests to verify bind idempotency
func (s *Slot) failureHandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.onFailure)
}

// PlaceholderGlyph returns the uppercased first character of a handle, the
// glyph shown while no avatar image is available
func PlaceholderGlyph(handle string) string {
	handle = strings.TrimSpace(handle)
	for _, r := range handle {
		return string(unicode.ToUpper(r))
	}
	return ""
}
