package avatar

import (
	"net/url"
	"strings"

	"igfollow/pkg/logger"
)

// Binder wires fallback behavior onto avatar slots. Binding is idempotent:
// a slot that is already bound is skipped, so repeated passes over the same
// scope never attach duplicate failure handlers.
type Binder struct {
	logger logger.Logger
}

// NewBinder creates a binder
func NewBinder(log logger.Logger) *Binder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Binder{logger: log}
}

// Bind claims a slot and attaches its fallback handling. A slot with no
// source goes straight to fallback state. Nil slots are silently skipped.
func (b *Binder) Bind(slot *Slot) {
	if slot == nil {
		return
	}
	if !slot.markBound() {
		return
	}

	slot.OnLoadFailure(slot.ShowFallback)

	if slot.Source() == "" {
		slot.ShowFallback()
	}
}

// BindAll binds every slot in a scope
func (b *Binder) BindAll(slots []*Slot) {
	for _, slot := range slots {
		b.Bind(slot)
	}
}

// ProfileURL builds the avatar host URL for a handle. The handle is
// URL-escaped; the base URL carries the host and any fixed path.
func ProfileURL(baseURL, handle string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(handle)
}
