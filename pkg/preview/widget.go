package preview

import (
	"sync"

	"igfollow/pkg/avatar"
	"igfollow/pkg/config"
	"igfollow/pkg/logger"
	"igfollow/pkg/sched"
	"igfollow/pkg/snapshot"
)

// Widget shows a live avatar preview for the handle being typed. Input
// events are debounced so the avatar host is not hammered on every
// keystroke; only the last value within the quiet period is applied.
type Widget struct {
	binder    *avatar.Binder
	scheduler sched.Scheduler
	logger    logger.Logger

	avatarBase string
	debounce   config.PreviewConfig

	mu            sync.Mutex
	slot          *avatar.Slot
	pending       sched.Timer
	visible       bool
	handle        string
	sourceUpdates int
	onUpdate      func()
}

// NewWidget creates a preview widget around a slot. A nil slot gets a fresh
// one; a nil scheduler falls back to wall-clock timers.
func NewWidget(cfg *config.Config, slot *avatar.Slot, binder *avatar.Binder, scheduler sched.Scheduler, log logger.Logger) *Widget {
	if slot == nil {
		slot = avatar.NewSlot()
	}
	if binder == nil {
		binder = avatar.NewBinder(log)
	}
	if scheduler == nil {
		scheduler = sched.New()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Widget{
		binder:     binder,
		scheduler:  scheduler,
		logger:     log,
		avatarBase: cfg.Avatar.BaseURL,
		debounce:   cfg.Preview,
		slot:       slot,
	}
}

// Start applies the input's current value immediately, without debouncing
func (w *Widget) Start(initial string) {
	w.apply(initial)
}

// Input handles one input change. The debounce timer restarts on every
// call; a newer value supersedes a pending one (last-write-wins).
func (w *Widget) Input(value string) {
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = w.scheduler.AfterFunc(w.debounce.DebounceInterval, func() {
		w.apply(value)
	})
	w.mu.Unlock()
}

// Flush cancels any pending debounce and applies the value now
func (w *Widget) Flush(value string) {
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()
	w.apply(value)
}

func (w *Widget) apply(raw string) {
	handle := snapshot.NormalizeUsername(raw)

	w.mu.Lock()
	w.handle = handle

	if handle == "" {
		w.visible = false
		w.slot.ClearSource()
		w.slot.ShowFallback()
		w.slot.SetGlyph("")
	} else {
		w.visible = true
		w.slot.SetGlyph(avatar.PlaceholderGlyph(handle))
		w.slot.ClearFallback()

		url := avatar.ProfileURL(w.avatarBase, handle)
		if url != w.slot.Source() {
			w.slot.SetSource(url)
			w.sourceUpdates++
		}
	}
	notify := w.onUpdate
	w.mu.Unlock()

	// A fresh source on the slot still needs fallback handling
	w.binder.Bind(w.slot)

	if notify != nil {
		notify()
	}
}

// SetOnUpdate registers a callback invoked after every applied update
func (w *Widget) SetOnUpdate(fn func()) {
	w.mu.Lock()
	w.onUpdate = fn
	w.mu.Unlock()
}

// Slot returns the avatar slot the widget renders into
func (w *Widget) Slot() *avatar.Slot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slot
}

// Visible reports whether the preview is currently shown
func (w *Widget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Handle returns the last applied, normalized handle
func (w *Widget) Handle() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle
}

func (w *Widget) sourceUpdateCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sourceUpdates
}
