// Package mediakeys intercepts the hardware volume keys and redirects them
// to the volume controller while the managed interface is the system's
// active output. While any other device is active every event passes through
// untouched, so the OS keeps its native volume behavior and on-screen
// display.
package mediakeys

import (
	"log/slog"
	"sync/atomic"
)

// Key classifies a hardware media key.
type Key int

const (
	KeyOther Key = iota
	KeyVolumeUp
	KeyVolumeDown
	KeyMute
)

// Raw NX keycodes carried in NSSystemDefined events.
const (
	nxKeyVolumeUp   = 0
	nxKeyVolumeDown = 1
	nxKeyMute       = 7
)

// String returns the key name for logs.
func (k Key) String() string {
	switch k {
	case KeyVolumeUp:
		return "volume-up"
	case KeyVolumeDown:
		return "volume-down"
	case KeyMute:
		return "mute"
	default:
		return "other"
	}
}

// Classify maps a raw NX keycode to a Key.
func Classify(code int) Key {
	switch code {
	case nxKeyVolumeUp:
		return KeyVolumeUp
	case nxKeyVolumeDown:
		return KeyVolumeDown
	case nxKeyMute:
		return KeyMute
	default:
		return KeyOther
	}
}

// Event is one decoded media-key event.
type Event struct {
	Key     Key
	Pressed bool // key-down; key-up events carry false
}

// Actions is what a consumed key press triggers; the volume controller
// satisfies it through a thin adapter.
type Actions interface {
	VolumeUp()
	VolumeDown()
	ToggleMute()
}

// Handler decides, per event, whether to consume (suppress the OS default)
// and act, or pass through. The gating flag is pushed by the active-output
// watcher; the handler only ever reads the latest value and defaults to
// inactive, which fails safe to pass-through.
type Handler struct {
	active   atomic.Bool
	actions  Actions
	onAction func(Key) // on-screen-display trigger, optional
}

// NewHandler creates a Handler. onAction may be nil.
func NewHandler(actions Actions, onAction func(Key)) *Handler {
	return &Handler{actions: actions, onAction: onAction}
}

// SetDeviceActive is the push point for the active-output watcher.
func (h *Handler) SetDeviceActive(active bool) {
	old := h.active.Swap(active)
	if old != active {
		slog.Info("managed device active state changed", "active", active)
	}
}

// DeviceActive reports the last pushed gating value.
func (h *Handler) DeviceActive() bool {
	return h.active.Load()
}

// Handle processes one event and reports whether it must be consumed.
// While the managed device is active both the key-down and the matching
// key-up are consumed so the gesture is fully owned; only the key-down
// triggers an action.
func (h *Handler) Handle(ev Event) (consume bool) {
	if ev.Key == KeyOther {
		return false
	}
	if !h.active.Load() {
		return false
	}
	if !ev.Pressed {
		return true // swallow the key-up of an owned gesture
	}

	slog.Debug("media key consumed", "key", ev.Key.String())
	switch ev.Key {
	case KeyVolumeUp:
		h.actions.VolumeUp()
	case KeyVolumeDown:
		h.actions.VolumeDown()
	case KeyMute:
		h.actions.ToggleMute()
	}

	if h.onAction != nil {
		h.onAction(ev.Key)
	}
	return true
}
