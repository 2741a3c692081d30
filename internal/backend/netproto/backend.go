// Package netproto is the skeleton of a direct-protocol client for the
// vendor's control daemon. The wire protocol (length-framed XML over TCP) is
// not implemented; every operation reports ErrNotImplemented. The package
// exists to prove the backend contract is complete and hot-swappable without
// the UI-automation path, and as the place a real protocol client would grow.
package netproto

import (
	"context"
	"fmt"
	"log/slog"

	"faderkey.app/internal/backend"
)

// Backend is a contract-complete placeholder.
type Backend struct {
	notifier *backend.Notifier
}

var _ backend.Backend = (*Backend)(nil)

// New creates a placeholder backend.
func New() *Backend {
	slog.Debug("creating netproto placeholder backend")
	return &Backend{
		notifier: backend.NewNotifier(backend.DisconnectedState("direct protocol client not implemented")),
	}
}

func notImplemented(op string) error {
	return fmt.Errorf("%w: %s", backend.ErrNotImplemented, op)
}

// Connect implements backend.Backend.
func (b *Backend) Connect(context.Context) error { return notImplemented("connect") }

// Disconnect implements backend.Backend.
func (b *Backend) Disconnect() {
	b.notifier.Publish(backend.DisconnectedState("disconnected"))
}

// Refresh implements backend.Backend.
func (b *Backend) Refresh(context.Context) error { return notImplemented("refresh") }

// Volume implements backend.Backend.
func (b *Backend) Volume(_ context.Context, ch backend.Channel) (int, error) {
	return 0, notImplemented("get " + ch.String() + " volume")
}

// SetVolume implements backend.Backend.
func (b *Backend) SetVolume(_ context.Context, ch backend.Channel, _ int) error {
	return notImplemented("set " + ch.String() + " volume")
}

// SetMuted implements backend.Backend.
func (b *Backend) SetMuted(_ context.Context, ch backend.Channel, _ bool) error {
	return notImplemented("set " + ch.String() + " mute")
}

// SetDirectMonitor implements backend.Backend.
func (b *Backend) SetDirectMonitor(context.Context, bool) error {
	return notImplemented("set direct monitor")
}

// MinimizeWindowIfNeeded implements backend.Backend. There is no window.
func (b *Backend) MinimizeWindowIfNeeded(context.Context) {}

// Subscribe implements backend.Backend.
func (b *Backend) Subscribe(fn func(backend.VolumeState)) (cancel func()) {
	return b.notifier.Subscribe(fn)
}
