package netproto

import (
	"context"
	"errors"
	"testing"

	"faderkey.app/internal/backend"
)

func TestEveryOperationReportsNotImplemented(t *testing.T) {
	b := New()
	ctx := context.Background()

	ops := map[string]error{
		"connect": b.Connect(ctx),
		"refresh": b.Refresh(ctx),
		"set volume": b.SetVolume(ctx, backend.Playback, -10),
		"set muted": b.SetMuted(ctx, backend.Input1, true),
		"set monitor": b.SetDirectMonitor(ctx, true),
	}
	if _, err := b.Volume(ctx, backend.Input2); err != nil {
		ops["get volume"] = err
	}

	for name, err := range ops {
		if !errors.Is(err, backend.ErrNotImplemented) {
			t.Errorf("%s: error = %v, want ErrNotImplemented", name, err)
		}
	}
}

func TestSubscribeStillDeliversDisconnectedSnapshot(t *testing.T) {
	b := New()

	var got backend.VolumeState
	delivered := false
	cancel := b.Subscribe(func(s backend.VolumeState) {
		got = s
		delivered = true
	})
	defer cancel()

	if !delivered {
		t.Fatal("subscriber should receive the current state immediately")
	}
	if got.Connected {
		t.Error("placeholder backend must report disconnected")
	}
	if got.PlaybackDB != -127 {
		t.Errorf("playback = %d, want -127", got.PlaybackDB)
	}
}

func TestMinimizeIsANoOp(t *testing.T) {
	b := New()
	b.MinimizeWindowIfNeeded(context.Background()) // must not panic
}
