// Package outputwatch tracks whether the managed audio interface is the
// system's current default output, and pushes that boolean to the media-key
// gate. The key tap never polls hardware itself; it only reads the last
// pushed value.
package outputwatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ProfileRunner produces the system audio inventory. Injected so tests can
// substitute canned output for the system_profiler call.
type ProfileRunner func(ctx context.Context) ([]byte, error)

// SystemProfilerRunner shells out to system_profiler for the audio device
// inventory.
func SystemProfilerRunner(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "system_profiler", "SPAudioDataType", "-json")
	return cmd.Output()
}

// Watcher polls the audio inventory and pushes the "managed device is the
// default output" flag on every change. Any polling failure pushes false:
// when in doubt, keys pass through to the OS.
type Watcher struct {
	deviceName string
	interval   time.Duration
	runner     ProfileRunner
	push       func(active bool)

	last    bool
	started bool
}

// New creates a Watcher that reports to push. deviceName is matched as a
// substring of the profiler's device name, since macOS decorates USB device
// names inconsistently across releases.
func New(deviceName string, interval time.Duration, runner ProfileRunner, push func(active bool)) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if runner == nil {
		runner = SystemProfilerRunner
	}
	return &Watcher{
		deviceName: deviceName,
		interval:   interval,
		runner:     runner,
		push:       push,
	}
}

// Run polls until ctx is cancelled. The first poll pushes unconditionally so
// the gate starts from a real observation instead of its fail-safe default.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("watching default audio output", "device", w.deviceName, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	active := false

	out, err := w.runner(ctx)
	if err != nil {
		slog.Warn("audio inventory poll failed", "error", err)
	} else {
		active, err = isDefaultOutput(out, w.deviceName)
		if err != nil {
			slog.Warn("audio inventory unparseable", "error", err)
			active = false
		}
	}

	if !w.started || active != w.last {
		w.started = true
		w.last = active
		slog.Debug("default output observation", "device_active", active)
		w.push(active)
	}
}

// system_profiler's JSON shape, reduced to the two fields that matter.
type audioInventory struct {
	SPAudioDataType []struct {
		Items []audioDevice `json:"_items"`
	} `json:"SPAudioDataType"`
}

type audioDevice struct {
	Name          string `json:"_name"`
	DefaultOutput string `json:"coreaudio_default_audio_output_device"`
}

func isDefaultOutput(profilerJSON []byte, deviceName string) (bool, error) {
	var inv audioInventory
	if err := json.Unmarshal(profilerJSON, &inv); err != nil {
		return false, err
	}

	for _, group := range inv.SPAudioDataType {
		for _, dev := range group.Items {
			if dev.DefaultOutput != "spaudio_yes" {
				continue
			}
			if strings.Contains(dev.Name, deviceName) {
				return true, nil
			}
		}
	}
	return false, nil
}
