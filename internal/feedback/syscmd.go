package feedback

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// defaultSystemSound is used by the afplay fallback when the user supplied
// no sound file; it ships with every macOS install.
const defaultSystemSound = "/System/Library/Sounds/Tink.aiff"

// SystemPlayer shells out to afplay. It is the fallback for the rare setups
// where the speaker cannot be initialized (exclusive-mode DAWs, mostly).
type SystemPlayer struct {
	command string
	sound   string
}

// NewSystemPlayer returns nil when afplay (or the sound file) is missing.
func NewSystemPlayer(soundPath string) *SystemPlayer {
	path, err := exec.LookPath("afplay")
	if err != nil {
		slog.Debug("afplay not found", "error", err)
		return nil
	}

	sound := soundPath
	if sound == "" {
		sound = defaultSystemSound
	}
	if _, err := os.Stat(sound); err != nil {
		slog.Debug("feedback sound missing", "path", sound, "error", err)
		return nil
	}

	slog.Debug("system feedback player ready", "command", filepath.Base(path), "sound", sound)
	return &SystemPlayer{command: path, sound: sound}
}

// Play implements Player. Fire and forget; a blip that fails to play is not
// worth surfacing to the caller mid-gesture.
func (p *SystemPlayer) Play() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := exec.CommandContext(ctx, p.command, p.sound).Run(); err != nil {
			slog.Warn("feedback playback failed", "error", err)
		}
	}()
}
