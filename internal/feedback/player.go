// Package feedback plays the short confirmation blip after volume writes.
// The vendor app gives no audible indication when its sliders move, so
// without this a headphone user adjusting from the keyboard has no way to
// judge the new level.
package feedback

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// Player plays one feedback blip. Playback is asynchronous and best effort.
type Player interface {
	Play()
}

const (
	blipFreqHz   = 880
	blipDuration = 60 * time.Millisecond
	sampleRate   = beep.SampleRate(44100)
)

// BeepPlayer renders the blip (or a user-supplied sound) through the beep
// speaker.
type BeepPlayer struct {
	buf *beep.Buffer
}

// NewBeepPlayer creates a player. With an empty soundPath it synthesizes a
// short sine blip; otherwise it decodes the given WAV/MP3/AIFF file once and
// replays it from memory.
func NewBeepPlayer(soundPath string) (*BeepPlayer, error) {
	var (
		buf *beep.Buffer
		err error
	)
	if soundPath == "" {
		buf, err = blipBuffer()
	} else {
		buf, err = fileBuffer(soundPath)
	}
	if err != nil {
		return nil, err
	}

	format := buf.Format()
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("speaker init failed: %w", err)
	}

	slog.Debug("feedback player ready", "sound", soundPath, "samples", buf.Len())
	return &BeepPlayer{buf: buf}, nil
}

// Play implements Player.
func (p *BeepPlayer) Play() {
	speaker.Play(p.buf.Streamer(0, p.buf.Len()))
}

// blipBuffer synthesizes the default confirmation tone.
func blipBuffer() (*beep.Buffer, error) {
	tone, err := generators.SineTone(sampleRate, blipFreqHz)
	if err != nil {
		return nil, fmt.Errorf("tone synthesis failed: %w", err)
	}

	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(sampleRate.N(blipDuration), tone))
	return buf, nil
}

// NewPlayer builds the best available player: the beep speaker when it can
// initialize, otherwise the afplay fallback, otherwise silence.
func NewPlayer(soundPath string) Player {
	p, err := NewBeepPlayer(soundPath)
	if err == nil {
		return p
	}
	slog.Warn("speaker unavailable, trying system player", "error", err)

	if sys := NewSystemPlayer(soundPath); sys != nil {
		return sys
	}

	slog.Warn("no feedback player available, volume feedback disabled")
	return noopPlayer{}
}

type noopPlayer struct{}

func (noopPlayer) Play() {}
