package feedback

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// soundFormat is the set of feedback sound formats we can decode.
type soundFormat int

const (
	formatUnknown soundFormat = iota
	formatWAV
	formatMP3
	formatAIFF
)

// detectFormat sniffs magic bytes; extension is only a fallback because
// users rename sound files carelessly.
func detectFormat(data []byte, filename string) soundFormat {
	mime := strings.ToLower(mimetype.Detect(data).String())

	switch {
	case strings.Contains(mime, "wav"):
		return formatWAV
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		return formatMP3
	case strings.Contains(mime, "aiff"):
		return formatAIFF
	}

	slog.Debug("magic sniff inconclusive, falling back to extension", "mime", mime, "file", filename)
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave"):
		return formatWAV
	case strings.HasSuffix(lower, ".mp3"):
		return formatMP3
	case strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif"):
		return formatAIFF
	}
	return formatUnknown
}

// fileBuffer decodes a feedback sound file fully into memory. Feedback
// sounds are fractions of a second; buffering beats re-decoding on every
// key press.
func fileBuffer(path string) (*beep.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback sound: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback sound: %w", err)
	}
	defer f.Close()

	switch detectFormat(data, path) {
	case formatWAV:
		streamer, format, err := wav.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("wav decode failed: %w", err)
		}
		defer streamer.Close()
		return buffered(streamer, format), nil

	case formatMP3:
		streamer, format, err := mp3.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("mp3 decode failed: %w", err)
		}
		defer streamer.Close()
		return buffered(streamer, format), nil

	case formatAIFF:
		return aiffBuffer(f)

	default:
		return nil, fmt.Errorf("unsupported feedback sound format: %s", path)
	}
}

func buffered(s beep.Streamer, format beep.Format) *beep.Buffer {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return buf
}

// aiffBuffer decodes AIFF, which beep has no decoder for, through go-audio.
func aiffBuffer(f *os.File) (*beep.Buffer, error) {
	dec := aiff.NewDecoder(f)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("aiff decode failed: %w", err)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(pcm.Format.SampleRate),
		NumChannels: pcm.Format.NumChannels,
		Precision:   2,
	}
	buf := beep.NewBuffer(format)
	buf.Append(newPCMStreamer(pcm))
	return buf, nil
}

// pcmStreamer adapts a go-audio integer PCM buffer to a beep.Streamer.
type pcmStreamer struct {
	pcm   *audio.IntBuffer
	scale float64
	pos   int
}

func newPCMStreamer(pcm *audio.IntBuffer) *pcmStreamer {
	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return &pcmStreamer{
		pcm:   pcm,
		scale: float64(int(1) << (bitDepth - 1)),
	}
}

func (s *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	channels := s.pcm.Format.NumChannels
	frames := len(s.pcm.Data) / channels

	for n < len(samples) && s.pos < frames {
		left := float64(s.pcm.Data[s.pos*channels]) / s.scale
		right := left
		if channels > 1 {
			right = float64(s.pcm.Data[s.pos*channels+1]) / s.scale
		}
		samples[n] = [2]float64{left, right}
		n++
		s.pos++
	}
	return n, n > 0
}

func (s *pcmStreamer) Err() error { return nil }
