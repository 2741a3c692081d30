package feedback

import (
	"testing"

	"github.com/go-audio/audio"
)

func TestDetectFormatByMagicBytes(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want soundFormat
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), formatWAV},
		{"aiff", []byte("FORM\x00\x00\x00\x24AIFFCOMM"), formatAIFF},
		{"mp3 id3", []byte("ID3\x03\x00\x00\x00\x00\x00\x00"), formatMP3},
	}
	for _, c := range cases {
		if got := detectFormat(c.data, "renamed.bin"); got != c.want {
			t.Errorf("%s: detectFormat = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDetectFormatExtensionFallback(t *testing.T) {
	junk := []byte{0x00, 0x01, 0x02, 0x03}

	if got := detectFormat(junk, "blip.wav"); got != formatWAV {
		t.Errorf("wav extension fallback = %v", got)
	}
	if got := detectFormat(junk, "blip.mp3"); got != formatMP3 {
		t.Errorf("mp3 extension fallback = %v", got)
	}
	if got := detectFormat(junk, "blip.aif"); got != formatAIFF {
		t.Errorf("aiff extension fallback = %v", got)
	}
	if got := detectFormat(junk, "blip.ogg"); got != formatUnknown {
		t.Errorf("unknown format = %v, want formatUnknown", got)
	}
}

func TestBlipBufferShape(t *testing.T) {
	buf, err := blipBuffer()
	if err != nil {
		t.Fatalf("blipBuffer failed: %v", err)
	}

	want := sampleRate.N(blipDuration)
	if buf.Len() != want {
		t.Errorf("blip length = %d samples, want %d", buf.Len(), want)
	}
	if buf.Format().NumChannels != 2 {
		t.Errorf("blip channels = %d, want 2", buf.Format().NumChannels)
	}
}

func TestPCMStreamerStereo(t *testing.T) {
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		SourceBitDepth: 16,
		Data:           []int{16384, -16384, 32767, 0},
	}

	s := newPCMStreamer(pcm)
	out := make([][2]float64, 4)
	n, ok := s.Stream(out)

	if !ok || n != 2 {
		t.Fatalf("Stream returned n=%d ok=%v, want 2 frames", n, ok)
	}
	if out[0][0] < 0.49 || out[0][0] > 0.51 {
		t.Errorf("left sample 0 = %f, want ~0.5", out[0][0])
	}
	if out[0][1] < -0.51 || out[0][1] > -0.49 {
		t.Errorf("right sample 0 = %f, want ~-0.5", out[0][1])
	}

	// Exhausted streamer reports not ok.
	if n, ok := s.Stream(out); ok || n != 0 {
		t.Errorf("exhausted stream returned n=%d ok=%v", n, ok)
	}
}

func TestPCMStreamerMonoDuplicatesChannel(t *testing.T) {
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: 16,
		Data:           []int{16384, -16384},
	}

	s := newPCMStreamer(pcm)
	out := make([][2]float64, 2)
	n, _ := s.Stream(out)

	if n != 2 {
		t.Fatalf("mono stream frames = %d, want 2", n)
	}
	for i := 0; i < n; i++ {
		if out[i][0] != out[i][1] {
			t.Errorf("frame %d: mono should mirror to both channels, got %v", i, out[i])
		}
	}
}

func TestNoopPlayerIsSafe(t *testing.T) {
	noopPlayer{}.Play()
}
