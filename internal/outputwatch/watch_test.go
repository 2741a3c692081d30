package outputwatch

import (
	"context"
	"errors"
	"testing"
)

const scarlettDefault = `{
	"SPAudioDataType": [{
		"_items": [
			{"_name": "MacBook Pro Speakers", "coreaudio_default_audio_output_device": "spaudio_no"},
			{"_name": "Scarlett 2i2 USB", "coreaudio_default_audio_output_device": "spaudio_yes"}
		]
	}]
}`

const speakersDefault = `{
	"SPAudioDataType": [{
		"_items": [
			{"_name": "MacBook Pro Speakers", "coreaudio_default_audio_output_device": "spaudio_yes"},
			{"_name": "Scarlett 2i2 USB"}
		]
	}]
}`

func TestIsDefaultOutput(t *testing.T) {
	active, err := isDefaultOutput([]byte(scarlettDefault), "Scarlett 2i2")
	if err != nil || !active {
		t.Errorf("scarlett default: got %v, %v; want true", active, err)
	}

	active, err = isDefaultOutput([]byte(speakersDefault), "Scarlett 2i2")
	if err != nil || active {
		t.Errorf("speakers default: got %v, %v; want false", active, err)
	}

	if _, err := isDefaultOutput([]byte("not json"), "Scarlett 2i2"); err == nil {
		t.Error("garbage inventory should error")
	}
}

func TestPollPushesOnChangeOnly(t *testing.T) {
	payload := scarlettDefault
	runner := func(context.Context) ([]byte, error) { return []byte(payload), nil }

	var pushes []bool
	w := New("Scarlett 2i2", 0, runner, func(active bool) { pushes = append(pushes, active) })

	ctx := context.Background()
	w.poll(ctx) // initial observation pushes unconditionally
	w.poll(ctx) // unchanged: no push
	payload = speakersDefault
	w.poll(ctx) // changed: push false

	want := []bool{true, false}
	if len(pushes) != len(want) {
		t.Fatalf("pushes = %v, want %v", pushes, want)
	}
	for i := range want {
		if pushes[i] != want[i] {
			t.Errorf("push %d = %v, want %v", i, pushes[i], want[i])
		}
	}
}

func TestPollFailureFailsSafe(t *testing.T) {
	runner := func(context.Context) ([]byte, error) { return nil, errors.New("spawn failed") }

	var pushes []bool
	w := New("Scarlett 2i2", 0, runner, func(active bool) { pushes = append(pushes, active) })

	w.poll(context.Background())
	if len(pushes) != 1 || pushes[0] {
		t.Errorf("failed poll should push inactive, got %v", pushes)
	}
}
