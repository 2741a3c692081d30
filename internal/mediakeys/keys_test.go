package mediakeys

import "testing"

type countingActions struct {
	up, down, mute int
}

func (a *countingActions) VolumeUp()   { a.up++ }
func (a *countingActions) VolumeDown() { a.down++ }
func (a *countingActions) ToggleMute() { a.mute++ }

func TestClassify(t *testing.T) {
	cases := []struct {
		code int
		want Key
	}{
		{nxKeyVolumeUp, KeyVolumeUp},
		{nxKeyVolumeDown, KeyVolumeDown},
		{nxKeyMute, KeyMute},
		{16, KeyOther}, // play/pause
		{99, KeyOther},
	}
	for _, c := range cases {
		if got := Classify(c.code); got != c.want {
			t.Errorf("Classify(%d) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestInactiveDevicePassesEverythingThrough(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)

	// Default is inactive: no push from the watcher yet means fail safe.
	if h.Handle(Event{Key: KeyVolumeDown, Pressed: true}) {
		t.Error("event should pass through while device inactive")
	}
	if actions.down != 0 {
		t.Errorf("controller received %d calls, want 0", actions.down)
	}
}

func TestActiveDeviceConsumesAndActsExactlyOnce(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)
	h.SetDeviceActive(true)

	if !h.Handle(Event{Key: KeyVolumeDown, Pressed: true}) {
		t.Error("key-down should be consumed while device active")
	}
	if actions.down != 1 {
		t.Errorf("controller received %d calls, want exactly 1", actions.down)
	}
}

func TestKeyUpIsConsumedButSilent(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)
	h.SetDeviceActive(true)

	if !h.Handle(Event{Key: KeyVolumeUp, Pressed: false}) {
		t.Error("key-up of an owned gesture must be consumed")
	}
	if actions.up != 0 {
		t.Error("key-up must not trigger an action")
	}
}

func TestOtherKeysNeverConsumed(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)
	h.SetDeviceActive(true)

	if h.Handle(Event{Key: KeyOther, Pressed: true}) {
		t.Error("non-volume media keys must pass through")
	}
}

func TestAllThreeKeysDispatch(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)
	h.SetDeviceActive(true)

	h.Handle(Event{Key: KeyVolumeUp, Pressed: true})
	h.Handle(Event{Key: KeyVolumeDown, Pressed: true})
	h.Handle(Event{Key: KeyMute, Pressed: true})

	if actions.up != 1 || actions.down != 1 || actions.mute != 1 {
		t.Errorf("dispatch counts = %d/%d/%d, want 1/1/1", actions.up, actions.down, actions.mute)
	}
}

func TestOnActionFiresForDisplay(t *testing.T) {
	actions := &countingActions{}
	var shown []Key
	h := NewHandler(actions, func(k Key) { shown = append(shown, k) })
	h.SetDeviceActive(true)

	h.Handle(Event{Key: KeyMute, Pressed: true})
	h.Handle(Event{Key: KeyMute, Pressed: false})

	if len(shown) != 1 || shown[0] != KeyMute {
		t.Errorf("display trigger fired %v, want one mute", shown)
	}
}

func TestGatingFollowsLatestPush(t *testing.T) {
	actions := &countingActions{}
	h := NewHandler(actions, nil)

	h.SetDeviceActive(true)
	h.SetDeviceActive(false)
	if h.Handle(Event{Key: KeyVolumeUp, Pressed: true}) {
		t.Error("handler must honor the most recent gating push")
	}
}
