package backend

import "testing"

func TestSubscribeDeliversCurrentStateImmediately(t *testing.T) {
	n := NewNotifier(DisconnectedState("offline"))

	var got []VolumeState
	cancel := n.Subscribe(func(s VolumeState) {
		got = append(got, s)
	})
	defer cancel()

	if len(got) != 1 {
		t.Fatalf("expected 1 immediate delivery, got %d", len(got))
	}
	if got[0].Connected {
		t.Error("initial state should be disconnected")
	}
	if got[0].Status != "offline" {
		t.Errorf("status = %q, want %q", got[0].Status, "offline")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	n := NewNotifier(DisconnectedState(""))

	var levels []int
	cancel := n.Subscribe(func(s VolumeState) {
		levels = append(levels, s.PlaybackDB)
	})
	defer cancel()

	for db := -30; db <= -20; db++ {
		s := n.State()
		s.PlaybackDB = db
		s.Connected = true
		n.Publish(s)
	}

	// First delivery is the subscription snapshot at -127.
	if levels[0] != -127 {
		t.Fatalf("first delivery = %d, want -127", levels[0])
	}
	want := -30
	for _, db := range levels[1:] {
		if db != want {
			t.Fatalf("out-of-order delivery: got %d, want %d", db, want)
		}
		want++
	}
	if want != -19 {
		t.Errorf("expected deliveries up to -20, last want marker %d", want)
	}
}

func TestCancelStopsDeliveries(t *testing.T) {
	n := NewNotifier(DisconnectedState(""))

	count := 0
	cancel := n.Subscribe(func(VolumeState) { count++ })

	n.Publish(VolumeState{Connected: true})
	cancel()
	n.Publish(VolumeState{Connected: true, PlaybackDB: -5})

	if count != 2 { // subscribe snapshot + one publish
		t.Errorf("observer called %d times, want 2", count)
	}
}

func TestMultipleObserversEachSeeEveryUpdate(t *testing.T) {
	n := NewNotifier(DisconnectedState(""))

	a, b := 0, 0
	cancelA := n.Subscribe(func(VolumeState) { a++ })
	cancelB := n.Subscribe(func(VolumeState) { b++ })
	defer cancelA()
	defer cancelB()

	n.Publish(VolumeState{Connected: true})
	n.Publish(VolumeState{Connected: true, PlaybackDB: -1})

	if a != 3 || b != 3 {
		t.Errorf("observer counts = %d, %d; want 3, 3", a, b)
	}
}
