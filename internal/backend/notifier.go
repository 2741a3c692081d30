package backend

import "sync"

// Notifier is the state broadcast helper concrete backends embed to satisfy
// Subscribe. Publishing is expected from a single writer (backends are
// single-flight); delivery order therefore matches publish order. Observers
// receive the current state synchronously at subscribe time.
type Notifier struct {
	mu        sync.Mutex
	state     VolumeState
	nextID    int
	observers map[int]func(VolumeState)
}

// NewNotifier creates a Notifier seeded with the given initial state.
func NewNotifier(initial VolumeState) *Notifier {
	return &Notifier{
		state:     initial,
		observers: make(map[int]func(VolumeState)),
	}
}

// State returns the most recently published snapshot.
func (n *Notifier) State() VolumeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Publish replaces the current snapshot and delivers it to every observer.
// Observers are invoked while holding the notifier lock, which is what keeps
// delivery ordered under concurrent Subscribe calls; observer callbacks must
// therefore be cheap and must not call back into the notifier.
func (n *Notifier) Publish(s VolumeState) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state = s
	for _, fn := range n.observers {
		fn(s)
	}
}

// Subscribe registers an observer and hands it the current state immediately.
// The initial delivery happens under the same lock as Publish so a concurrent
// publish can never be observed ahead of the subscription snapshot.
func (n *Notifier) Subscribe(fn func(VolumeState)) (cancel func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.observers[id] = fn
	fn(n.state)
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.observers, id)
	}
}
