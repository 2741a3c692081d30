package backend

import "context"

// Channel identifies one logical device channel. Playback is the monitor
// output; the two inputs are the interface's physical preamp channels.
// How a channel maps to a control in the vendor UI is a backend detail.
type Channel int

const (
	Playback Channel = iota
	Input1
	Input2
)

// String returns a human-readable channel name for logs and status text.
func (c Channel) String() string {
	switch c {
	case Playback:
		return "playback"
	case Input1:
		return "input 1"
	case Input2:
		return "input 2"
	default:
		return "unknown"
	}
}

// VolumeState is a value snapshot of everything a backend knows about the
// device. Backends publish a fresh snapshot after every successful operation;
// snapshots are superseded wholesale and never patched field by field.
type VolumeState struct {
	PlaybackDB    int
	PlaybackMuted bool

	Input1DB    int
	Input1Muted bool
	Input2DB    int
	Input2Muted bool

	DirectMonitor bool

	Connected bool
	Status    string
}

// DisconnectedState returns the snapshot a backend starts from and resets to
// on Disconnect.
func DisconnectedState(status string) VolumeState {
	return VolumeState{
		PlaybackDB: -127,
		Input1DB:   -127,
		Input2DB:   -127,
		Status:     status,
	}
}

// Backend is the complete capability surface a volume backend must implement.
// The controller holds exactly one Backend at a time and never special-cases
// a concrete type. Every operation that can fail returns an error whose
// message is suitable for user-facing status text; automation internals are
// carried as wrapped sentinel errors (see errors.go).
type Backend interface {
	// Connect performs whatever launch/handshake/readiness work the backend
	// needs. On success the backend publishes a connected snapshot.
	Connect(ctx context.Context) error

	// Disconnect transitions to a disconnected state. It always succeeds and
	// never reconnects on its own.
	Disconnect()

	// Refresh re-reads all channel values, mutes and the direct-monitor flag
	// from the underlying source of truth and publishes them.
	Refresh(ctx context.Context) error

	// Volume reads one channel's current level in integer decibels.
	Volume(ctx context.Context, ch Channel) (int, error)

	// SetVolume writes one channel's level in integer decibels. The vendor
	// control only accepts integers; callers round before calling.
	SetVolume(ctx context.Context, ch Channel, db int) error

	// SetMuted writes one channel's mute flag.
	SetMuted(ctx context.Context, ch Channel, muted bool) error

	// SetDirectMonitor enables or disables the device's direct-monitor path.
	SetDirectMonitor(ctx context.Context, enabled bool) error

	// MinimizeWindowIfNeeded hides the backend's window if it drives one.
	// Best effort: failures are logged by the backend, never returned.
	MinimizeWindowIfNeeded(ctx context.Context)

	// Subscribe registers a state observer. The observer is invoked with the
	// current state immediately, then with every subsequent snapshot in
	// publish order. The returned func cancels the subscription.
	Subscribe(fn func(VolumeState)) (cancel func())
}
