package controller

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"faderkey.app/internal/backend"
	"faderkey.app/internal/curve"
)

// Device floor. Playback at the floor is what "muted" means: mute is derived
// from volume, never stored separately for the playback channel.
const floorDB = -127

// Fallback restore level when unmute is requested before any mute ever
// recorded a pre-mute volume.
const defaultPreMuteDB = -20

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("controller is closed")

// Feedback plays an audible confirmation after a successful volume write.
type Feedback interface {
	Play()
}

// Options configures a Controller. Zero values get sensible defaults.
type Options struct {
	StepPercent        float64 // percent of travel per discrete up/down, default 5
	GainAllowed        bool    // true lifts the ceiling from 0 dB to +6 dB
	KeepMinimized      bool    // minimize the vendor window after writes
	AudibleFeedback    bool    // play a blip after playback volume writes
	ForceDirectMonitor bool    // enable direct monitor before volume writes

	Feedback Feedback                  // optional blip player
	OnChange func(backend.VolumeState) // invoked on every observable change
}

// Controller is the single stateful hub between intents (keys, UI, CLI) and
// the active backend. All backend calls and all state mutations run on one
// worker goroutine; public write operations enqueue work and hand back a
// promise channel so callers never block on osascript.
type Controller struct {
	mu    sync.RWMutex
	state backend.VolumeState

	stepPercent        float64
	gainAllowed        bool
	keepMinimized      bool
	audibleFeedback    bool
	forceDirectMonitor bool

	// worker-owned, never touched off the worker goroutine
	be        backend.Backend
	unsub     func()
	preMuteDB int

	feedback Feedback
	onChange func(backend.VolumeState)

	tasks chan func()
	quit  chan struct{}
	once  sync.Once
}

// New creates a Controller owning the given backend and subscribes to its
// state. The worker goroutine runs until Close.
func New(be backend.Backend, opts Options) *Controller {
	if opts.StepPercent <= 0 {
		opts.StepPercent = 5
	}

	c := &Controller{
		stepPercent:        opts.StepPercent,
		gainAllowed:        opts.GainAllowed,
		keepMinimized:      opts.KeepMinimized,
		audibleFeedback:    opts.AudibleFeedback,
		forceDirectMonitor: opts.ForceDirectMonitor,
		feedback:           opts.Feedback,
		onChange:           opts.OnChange,
		preMuteDB:          defaultPreMuteDB,
		tasks:              make(chan func(), 128),
		quit:               make(chan struct{}),
	}
	go c.worker()

	// Install the backend on the worker so every snapshot, including the
	// subscription snapshot, is applied there in order.
	<-c.do(func(ctx context.Context) error {
		c.installBackend(be)
		return nil
	})

	slog.Debug("controller created",
		"step_percent", opts.StepPercent,
		"gain_allowed", opts.GainAllowed,
		"keep_minimized", opts.KeepMinimized)
	return c
}

func (c *Controller) worker() {
	for {
		select {
		case fn := <-c.tasks:
			fn()
		case <-c.quit:
			return
		}
	}
}

// do enqueues fn on the worker and returns a promise for its result.
func (c *Controller) do(fn func(ctx context.Context) error) <-chan error {
	res := make(chan error, 1)
	task := func() { res <- fn(context.Background()) }

	select {
	case c.tasks <- task:
	case <-c.quit:
		res <- ErrClosed
	}
	return res
}

// Close tears the controller down: unsubscribes, disconnects the backend and
// stops the worker. Safe to call more than once.
func (c *Controller) Close() {
	c.once.Do(func() {
		<-c.do(func(ctx context.Context) error {
			c.discardBackend()
			return nil
		})
		close(c.quit)
	})
}

// installBackend wires a backend in: store, subscribe, first snapshot lands
// synchronously. Worker-only.
func (c *Controller) installBackend(be backend.Backend) {
	c.be = be
	c.unsub = be.Subscribe(c.applyState)
}

// discardBackend fully detaches the current backend. Worker-only. After this
// returns nothing can deliver snapshots from the old backend.
func (c *Controller) discardBackend() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	if c.be != nil {
		c.be.Disconnect()
	}
}

// applyState applies one inbound backend snapshot. Every field is copied
// verbatim except playback mute, which is always recomputed from the floor
// rule. Unchanged snapshots are dropped so the UI doesn't churn.
func (c *Controller) applyState(s backend.VolumeState) {
	s.PlaybackMuted = s.PlaybackDB <= floorDB

	c.mu.Lock()
	if s == c.state {
		c.mu.Unlock()
		return
	}
	c.state = s
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// setStatus updates only the status text, for failures that don't come with
// a backend snapshot.
func (c *Controller) setStatus(msg string) {
	c.mu.Lock()
	if c.state.Status == msg {
		c.mu.Unlock()
		return
	}
	c.state.Status = msg
	s := c.state
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// State returns the latest published snapshot.
func (c *Controller) State() backend.VolumeState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// PlaybackPercent returns the playback level on the perceptual 0-100 scale.
// Percent is never stored; it is always derived from the decibel value.
func (c *Controller) PlaybackPercent() float64 {
	return curve.DBToPercent(float64(c.State().PlaybackDB))
}

func (c *Controller) ceiling() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gainAllowed {
		return 6
	}
	return 0
}

func (c *Controller) clampDB(db int) int {
	if db < floorDB {
		return floorDB
	}
	if ceil := c.ceiling(); db > ceil {
		return ceil
	}
	return db
}

// Preference setters. These are plain guarded fields, not worker tasks: the
// worker only ever reads them and a torn read is impossible under the mutex.

func (c *Controller) SetStepPercent(p float64) {
	if p <= 0 {
		return
	}
	c.mu.Lock()
	c.stepPercent = p
	c.mu.Unlock()
}

func (c *Controller) StepPercent() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stepPercent
}

func (c *Controller) SetGainAllowed(v bool) {
	c.mu.Lock()
	c.gainAllowed = v
	c.mu.Unlock()
}

func (c *Controller) SetKeepMinimized(v bool) {
	c.mu.Lock()
	c.keepMinimized = v
	c.mu.Unlock()
}

func (c *Controller) SetAudibleFeedback(v bool) {
	c.mu.Lock()
	c.audibleFeedback = v
	c.mu.Unlock()
}

func (c *Controller) SetForceDirectMonitor(v bool) {
	c.mu.Lock()
	c.forceDirectMonitor = v
	c.mu.Unlock()
}

// Connect connects the active backend. On failure the error message becomes
// the status text and the connected flag stays down; on success the window
// is minimized if that preference is set.
func (c *Controller) Connect() <-chan error {
	return c.do(func(ctx context.Context) error {
		if err := c.be.Connect(ctx); err != nil {
			slog.Error("connect failed", "error", err)
			c.setStatus(err.Error())
			return err
		}
		c.minimizeIfWanted(ctx)
		return nil
	})
}

// Disconnect disconnects the active backend.
func (c *Controller) Disconnect() <-chan error {
	return c.do(func(ctx context.Context) error {
		c.be.Disconnect()
		return nil
	})
}

// Refresh re-reads all device state through the backend.
func (c *Controller) Refresh() <-chan error {
	return c.do(func(ctx context.Context) error {
		if err := c.be.Refresh(ctx); err != nil {
			c.setStatus(err.Error())
			return err
		}
		return nil
	})
}

// SwitchBackend swaps the active backend: the old one is unsubscribed and
// disconnected before the new one is installed, then the new one is
// connected. Nothing stays in flight against the discarded backend because
// the swap runs on the same worker that issues every backend call.
func (c *Controller) SwitchBackend(be backend.Backend) <-chan error {
	return c.do(func(ctx context.Context) error {
		slog.Info("switching backend")
		c.discardBackend()
		c.installBackend(be)

		if err := c.be.Connect(ctx); err != nil {
			c.setStatus(err.Error())
			return err
		}
		c.minimizeIfWanted(ctx)
		return nil
	})
}

// SetPlaybackVolume rounds to the nearest integer decibel, clamps to the
// gain-aware range and writes it.
func (c *Controller) SetPlaybackVolume(db float64) <-chan error {
	return c.do(func(ctx context.Context) error {
		return c.writePlayback(ctx, int(math.Round(db)))
	})
}

// SetPlaybackPercent is a convenience wrapper over the perceptual curve.
func (c *Controller) SetPlaybackPercent(percent float64) <-chan error {
	return c.do(func(ctx context.Context) error {
		return c.writePlayback(ctx, int(math.Round(curve.PercentToDB(percent))))
	})
}

// writePlayback is the one path all playback volume changes go through.
// Worker-only. Ordering matters: the direct-monitor prerequisite is issued
// before the volume write, never after.
func (c *Controller) writePlayback(ctx context.Context, db int) error {
	db = c.clampDB(db)

	c.mu.RLock()
	forceMonitor := c.forceDirectMonitor
	monitorOn := c.state.DirectMonitor
	c.mu.RUnlock()

	if forceMonitor && !monitorOn {
		if err := c.be.SetDirectMonitor(ctx, true); err != nil {
			// Prerequisite failure shouldn't swallow the volume change.
			slog.Warn("direct monitor prerequisite failed", "error", err)
		}
	}

	if err := c.be.SetVolume(ctx, backend.Playback, db); err != nil {
		c.failedWrite(ctx, err)
		return err
	}

	slog.Debug("playback volume written", "db", db)
	c.playFeedback()
	c.minimizeIfWanted(ctx)
	return nil
}

// VolumeUp steps the playback level up by the configured percent step. While
// muted it restores the pre-mute volume instead of stepping. A press always
// moves the level by at least 1 dB unless already at the ceiling.
func (c *Controller) VolumeUp() <-chan error {
	return c.do(func(ctx context.Context) error {
		cur := c.State().PlaybackDB
		if cur <= floorDB {
			return c.unmuteWorker(ctx)
		}

		ceil := c.ceiling()
		if cur >= ceil {
			return nil
		}

		target := c.stepFrom(cur, +1)
		if target <= cur {
			// The curve is steep enough near the floor that a percent step
			// can round back onto the current value. Force motion.
			target = cur + 1
		}
		if target > ceil {
			target = ceil
		}
		return c.writePlayback(ctx, target)
	})
}

// VolumeDown steps the playback level down by the configured percent step.
// Reaching or crossing the floor mutes instead of writing the floor blindly,
// so the pre-mute memory is maintained.
func (c *Controller) VolumeDown() <-chan error {
	return c.do(func(ctx context.Context) error {
		cur := c.State().PlaybackDB
		if cur <= floorDB {
			return nil
		}

		target := c.stepFrom(cur, -1)
		if target >= cur {
			target = cur - 1
		}
		if target <= floorDB {
			return c.muteWorker(ctx)
		}
		return c.writePlayback(ctx, target)
	})
}

// stepFrom computes one discrete step from cur in the given direction, in
// percent space, rounded back to integer decibels.
func (c *Controller) stepFrom(cur int, direction float64) int {
	c.mu.RLock()
	step := c.stepPercent
	c.mu.RUnlock()

	percent := curve.DBToPercent(float64(cur))
	return int(math.Round(curve.PercentToDB(percent + direction*step)))
}

// Mute remembers the current level and writes the floor. Muting while
// already at the floor keeps the remembered value intact, so mashing the
// mute key never destroys the restore level.
func (c *Controller) Mute() <-chan error {
	return c.do(c.muteWorker)
}

func (c *Controller) muteWorker(ctx context.Context) error {
	cur := c.State().PlaybackDB
	if cur > floorDB {
		c.preMuteDB = cur
	}
	return c.writePlayback(ctx, floorDB)
}

// Unmute restores the remembered pre-mute level.
func (c *Controller) Unmute() <-chan error {
	return c.do(c.unmuteWorker)
}

func (c *Controller) unmuteWorker(ctx context.Context) error {
	return c.writePlayback(ctx, c.preMuteDB)
}

// ToggleMute dispatches on the derived mute state.
func (c *Controller) ToggleMute() <-chan error {
	return c.do(func(ctx context.Context) error {
		if c.State().PlaybackMuted {
			return c.unmuteWorker(ctx)
		}
		return c.muteWorker(ctx)
	})
}

// SetInputVolume writes one input channel's level, clamped to the same
// gain-aware range as playback.
func (c *Controller) SetInputVolume(ch backend.Channel, db float64) <-chan error {
	return c.do(func(ctx context.Context) error {
		if err := c.be.SetVolume(ctx, ch, c.clampDB(int(math.Round(db)))); err != nil {
			c.failedWrite(ctx, err)
			return err
		}
		c.minimizeIfWanted(ctx)
		return nil
	})
}

// ToggleInputMute flips one input channel's stored mute flag. Input mutes
// are real checkboxes on the device, not volume-derived.
func (c *Controller) ToggleInputMute(ch backend.Channel) <-chan error {
	return c.do(func(ctx context.Context) error {
		s := c.State()
		desired := !s.Input1Muted
		if ch == backend.Input2 {
			desired = !s.Input2Muted
		}

		if err := c.be.SetMuted(ctx, ch, desired); err != nil {
			c.failedWrite(ctx, err)
			return err
		}
		c.minimizeIfWanted(ctx)
		return nil
	})
}

// EnableDirectMonitor turns the direct-monitor path on.
func (c *Controller) EnableDirectMonitor() <-chan error {
	return c.setDirectMonitor(true)
}

// DisableDirectMonitor turns the direct-monitor path off.
func (c *Controller) DisableDirectMonitor() <-chan error {
	return c.setDirectMonitor(false)
}

// ToggleDirectMonitor flips the direct-monitor path.
func (c *Controller) ToggleDirectMonitor() <-chan error {
	return c.do(func(ctx context.Context) error {
		return c.writeDirectMonitor(ctx, !c.State().DirectMonitor)
	})
}

func (c *Controller) setDirectMonitor(enabled bool) <-chan error {
	return c.do(func(ctx context.Context) error {
		return c.writeDirectMonitor(ctx, enabled)
	})
}

func (c *Controller) writeDirectMonitor(ctx context.Context, enabled bool) error {
	if err := c.be.SetDirectMonitor(ctx, enabled); err != nil {
		c.failedWrite(ctx, err)
		return err
	}
	c.minimizeIfWanted(ctx)
	return nil
}

// failedWrite surfaces a write failure in the status text and refreshes so
// the published state can't silently diverge from the device.
func (c *Controller) failedWrite(ctx context.Context, err error) {
	slog.Error("backend write failed", "error", err)
	c.setStatus(err.Error())

	if rerr := c.be.Refresh(ctx); rerr != nil {
		slog.Warn("resync refresh after failed write also failed", "error", rerr)
	}
}

func (c *Controller) playFeedback() {
	c.mu.RLock()
	enabled := c.audibleFeedback
	c.mu.RUnlock()

	if enabled && c.feedback != nil {
		c.feedback.Play()
	}
}

func (c *Controller) minimizeIfWanted(ctx context.Context) {
	c.mu.RLock()
	wanted := c.keepMinimized
	c.mu.RUnlock()

	if wanted {
		c.be.MinimizeWindowIfNeeded(ctx)
	}
}
