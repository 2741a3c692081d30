package uiauto

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"faderkey.app/internal/backend"
)

// Config names the pieces of vendor UI the backend scripts against, plus the
// bounds on launch polling and per-call timeouts.
type Config struct {
	AppName    string // vendor application process name
	DevicePane string // pane/tab that shows the managed device

	PlaybackGroup string // group holding the monitor output controls
	Input1Group   string // group holding input channel 1
	Input2Group   string // group holding input channel 2

	MuteCheckbox    string // per-input mute checkbox name
	MonitorCheckbox string // direct-monitor checkbox name

	LaunchAttempts int           // bounded window poll after launch
	LaunchInterval time.Duration
	CallTimeout    time.Duration // per-osascript deadline
}

// DefaultConfig returns the control layout of the current Focusrite Control
// release driving a Scarlett 2i2.
func DefaultConfig() Config {
	return Config{
		AppName:         "Focusrite Control",
		DevicePane:      "Scarlett 2i2",
		PlaybackGroup:   "Monitor Outputs",
		Input1Group:     "Analogue 1",
		Input2Group:     "Analogue 2",
		MuteCheckbox:    "Mute",
		MonitorCheckbox: "Direct Monitor",
		LaunchAttempts:  10,
		LaunchInterval:  500 * time.Millisecond,
		CallTimeout:     5 * time.Second,
	}
}

// Backend drives the vendor application through UI automation. Operations
// are single-flight: a mutex serializes every scripting call, so a slow
// osascript delays later calls but never interleaves with them.
//
// Readiness is a fast-path flag. While set, operations skip the probe; any
// scripting failure clears it, forcing the next call to re-verify (and, if
// needed, relaunch and reselect the pane) from scratch.
type Backend struct {
	cfg    Config
	runner ScriptRunner

	mu        sync.Mutex
	ready     bool
	connected bool

	notifier *backend.Notifier
}

var _ backend.Backend = (*Backend)(nil)

// New creates a Backend with a real osascript runner.
func New(cfg Config) *Backend {
	return NewWithRunner(cfg, NewOsascriptRunner(cfg.CallTimeout))
}

// NewWithRunner creates a Backend with an injected script runner, for tests.
func NewWithRunner(cfg Config, runner ScriptRunner) *Backend {
	slog.Debug("creating ui-automation backend", "app", cfg.AppName, "pane", cfg.DevicePane)
	return &Backend{
		cfg:      cfg,
		runner:   runner,
		notifier: backend.NewNotifier(backend.DisconnectedState("not connected")),
	}
}

// Subscribe implements backend.Backend.
func (b *Backend) Subscribe(fn func(backend.VolumeState)) (cancel func()) {
	return b.notifier.Subscribe(fn)
}

// run executes one script and clears the readiness flag on any failure so the
// next operation re-probes instead of repeating a known-bad assumption.
func (b *Backend) run(ctx context.Context, script string) (string, error) {
	out, err := b.runner.Run(ctx, script)
	if err != nil {
		b.ready = false
		return "", err
	}
	return out, nil
}

// ensureReady is the cheap pre-check in front of every read and write.
func (b *Backend) ensureReady(ctx context.Context) error {
	if b.ready {
		return nil
	}

	out, err := b.run(ctx, b.probeScript())
	if err != nil {
		return err
	}
	if out == probeOK {
		b.ready = true
		return nil
	}

	slog.Info("vendor app not ready, running setup", "probe", out)
	if err := b.setup(ctx, out); err != nil {
		return err
	}
	b.ready = true
	return nil
}

// setup launches the app if absent, polls bounded for its window, and
// switches to the device pane. probe is the result that triggered setup.
func (b *Backend) setup(ctx context.Context, probe string) error {
	if probe == probeNoProcess {
		slog.Info("launching vendor application", "app", b.cfg.AppName)
		if _, err := b.run(ctx, b.launchScript()); err != nil {
			return err
		}
	}

	status := probe
	for attempt := 0; attempt < b.cfg.LaunchAttempts; attempt++ {
		out, err := b.run(ctx, b.probeScript())
		if err != nil {
			return err
		}
		status = out
		if status != probeNoProcess && status != probeNoWindow {
			break
		}

		slog.Debug("waiting for vendor window", "attempt", attempt+1, "probe", status)
		select {
		case <-ctx.Done():
			b.ready = false
			return fmt.Errorf("%w: waiting for %q window", backend.ErrTimeout, b.cfg.AppName)
		case <-time.After(b.cfg.LaunchInterval):
		}
	}

	switch status {
	case probeNoProcess:
		return fmt.Errorf("%w: %q did not start", backend.ErrAppNotRunning, b.cfg.AppName)
	case probeNoWindow:
		return fmt.Errorf("%w: %q has no window", backend.ErrWindowNotFound, b.cfg.AppName)
	case probeNoControl:
		slog.Info("switching vendor app to device pane", "pane", b.cfg.DevicePane)
		if _, err := b.run(ctx, b.selectPaneScript()); err != nil {
			return err
		}
		out, err := b.run(ctx, b.probeScript())
		if err != nil {
			return err
		}
		if out != probeOK {
			return fmt.Errorf("%w: pane %q unreachable", backend.ErrControlNotFound, b.cfg.DevicePane)
		}
	}
	return nil
}

// Connect runs the full setup unconditionally (a connect is an explicit
// re-initialization request, never a fast path), then refreshes all state.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ready = false
	out, err := b.run(ctx, b.probeScript())
	if err != nil {
		return b.failConnect(err)
	}
	if out != probeOK {
		if err := b.setup(ctx, out); err != nil {
			return b.failConnect(err)
		}
	}
	b.ready = true
	b.connected = true

	if err := b.refreshLocked(ctx); err != nil {
		return b.failConnect(err)
	}

	slog.Info("connected to vendor application", "app", b.cfg.AppName)
	return nil
}

func (b *Backend) failConnect(err error) error {
	b.connected = false
	b.notifier.Publish(backend.DisconnectedState(err.Error()))
	return err
}

// Disconnect implements backend.Backend. Always succeeds, never reconnects.
func (b *Backend) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ready = false
	b.connected = false
	b.notifier.Publish(backend.DisconnectedState("disconnected"))
	slog.Info("disconnected from vendor application", "app", b.cfg.AppName)
}

// Refresh implements backend.Backend.
func (b *Backend) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return backend.ErrNotConnected
	}
	if err := b.ensureReady(ctx); err != nil {
		return err
	}
	return b.refreshLocked(ctx)
}

// refreshLocked re-reads every control and publishes one snapshot.
func (b *Backend) refreshLocked(ctx context.Context) error {
	playback, err := b.readVolumeLocked(ctx, backend.Playback)
	if err != nil {
		return err
	}
	in1, err := b.readVolumeLocked(ctx, backend.Input1)
	if err != nil {
		return err
	}
	in2, err := b.readVolumeLocked(ctx, backend.Input2)
	if err != nil {
		return err
	}
	mute1, err := b.readCheckboxLocked(ctx, b.cfg.Input1Group, b.cfg.MuteCheckbox)
	if err != nil {
		return err
	}
	mute2, err := b.readCheckboxLocked(ctx, b.cfg.Input2Group, b.cfg.MuteCheckbox)
	if err != nil {
		return err
	}
	monitor, err := b.readCheckboxLocked(ctx, b.cfg.Input1Group, b.cfg.MonitorCheckbox)
	if err != nil {
		return err
	}

	b.notifier.Publish(backend.VolumeState{
		PlaybackDB:    playback,
		PlaybackMuted: playback <= -127,
		Input1DB:      in1,
		Input1Muted:   mute1,
		Input2DB:      in2,
		Input2Muted:   mute2,
		DirectMonitor: monitor,
		Connected:     true,
		Status:        "connected",
	})
	return nil
}

func (b *Backend) readVolumeLocked(ctx context.Context, ch backend.Channel) (int, error) {
	out, err := b.run(ctx, b.readValueScript(b.groupFor(ch)))
	if err != nil {
		return 0, err
	}
	db, err := parseDB(out)
	if err != nil {
		slog.Warn("vendor control returned unparseable level", "channel", ch.String(), "raw", out)
		b.ready = false
		return 0, err
	}
	return db, nil
}

func (b *Backend) readCheckboxLocked(ctx context.Context, group, name string) (bool, error) {
	out, err := b.run(ctx, b.readCheckboxScript(group, name))
	if err != nil {
		return false, err
	}
	v, err := parseCheckbox(out)
	if err != nil {
		b.ready = false
		return false, err
	}
	return v, nil
}

// Volume implements backend.Backend.
func (b *Backend) Volume(ctx context.Context, ch backend.Channel) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return 0, backend.ErrNotConnected
	}
	if err := b.ensureReady(ctx); err != nil {
		return 0, err
	}

	db, err := b.readVolumeLocked(ctx, ch)
	if err != nil {
		return 0, err
	}
	b.publishField(func(s *backend.VolumeState) { setChannelDB(s, ch, db) })
	return db, nil
}

// SetVolume implements backend.Backend.
func (b *Backend) SetVolume(ctx context.Context, ch backend.Channel, db int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return backend.ErrNotConnected
	}
	if err := b.ensureReady(ctx); err != nil {
		return err
	}

	if _, err := b.run(ctx, b.writeValueScript(b.groupFor(ch), formatDB(db))); err != nil {
		return err
	}

	slog.Debug("wrote channel level", "channel", ch.String(), "db", db)
	b.publishField(func(s *backend.VolumeState) { setChannelDB(s, ch, db) })
	return nil
}

// SetMuted implements backend.Backend. The vendor window only exposes mute
// checkboxes for the two inputs; playback mute is a volume write that the
// caller owns, so asking this backend to mute playback natively reports the
// missing control.
func (b *Backend) SetMuted(ctx context.Context, ch backend.Channel, muted bool) error {
	if ch == backend.Playback {
		return fmt.Errorf("%w: playback has no mute checkbox", backend.ErrControlNotFound)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return backend.ErrNotConnected
	}
	if err := b.ensureReady(ctx); err != nil {
		return err
	}

	group := b.groupFor(ch)
	if err := b.toggleCheckboxLocked(ctx, group, b.cfg.MuteCheckbox, muted); err != nil {
		return err
	}

	b.publishField(func(s *backend.VolumeState) {
		if ch == backend.Input1 {
			s.Input1Muted = muted
		} else {
			s.Input2Muted = muted
		}
	})
	return nil
}

// SetDirectMonitor implements backend.Backend.
func (b *Backend) SetDirectMonitor(ctx context.Context, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return backend.ErrNotConnected
	}
	if err := b.ensureReady(ctx); err != nil {
		return err
	}

	if err := b.toggleCheckboxLocked(ctx, b.cfg.Input1Group, b.cfg.MonitorCheckbox, enabled); err != nil {
		return err
	}

	b.publishField(func(s *backend.VolumeState) { s.DirectMonitor = enabled })
	return nil
}

// toggleCheckboxLocked is a guarded read-modify-write: the checkbox is only
// clicked when its current value differs from the desired one, so a repeated
// request can never double-toggle.
func (b *Backend) toggleCheckboxLocked(ctx context.Context, group, name string, desired bool) error {
	current, err := b.readCheckboxLocked(ctx, group, name)
	if err != nil {
		return err
	}
	if current == desired {
		slog.Debug("checkbox already at desired value", "group", group, "checkbox", name, "value", desired)
		return nil
	}

	_, err = b.run(ctx, b.clickCheckboxScript(group, name))
	return err
}

// MinimizeWindowIfNeeded implements backend.Backend. Checks the minimized
// attribute first so the common case costs one read and no UI interaction.
// Never surfaces failures; keeping the window hidden is cosmetic.
func (b *Backend) MinimizeWindowIfNeeded(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out, err := b.runner.Run(ctx, b.isMinimizedScript())
	if err != nil {
		slog.Warn("minimize check failed", "error", err)
		return
	}
	minimized, err := parseCheckbox(out)
	if err != nil {
		slog.Warn("minimize check returned unexpected value", "raw", out)
		return
	}
	if minimized {
		return
	}

	if _, err := b.runner.Run(ctx, b.minimizeScript()); err != nil {
		slog.Warn("minimize request failed", "error", err)
	}
}

// publishField applies a single-field mutation to the latest snapshot and
// republishes it.
func (b *Backend) publishField(mutate func(*backend.VolumeState)) {
	s := b.notifier.State()
	mutate(&s)
	b.notifier.Publish(s)
}

func setChannelDB(s *backend.VolumeState, ch backend.Channel, db int) {
	switch ch {
	case backend.Input1:
		s.Input1DB = db
	case backend.Input2:
		s.Input2DB = db
	default:
		s.PlaybackDB = db
		s.PlaybackMuted = db <= -127
	}
}
