package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"faderkey.app/internal/backend"
	"faderkey.app/internal/config"
	"faderkey.app/internal/controller"
	"faderkey.app/internal/curve"
	"faderkey.app/internal/mediakeys"
	"faderkey.app/internal/outputwatch"
	"faderkey.app/internal/prefs"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the media-key service",
		Long: "Captures the hardware volume keys while the managed interface is the\n" +
			"active output and redirects them to the interface monitor level.",
		RunE: runDaemonE,
	}
}

// keyActionsAdapter routes consumed key presses to controller operations,
// honoring recorded key bindings. Operations are fire-and-forget; failures
// surface through the controller's status and logs.
type keyActionsAdapter struct {
	ctrl     *controller.Controller
	bindings map[mediakeys.Key]string
}

func (a *keyActionsAdapter) VolumeUp()   { a.dispatch(mediakeys.KeyVolumeUp) }
func (a *keyActionsAdapter) VolumeDown() { a.dispatch(mediakeys.KeyVolumeDown) }
func (a *keyActionsAdapter) ToggleMute() { a.dispatch(mediakeys.KeyMute) }

func (a *keyActionsAdapter) dispatch(key mediakeys.Key) {
	action := a.bindings[key]
	switch action {
	case "volume-up":
		a.ctrl.VolumeUp()
	case "volume-down":
		a.ctrl.VolumeDown()
	case "toggle-mute":
		a.ctrl.ToggleMute()
	case "toggle-monitor":
		a.ctrl.ToggleDirectMonitor()
	default:
		slog.Warn("key has no bound action", "key", key.String(), "action", action)
	}
}

// defaultKeyBindings maps each media key to its natural action.
func defaultKeyBindings() map[mediakeys.Key]string {
	return map[mediakeys.Key]string{
		mediakeys.KeyVolumeUp:   "volume-up",
		mediakeys.KeyVolumeDown: "volume-down",
		mediakeys.KeyMute:       "toggle-mute",
	}
}

// loadKeyBindings overlays recorded shortcuts onto the defaults. Bindings
// for key codes the tap cannot deliver are ignored.
func loadKeyBindings(store *prefs.Store, bindings map[mediakeys.Key]string) {
	shortcuts, err := store.Shortcuts()
	if err != nil {
		slog.Warn("failed to load key bindings, using defaults", "error", err)
		return
	}
	for _, sc := range shortcuts {
		key := mediakeys.Classify(sc.KeyCode)
		if key == mediakeys.KeyOther {
			slog.Warn("ignoring binding for uncapturable key",
				"action", sc.Action,
				"key_code", sc.KeyCode)
			continue
		}
		bindings[key] = sc.Action
		slog.Info("key binding applied", "key", key.String(), "action", sc.Action)
	}
}

// runDaemonE is the root command and `run` subcommand handler.
func runDaemonE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	if version, _ := cmd.Flags().GetBool("version"); version {
		cmd.Printf("faderkey version %s\nMedia-key remapper for external audio interfaces\n", Version)
		return nil
	}

	cfg, err := loadConfigFile(cmd, cli)
	if err != nil {
		return err
	}

	// Preferences beat the file; explicit flags beat both.
	store, err := prefs.Open(config.PrefsPath())
	if err != nil {
		slog.Warn("preferences unavailable, continuing without them", "error", err)
		store = nil
	} else {
		defer store.Close()
		applyPrefOverrides(cfg, store)
	}
	applyFlagOverrides(cmd, cfg)

	if err := cli.configManager.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg, cmd.ErrOrStderr())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	interactive := cli.isInteractiveTerminal(int(os.Stdout.Fd()))
	out := cmd.OutOrStdout()

	var onChange func(backend.VolumeState)
	if interactive {
		onChange = func(s backend.VolumeState) {
			switch {
			case !s.Connected:
				fmt.Fprintf(out, "disconnected: %s\n", s.Status)
			case s.PlaybackMuted:
				fmt.Fprintln(out, "playback muted")
			default:
				fmt.Fprintf(out, "playback %d dB (%.0f%%)\n",
					s.PlaybackDB, curve.DBToPercent(float64(s.PlaybackDB)))
			}
		}
	}

	ctrl := buildController(cli, cfg, onChange)
	defer ctrl.Close()

	if err := <-ctrl.Connect(); err != nil {
		// Not fatal: the watcher retries once the device shows up.
		slog.Warn("initial connect failed, will retry when the device is active",
			"app", cfg.AppName,
			"error", err)
	}

	bindings := defaultKeyBindings()
	if store != nil {
		loadKeyBindings(store, bindings)
	}
	handler := mediakeys.NewHandler(&keyActionsAdapter{ctrl: ctrl, bindings: bindings}, nil)

	watcher := outputwatch.New(cfg.DeviceName, 0, outputwatch.SystemProfilerRunner,
		func(active bool) {
			handler.SetDeviceActive(active)
			if active && !ctrl.State().Connected {
				ctrl.Connect()
			}
		})
	go watcher.Run(ctx)

	tap := mediakeys.NewTap(handler)
	tapErr := make(chan error, 1)
	go func() { tapErr <- tap.Start(ctx) }()

	if interactive {
		fmt.Fprintf(out, "faderkey running: %s via %s (ctrl-c to quit)\n",
			cfg.DeviceName, cfg.AppName)
	}
	slog.Info("key service started",
		"device", cfg.DeviceName,
		"app", cfg.AppName,
		"backend", cfg.Backend)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-tapErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("media key capture failed: %w", err)
		}
	}

	<-ctrl.Disconnect()
	return nil
}
