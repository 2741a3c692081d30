package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"faderkey.app/internal/backend"
	"faderkey.app/internal/controller"
	"faderkey.app/internal/curve"
)

type cliContextKey struct{}

// contextWithCLI stores the CLI instance in a context for command handlers.
func contextWithCLI(cli *CLI) context.Context {
	return context.WithValue(context.Background(), cliContextKey{}, cli)
}

// cliFromContext extracts the CLI instance from a command context.
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

// withController runs a one-shot device operation: load config, connect the
// backend, run fn, and tear everything down again.
func withController(cmd *cobra.Command, fn func(ctrl *controller.Controller) error) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadConfig(cmd, cli)
	if err != nil {
		return err
	}
	setupLogging(cfg, cmd.ErrOrStderr())

	ctrl := buildController(cli, cfg, nil)
	defer ctrl.Close()

	if err := <-ctrl.Connect(); err != nil {
		return fmt.Errorf("cannot reach %s: %w", cfg.AppName, err)
	}
	defer func() { <-ctrl.Disconnect() }()

	return fn(ctrl)
}

// printState writes a human-readable state summary.
func printState(w io.Writer, s backend.VolumeState) {
	if !s.Connected {
		fmt.Fprintf(w, "disconnected: %s\n", s.Status)
		return
	}

	if s.PlaybackMuted {
		fmt.Fprintf(w, "Playback:       muted\n")
	} else {
		percent := curve.DBToPercent(float64(s.PlaybackDB))
		fmt.Fprintf(w, "Playback:       %d dB (%.0f%%)\n", s.PlaybackDB, percent)
	}
	fmt.Fprintf(w, "Input 1:        %s\n", channelLine(s.Input1DB, s.Input1Muted))
	fmt.Fprintf(w, "Input 2:        %s\n", channelLine(s.Input2DB, s.Input2Muted))
	fmt.Fprintf(w, "Direct monitor: %s\n", onOff(s.DirectMonitor))
}

func channelLine(db int, muted bool) string {
	if muted {
		return fmt.Sprintf("%d dB (muted)", db)
	}
	return fmt.Sprintf("%d dB", db)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current device state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, func(ctrl *controller.Controller) error {
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

func newConnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Verify the vendor application can be scripted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, func(ctrl *controller.Controller) error {
				cmd.Println("connected")
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

// parseLevel accepts "62", "62%" (perceptual percent) or "-12dB" / "-12db"
// (raw level).
func parseLevel(arg string) (db float64, err error) {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)

	if strings.HasSuffix(lower, "db") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(lower, "db")), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid dB value %q: %w", arg, err)
		}
		return v, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid level %q (want percent or dB): %w", arg, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("percent must be between 0 and 100, got %g", v)
	}
	return curve.PercentToDB(v), nil
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set LEVEL",
		Short: "Set the playback level (percent like 60%, or raw like -12dB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			return withController(cmd, func(ctrl *controller.Controller) error {
				if err := <-ctrl.SetPlaybackVolume(db); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Raise the playback level by one step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, func(ctrl *controller.Controller) error {
				if err := <-ctrl.VolumeUp(); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

func newDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Lower the playback level by one step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, func(ctrl *controller.Controller) error {
				if err := <-ctrl.VolumeDown(); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

func newMuteCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "mute [on|off|toggle]",
		Short:     "Mute, unmute or toggle playback",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "toggle"
			if len(args) == 1 {
				mode = args[0]
			}
			return withController(cmd, func(ctrl *controller.Controller) error {
				var op <-chan error
				switch mode {
				case "on":
					op = ctrl.Mute()
				case "off":
					op = ctrl.Unmute()
				case "toggle":
					op = ctrl.ToggleMute()
				default:
					return fmt.Errorf("unknown mute mode %q", mode)
				}
				if err := <-op; err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

func newMonitorCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "monitor [on|off|toggle]",
		Short:     "Control direct monitoring on the interface",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "toggle"
			if len(args) == 1 {
				mode = args[0]
			}
			return withController(cmd, func(ctrl *controller.Controller) error {
				var op <-chan error
				switch mode {
				case "on":
					op = ctrl.EnableDirectMonitor()
				case "off":
					op = ctrl.DisableDirectMonitor()
				case "toggle":
					op = ctrl.ToggleDirectMonitor()
				default:
					return fmt.Errorf("unknown monitor mode %q", mode)
				}
				if err := <-op; err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	}
}

// inputChannel maps a command argument to an input channel.
func inputChannel(arg string) (backend.Channel, error) {
	switch arg {
	case "1":
		return backend.Input1, nil
	case "2":
		return backend.Input2, nil
	default:
		return 0, fmt.Errorf("unknown input %q (want 1 or 2)", arg)
	}
}

func newInputCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "input",
		Short: "Control input channel levels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set CHANNEL LEVEL",
		Short: "Set an input level (e.g. input set 1 -10dB)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := inputChannel(args[0])
			if err != nil {
				return err
			}
			db, err := parseLevel(args[1])
			if err != nil {
				return err
			}
			return withController(cmd, func(ctrl *controller.Controller) error {
				if err := <-ctrl.SetInputVolume(ch, db); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mute CHANNEL",
		Short: "Toggle mute on an input channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := inputChannel(args[0])
			if err != nil {
				return err
			}
			return withController(cmd, func(ctrl *controller.Controller) error {
				if err := <-ctrl.ToggleInputMute(ch); err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), ctrl.State())
				return nil
			})
		},
	})

	return cmd
}
