package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"faderkey.app/internal/backend"
	"faderkey.app/internal/backend/netproto"
	"faderkey.app/internal/backend/uiauto"
	"faderkey.app/internal/config"
	"faderkey.app/internal/controller"
	"faderkey.app/internal/feedback"
	"faderkey.app/internal/prefs"
)

const Version = "1.2.0"

// CLI is the faderkey command-line interface.
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.Manager
	terminalDetector TerminalDetector

	// newBackend is injectable so tests can run commands against a fake.
	newBackend func(cfg *config.Config) backend.Backend
}

// NewCLI creates a CLI with all subcommands registered.
func NewCLI() *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "faderkey",
		Short: "Hardware volume keys for an external audio interface",
		Long: "Faderkey captures the keyboard volume keys and drives an external\n" +
			"audio interface through its vendor control application, so the keys\n" +
			"adjust the interface monitor level instead of the ignored system volume.",
		RunE:          runDaemonE, // no subcommand = run the key service
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("backend", "", "Backend to use (uiauto or netproto)")
	rootCmd.PersistentFlags().Float64("step", 0, "Volume step per key press in percent")
	rootCmd.PersistentFlags().Bool("gain", false, "Allow levels above 0 dB up to +6 dB")
	rootCmd.PersistentFlags().Bool("silent", false, "Disable the audible feedback blip")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug/info/warn/error)")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(
		newRunCommand(),
		newStatusCommand(),
		newConnectCommand(),
		newSetCommand(),
		newUpCommand(),
		newDownCommand(),
		newMuteCommand(),
		newMonitorCommand(),
		newInputCommand(),
		newPrefCommand(),
		newShortcutCommand(),
	)

	return &CLI{
		rootCmd: rootCmd,
	}
}

// Run executes the CLI with the given arguments and I/O streams.
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	// Version requests skip all system initialization.
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		fmt.Fprintf(stdout, "faderkey version %s\nMedia-key remapper for external audio interfaces\n", Version)
		return 0
	}

	if c.configManager == nil {
		c.configManager = config.NewManager()
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	if c.newBackend == nil {
		c.newBackend = defaultBackendFactory
	}

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	c.rootCmd.SetContext(contextWithCLI(c))

	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		slog.Error("command execution failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig resolves configuration from the config file plus command-line
// overrides, then validates the result.
func loadConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	cfg, err := loadConfigFile(cmd, cli)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cmd, cfg)

	if err := cli.configManager.Validate(cfg); err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile reads the config file named by --config, or the default
// location.
func loadConfigFile(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = cli.configManager.LoadFrom(configFile)
	} else {
		cfg, err = cli.configManager.Load()
	}
	if err != nil {
		slog.Error("config load failed", "error", err)
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides layers explicit command-line flags over cfg. Flags win
// over both the config file and persisted preferences.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
		slog.Debug("backend override applied", "value", v)
	}
	if v, _ := cmd.Flags().GetFloat64("step"); v != 0 {
		cfg.StepPercent = v
		slog.Debug("step override applied", "value", v)
	}
	if v, _ := cmd.Flags().GetBool("gain"); v {
		cfg.GainAllowed = true
		slog.Debug("gain override applied")
	}
	if v, _ := cmd.Flags().GetBool("silent"); v {
		cfg.AudibleFeedback = false
		slog.Debug("silent mode enabled")
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
}

// applyPrefOverrides layers persisted preferences, written by
// `faderkey pref set`, over the file config. Callers that also honor flags
// apply applyFlagOverrides after this.
func applyPrefOverrides(cfg *config.Config, store *prefs.Store) {
	cfg.StepPercent = store.GetFloat("step_percent", cfg.StepPercent)
	cfg.GainAllowed = store.GetBool("gain_allowed", cfg.GainAllowed)
	cfg.KeepMinimized = store.GetBool("keep_minimized", cfg.KeepMinimized)
	cfg.AudibleFeedback = store.GetBool("audible_feedback", cfg.AudibleFeedback)
	cfg.ForceDirectMonitor = store.GetBool("force_direct_monitor", cfg.ForceDirectMonitor)
}

// defaultBackendFactory builds the device backend named by the config.
func defaultBackendFactory(cfg *config.Config) backend.Backend {
	switch cfg.Backend {
	case "netproto":
		slog.Info("using experimental direct-protocol backend")
		return netproto.New()
	default:
		uiCfg := uiauto.DefaultConfig()
		uiCfg.AppName = cfg.AppName
		if cfg.DevicePane != "" {
			uiCfg.DevicePane = cfg.DevicePane
		}
		return uiauto.New(uiCfg)
	}
}

// buildController assembles a controller around the configured backend.
func buildController(cli *CLI, cfg *config.Config, onChange func(backend.VolumeState)) *controller.Controller {
	var player controller.Feedback
	if cfg.AudibleFeedback {
		player = feedback.NewPlayer(cfg.FeedbackSound)
	}

	return controller.New(cli.newBackend(cfg), controller.Options{
		StepPercent:        cfg.StepPercent,
		GainAllowed:        cfg.GainAllowed,
		KeepMinimized:      cfg.KeepMinimized,
		AudibleFeedback:    cfg.AudibleFeedback,
		ForceDirectMonitor: cfg.ForceDirectMonitor,
		Feedback:           player,
		OnChange:           onChange,
	})
}

// setupLogging configures slog: the terminal gets the configured level, the
// rotating log file gets everything down to debug when file logging is on.
func setupLogging(cfg *config.Config, stderrWriter io.Writer) {
	stderrHandler := slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})

	handlers := []slog.Handler{stderrHandler}

	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		logPath := cfg.FileLogging.Filename
		if logPath == "" {
			logPath = config.LogPath()
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			slog.Error("failed to create log directory", "path", filepath.Dir(logPath), "error", err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   logPath,
				MaxSize:    cfg.FileLogging.MaxSizeMB,
				MaxBackups: cfg.FileLogging.MaxBackups,
				MaxAge:     cfg.FileLogging.MaxAgeDays,
				Compress:   cfg.FileLogging.Compress,
			}
			handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))
			slog.Debug("file logging enabled", "path", logPath)
		}
	}

	slog.SetDefault(slog.New(NewMultiLevelHandler(handlers...)))

	slog.Debug("logging setup completed",
		"stderr_level", cfg.SlogLevel().String(),
		"handlers", len(handlers))
}
