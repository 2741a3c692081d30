package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// FileLoggingConfig configures log file rotation.
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`
	Filename   string `json:"filename"` // empty = XDG cache path
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// Config is the faderkey configuration.
type Config struct {
	AppName    string `json:"app_name"`    // vendor control application
	DeviceName string `json:"device_name"` // managed interface, matched against the OS output list
	DevicePane string `json:"device_pane"` // pane/tab name inside the vendor window

	Backend string `json:"backend"` // "uiauto" or "netproto"

	StepPercent        float64 `json:"step_percent"`         // travel per volume key press
	GainAllowed        bool    `json:"gain_allowed"`         // lift the ceiling from 0 to +6 dB
	KeepMinimized      bool    `json:"keep_minimized"`       // keep the vendor window out of sight
	AudibleFeedback    bool    `json:"audible_feedback"`     // play a blip on volume writes
	ForceDirectMonitor bool    `json:"force_direct_monitor"` // enable direct monitor before writes
	FeedbackSound      string  `json:"feedback_sound"`       // optional custom blip file

	LogLevel    string             `json:"log_level"`
	FileLogging *FileLoggingConfig `json:"file_logging,omitempty"`
}

// Manager loads, saves and validates configuration. The filesystem is
// injected so tests run against an in-memory fs.
type Manager struct {
	fs afero.Fs
}

// NewManager creates a Manager on the real filesystem.
func NewManager() *Manager {
	return NewManagerWithFs(afero.NewOsFs())
}

// NewManagerWithFs creates a Manager with an injected filesystem.
func NewManagerWithFs(fs afero.Fs) *Manager {
	slog.Debug("creating config manager")
	return &Manager{fs: fs}
}

// Default returns the default configuration: a Scarlett 2i2 driven through
// Focusrite Control, 5% steps, strict 0 dB ceiling.
func (m *Manager) Default() *Config {
	return &Config{
		AppName:         "Focusrite Control",
		DeviceName:      "Scarlett 2i2",
		DevicePane:      "Scarlett 2i2",
		Backend:         "uiauto",
		StepPercent:     5,
		AudibleFeedback: true,
		KeepMinimized:   true,
		LogLevel:        "warn",
		FileLogging: &FileLoggingConfig{
			Enabled:    true,
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// ConfigPath returns the user config file location.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "faderkey", "config.json")
}

// LogPath returns the default rotating log file location.
func LogPath() string {
	return filepath.Join(xdg.CacheHome, "faderkey", "faderkey.log")
}

// PrefsPath returns the preferences database location.
func PrefsPath() string {
	return filepath.Join(xdg.StateHome, "faderkey", "prefs.db")
}

// Load reads the config file, falling back to defaults when none exists.
func (m *Manager) Load() (*Config, error) {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from an explicit path.
func (m *Manager) LoadFrom(path string) (*Config, error) {
	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe config file: %w", err)
	}
	if !exists {
		slog.Debug("no config file, using defaults", "path", path)
		return m.Default(), nil
	}

	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Omitted fields keep their defaults rather than dropping to zero values.
	cfg := m.Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := m.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("config loaded",
		"path", path,
		"app", cfg.AppName,
		"device", cfg.DeviceName,
		"backend", cfg.Backend)
	return cfg, nil
}

// Save writes configuration to an explicit path, creating directories as
// needed.
func (m *Manager) Save(cfg *Config, path string) error {
	if err := m.Validate(cfg); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if err := m.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(m.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved", "path", path)
	return nil
}

// Validate checks configuration values.
func (m *Manager) Validate(cfg *Config) error {
	var problems []string

	if cfg.AppName == "" {
		problems = append(problems, "app_name cannot be empty")
	}
	if cfg.DeviceName == "" {
		problems = append(problems, "device_name cannot be empty")
	}
	if cfg.StepPercent <= 0 || cfg.StepPercent > 50 {
		problems = append(problems, fmt.Sprintf("step_percent must be in (0, 50], got %g", cfg.StepPercent))
	}

	switch cfg.Backend {
	case "", "uiauto", "netproto":
	default:
		problems = append(problems, fmt.Sprintf("unknown backend %q (want uiauto or netproto)", cfg.Backend))
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log_level %q", cfg.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
