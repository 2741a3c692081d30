package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestDefaultConfig(t *testing.T) {
	mgr := NewManagerWithFs(afero.NewMemMapFs())
	cfg := mgr.Default()

	if cfg.AppName != "Focusrite Control" {
		t.Errorf("expected default app 'Focusrite Control', got %q", cfg.AppName)
	}
	if cfg.DeviceName != "Scarlett 2i2" {
		t.Errorf("expected default device 'Scarlett 2i2', got %q", cfg.DeviceName)
	}
	if cfg.Backend != "uiauto" {
		t.Errorf("expected default backend uiauto, got %q", cfg.Backend)
	}
	if cfg.StepPercent != 5 {
		t.Errorf("expected default step 5, got %g", cfg.StepPercent)
	}
	if cfg.GainAllowed {
		t.Error("gain should be off by default")
	}
	if !cfg.AudibleFeedback {
		t.Error("audible feedback should be on by default")
	}
	if err := mgr.Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	mgr := NewManagerWithFs(afero.NewMemMapFs())

	cfg, err := mgr.LoadFrom("/nonexistent/config.json")
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got error: %v", err)
	}
	if cfg.AppName != "Focusrite Control" {
		t.Errorf("expected default app name, got %q", cfg.AppName)
	}
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := NewManagerWithFs(fs)

	content := `{
		"device_name": "Scarlett 4i4",
		"device_pane": "Scarlett 4i4",
		"step_percent": 10,
		"gain_allowed": true,
		"log_level": "debug"
	}`
	if err := afero.WriteFile(fs, "/etc/faderkey.json", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := mgr.LoadFrom("/etc/faderkey.json")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.DeviceName != "Scarlett 4i4" {
		t.Errorf("expected device override, got %q", cfg.DeviceName)
	}
	if cfg.StepPercent != 10 {
		t.Errorf("expected step 10, got %g", cfg.StepPercent)
	}
	if !cfg.GainAllowed {
		t.Error("expected gain enabled")
	}
	// Fields absent from the file keep their defaults.
	if cfg.AppName != "Focusrite Control" {
		t.Errorf("expected default app name to survive partial config, got %q", cfg.AppName)
	}
	if cfg.Backend != "uiauto" {
		t.Errorf("expected default backend to survive partial config, got %q", cfg.Backend)
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := NewManagerWithFs(fs)

	if err := afero.WriteFile(fs, "/bad.json", []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := mgr.LoadFrom("/bad.json")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := NewManagerWithFs(fs)

	cfg := mgr.Default()
	cfg.StepPercent = 7.5
	cfg.KeepMinimized = false

	if err := mgr.Save(cfg, "/cfg/dir/config.json"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := mgr.LoadFrom("/cfg/dir/config.json")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.StepPercent != 7.5 {
		t.Errorf("expected step 7.5 after round trip, got %g", loaded.StepPercent)
	}
	if loaded.KeepMinimized {
		t.Error("expected keep_minimized false after round trip")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	mgr := NewManagerWithFs(afero.NewMemMapFs())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty app", func(c *Config) { c.AppName = "" }, "app_name"},
		{"empty device", func(c *Config) { c.DeviceName = "" }, "device_name"},
		{"zero step", func(c *Config) { c.StepPercent = 0 }, "step_percent"},
		{"huge step", func(c *Config) { c.StepPercent = 80 }, "step_percent"},
		{"unknown backend", func(c *Config) { c.Backend = "serial" }, "backend"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mgr.Default()
			tt.mutate(cfg)
			err := mgr.Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	mgr := NewManagerWithFs(afero.NewMemMapFs())
	cfg := mgr.Default()
	cfg.StepPercent = -1

	if err := mgr.Save(cfg, "/x.json"); err == nil {
		t.Fatal("expected Save to reject invalid config")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
