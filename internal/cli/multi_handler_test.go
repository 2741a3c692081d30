package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiLevelHandlerIndependentLevels(t *testing.T) {
	var terminal, file bytes.Buffer

	handler := NewMultiLevelHandler(
		slog.NewTextHandler(&terminal, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(handler)

	logger.Debug("debug message")
	logger.Warn("warn message")

	if strings.Contains(terminal.String(), "debug message") {
		t.Error("terminal handler should filter debug records")
	}
	if !strings.Contains(terminal.String(), "warn message") {
		t.Error("terminal handler should pass warn records")
	}
	if !strings.Contains(file.String(), "debug message") {
		t.Error("file handler should receive debug records")
	}
	if !strings.Contains(file.String(), "warn message") {
		t.Error("file handler should receive warn records")
	}
}

func TestMultiLevelHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewMultiLevelHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	ctx := context.Background()
	if handler.Enabled(ctx, slog.LevelDebug) {
		t.Error("no wrapped handler accepts debug")
	}
	if !handler.Enabled(ctx, slog.LevelInfo) {
		t.Error("one wrapped handler accepts info")
	}
	if !handler.Enabled(ctx, slog.LevelError) {
		t.Error("both wrapped handlers accept error")
	}
}

func TestMultiLevelHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewMultiLevelHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("device", "scarlett")}))
	logger.Info("hello")

	if !strings.Contains(buf.String(), "device=scarlett") {
		t.Errorf("expected attribute in output, got %q", buf.String())
	}
}
