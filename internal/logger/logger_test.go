package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := NewWithOptions("info", "text", &buf)

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message")
	log.Error(ctx, "error message")
	log.Info(ctx, "formatted message: %s %d", "test", 123)

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug line written at info level")
	}
	for _, want := range []string{"info message", "warn message", "error message", "formatted message: test 123"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", slog.LevelDebug, true},
		{"info logs at debug level", "debug", slog.LevelInfo, true},
		{"debug doesn't log at info level", "info", slog.LevelDebug, false},
		{"info logs at info level", "info", slog.LevelInfo, true},
		{"error always logs", "debug", slog.LevelError, true},
		{"invalid falls back to info", "loud", slog.LevelDebug, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			result := log.shouldLog(tt.logLevel)
			if result != tt.shouldLog {
				t.Errorf("shouldLog() = %v, want %v", result, tt.shouldLog)
			}
		})
	}
}

func TestJSONWithFile(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions("info", "json", &buf)

	ctx := WithFile(context.Background(), "clip.mp3")
	log.Error(ctx, "failed: %v", "boom")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "failed: boom" {
		t.Errorf("msg = %v, want %q", rec["msg"], "failed: boom")
	}
	if rec["file"] != "clip.mp3" {
		t.Errorf("file = %v, want clip.mp3", rec["file"])
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", rec["level"])
	}
}

func TestOpen(t *testing.T) {
	for _, name := range []string{"", "stdout", "stderr"} {
		w, closeFn, err := Open(name)
		if err != nil || w == nil {
			t.Fatalf("Open(%q) = %v, %v", name, w, err)
		}
		if err := closeFn(); err != nil {
			t.Errorf("close(%q) error = %v", name, err)
		}
	}

	path := filepath.Join(t.TempDir(), "voxdrop.log")
	w, closeFn, err := Open(path)
	if err != nil {
		t.Fatalf("Open(file) error = %v", err)
	}
	NewWithOptions("info", "text", w).Info(context.Background(), "to file")
	if err := closeFn(); err != nil {
		t.Errorf("close file error = %v", err)
	}
}
