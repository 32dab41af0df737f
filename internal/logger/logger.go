package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type implLogger struct {
	logger *slog.Logger
	level  slog.Level
}

type ctxKey struct{}

// New creates a text Logger on stdout at the given level
func New(level string) Logger {
	return NewWithOptions(level, "text", os.Stdout)
}

// NewWithOptions creates a Logger writing to w in "text" or "json" format
func NewWithOptions(level, format string, w io.Writer) Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &implLogger{
		logger: slog.New(handler),
		level:  lvl,
	}
}

// Open resolves an output name ("stdout", "stderr" or a file path) to a writer.
// The returned close func is a no-op for the standard streams.
func Open(output string) (io.Writer, func() error, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return f, f.Close, nil
}

// WithFile returns a context whose log lines carry the file being processed.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, ctxKey{}, file)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *implLogger) shouldLog(level slog.Level) bool {
	return level >= l.level
}

func (l *implLogger) log(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if file, ok := ctx.Value(ctxKey{}).(string); ok {
		l.logger.Log(ctx, level, msg, slog.String("file", file))
		return
	}
	l.logger.Log(ctx, level, msg)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, slog.LevelError, msg, args...)
}
