package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"debugtrail/internal/config"
)

type Logger struct {
	l *slog.Logger
}

func New(cfg *config.Config) *Logger {
	var out io.Writer = os.Stdout
	level := slog.LevelInfo
	if cfg != nil {
		level = ParseLevel(cfg.LogLevel)
		if cfg.LogDir != "" {
			_ = os.MkdirAll(cfg.LogDir, 0o755)
			f, err := os.OpenFile(filepath.Join(cfg.LogDir, "debugtrail.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				out = io.MultiWriter(os.Stdout, f)
			}
		}
	}
	return NewWriter(out, level)
}

// NewWriter builds a JSON logger writing to out.
func NewWriter(out io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{AddSource: false, Level: level})
	return &Logger{l: slog.New(handler)}
}

func Nop() *Logger {
	return NewWriter(io.Discard, slog.LevelError)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (lg *Logger) With(args ...any) *Logger {
	if lg == nil {
		return Nop()
	}
	return &Logger{l: lg.l.With(args...)}
}

func (lg *Logger) Info(msg string, args ...any)  { lg.l.Info(msg, args...) }
func (lg *Logger) Warn(msg string, args ...any)  { lg.l.Warn(msg, args...) }
func (lg *Logger) Error(msg string, args ...any) { lg.l.Error(msg, args...) }
func (lg *Logger) Debug(msg string, args ...any) { lg.l.Debug(msg, args...) }
