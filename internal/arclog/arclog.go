// Package arclog is Arc's structured-logging facade over zap, used both by
// the engine itself and bridged to scripts as the `log` global.
package arclog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/myfavshrimp/arc/internal/registry"
)

// Logger wraps a *zap.Logger with the leveled methods scripts and the
// engine both call through.
type Logger struct {
	z *zap.Logger
}

// New builds a console-encoded Logger at the given minimum level.
// level is one of "trace"/"debug"/"info"/"warn"/"error" ("trace" maps to
// zap's Debug level, since zap has no trace level of its own).
func New(level string, colorize bool) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	if colorize {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	zapLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &Logger{z: z}, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// Field is a re-export alias so callers needn't import zap directly.
type Field = zap.Field

func (l *Logger) Trace(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// Progress logs one task's state transition during execution.
func (l *Logger) Progress(system, task string, state registry.TaskState) {
	l.z.Info("task",
		zap.String("system", system),
		zap.String("task", task),
		zap.String("state", state.String()),
	)
}

// Sync flushes buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.z.Sync() }
