// Package logger builds the zap backed logr.Logger used by lookupctl and
// handed to the library packages through their WithLogger options.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stderr"}
}

// New builds a logr.Logger from cfg. The returned zap logger is kept so the
// caller can Sync it before exiting.
func New(cfg Config) (logr.Logger, *zap.Logger, error) {
	writer, err := createWriter(cfg.Output)
	if err != nil {
		return logr.Discard(), nil, err
	}
	return build(cfg, writer)
}

// NewWithWriter is New writing to w instead of cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) (logr.Logger, *zap.Logger, error) {
	return build(cfg, zapcore.AddSync(w))
}

func build(cfg Config, writer zapcore.WriteSyncer) (logr.Logger, *zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return logr.Discard(), nil, err
	}
	core := zapcore.NewCore(createEncoder(cfg.Format), writer, level)
	zl := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	return zapr.NewLogger(zl), zl, nil
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("logger: unknown level %q", level)
	}
}

func createEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if strings.EqualFold(format, "console") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func createWriter(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %s: %w", output, err)
		}
		return zapcore.AddSync(file), nil
	}
}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	if log, err := logr.FromContext(ctx); err == nil {
		return log
	}
	return logr.Discard()
}
