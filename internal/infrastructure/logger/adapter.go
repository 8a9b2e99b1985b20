package logger

import (
	"os"
	"path/filepath"
	"strings"

	"browser-harness/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Level        string
	File         string
	MaxSizeMB    int
	MaxBackups   int
	ConsoleLevel string
}

func DefaultConfig() Config {
	return Config{
		Level:        "debug",
		File:         filepath.Join("log", "agent.log"),
		MaxSizeMB:    10,
		MaxBackups:   5,
		ConsoleLevel: "warn",
	}
}

// LoggerAdapter writes JSON lines to a rotated file and mirrors warnings
// and errors to stderr so they do not interleave with streamed model text.
type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	var cores []zapcore.Core

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, err
		}
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig())
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
		cores = append(cores, zapcore.NewCore(fileEncoder, fileWriter, parseLevel(cfg.Level, zapcore.DebugLevel)))
	}

	if cfg.ConsoleLevel != "" {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			parseLevel(cfg.ConsoleLevel, zapcore.WarnLevel),
		))
	}

	base := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
	return &LoggerAdapter{base: base, sugar: base.Sugar()}, nil
}

// NewFromZap wraps an existing logger, mostly for tests with zaptest/observer.
func NewFromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{base: l, sugar: l.Sugar()}
}

func NewNop() *LoggerAdapter {
	return NewFromZap(zap.NewNop())
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return NewFromZap(l.base.With(zap.Any(key, value)))
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	zfields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	return NewFromZap(l.base.With(zfields...))
}

func (l *LoggerAdapter) Close() error {
	err := l.base.Sync()
	// stderr cannot be synced on most terminals
	if err != nil && strings.Contains(err.Error(), "/dev/stderr") {
		return nil
	}
	return err
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(s string, fallback zapcore.Level) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return fallback
	}
	return level
}
