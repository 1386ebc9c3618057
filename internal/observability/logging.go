// Package observability provides structured logger construction.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/adventure/internal/config"
)

// levels lists the accepted level names. zap's dpanic, panic and fatal
// levels are not accepted.
var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// formats builds the base zap configuration for each output format.
var formats = map[string]func() zap.Config{
	"json":    jsonConfig,
	"console": consoleConfig,
}

// jsonConfig samples repeated per-frame messages: the first 20 identical
// entries each second are kept, then one in every 60.
func jsonConfig() zap.Config {
	c := zap.NewProductionConfig()
	c.Sampling = &zap.SamplingConfig{Initial: 20, Thereafter: 60}
	c.EncoderConfig.TimeKey = "time"
	return c
}

func consoleConfig() zap.Config {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return c
}

// NewLogger creates the engine's root logger from cfg.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, ok := levels[cfg.Level]
	if !ok {
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}
	build, ok := formats[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	zc := build()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	logger, err := zc.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("building %s logger: %w", cfg.Format, err)
	}
	return logger, nil
}

// Subsystem returns a child logger for one engine subsystem.
// Scripts, transitions, and save/load each log under their own name.
//
// Precondition: logger must be non-nil; name must be non-empty.
func Subsystem(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name)
}
