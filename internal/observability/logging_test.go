package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/observability"
)

func TestNewLogger_LevelGatesOutput(t *testing.T) {
	cases := []struct {
		level   string
		format  string
		enabled zapcore.Level
		dropped zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", "json", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", "console", zapcore.ErrorLevel, zapcore.WarnLevel},
	}
	for _, tc := range cases {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			logger, err := observability.NewLogger(config.LoggingConfig{Level: tc.level, Format: tc.format})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.enabled))
			assert.False(t, logger.Core().Enabled(tc.dropped))
		})
	}
}

func TestNewLogger_RejectsUnknownSettings(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.ErrorContains(t, err, "trace")

	_, err = observability.NewLogger(config.LoggingConfig{Level: "fatal", Format: "console"})
	assert.ErrorContains(t, err, "fatal")

	_, err = observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.ErrorContains(t, err, "xml")
}

func TestSubsystem_NamesChildLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	root := zap.New(core)
	observability.Subsystem(root, "transition").Info("entered room")
	observability.Subsystem(observability.Subsystem(root, "savegame"), "load").Warn("skipped object")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "transition", logs.All()[0].LoggerName)
	assert.Equal(t, "savegame.load", logs.All()[1].LoggerName)
}
