package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewHonorsLevel(t *testing.T) {
	logger, err := New(Config{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestTelemetryWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	telemetry := NewTelemetry(zap.New(core))
	telemetry.Record(context.Background(), "userboard.create", map[string]any{"name": "Mew", "demo": true})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "userboard.create", entries[0].Message)
	assert.Equal(t, "telemetry", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Mew", fields["name"])
	assert.Equal(t, true, fields["demo"])
}

func TestTelemetrySkipsWhenDebugDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewTelemetry(zap.New(core)).Record(context.Background(), "userboard.refresh", nil)
	assert.Zero(t, logs.Len())
	NewTelemetry(nil).Record(context.Background(), "noop", nil)
}
