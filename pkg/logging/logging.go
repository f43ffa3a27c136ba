package logging

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log level and encoding.
type Config struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// New builds a zap logger. JSON output uses the production preset, console
// output the development one.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
		}
	}
	config := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Telemetry writes telemetry records as structured debug log lines.
type Telemetry struct {
	logger *zap.Logger
}

// NewTelemetry adapts a logger into a telemetry sink. A nil logger discards.
func NewTelemetry(logger *zap.Logger) *Telemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telemetry{logger: logger.Named("telemetry")}
}

// Record logs the event with its payload as fields in key order.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	if ce := t.logger.Check(zapcore.DebugLevel, event); ce != nil {
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fields := make([]zap.Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, zap.Any(k, payload[k]))
		}
		ce.Write(fields...)
	}
}
