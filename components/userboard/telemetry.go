package userboard

import "context"

// Telemetry records store events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// MultiTelemetry fans a record out to every non-nil sink.
type MultiTelemetry []Telemetry

// Record implements Telemetry.
func (m MultiTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	for _, t := range m {
		if t != nil {
			t.Record(ctx, event, payload)
		}
	}
}
