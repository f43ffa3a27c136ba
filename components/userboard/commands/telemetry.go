package commands

import (
	"context"

	"github.com/goliatone/go-userboard/components/userboard"
)

// Telemetry is the same sink the store reports to.
type Telemetry = userboard.Telemetry

const commandEventPrefix = "userboard.command."

// recorder reports completed commands as "userboard.command.<name>".
type recorder struct {
	sink Telemetry
}

func newRecorder(sink Telemetry) recorder {
	return recorder{sink: sink}
}

func (r recorder) completed(ctx context.Context, command string, payload map[string]any) {
	if r.sink == nil {
		return
	}
	r.sink.Record(ctx, commandEventPrefix+command, payload)
}
