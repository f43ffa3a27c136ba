package usersink

import (
	"context"

	"github.com/goliatone/go-users/pkg/types"
	"go.uber.org/zap"
)

// LogSink writes activity records as structured log lines.
type LogSink struct {
	Logger *zap.Logger
}

// Log implements Sink.
func (s LogSink) Log(_ context.Context, record types.ActivityRecord) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("activity",
		zap.String("verb", record.Verb),
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Stringer("actor_id", record.ActorID),
		zap.Time("occurred_at", record.OccurredAt),
		zap.Any("data", record.Data),
	)
	return nil
}
