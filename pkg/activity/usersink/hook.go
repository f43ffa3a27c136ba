// Package usersink stores activity events as go-users activity records.
package usersink

import (
	"context"
	"maps"
	"slices"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-userboard/pkg/activity"
)

// Sink persists activity records.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook adapts a Sink into an activity hook.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify implements activity.Hook. Identifiers that are not UUIDs map to
// uuid.Nil.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	evt = activity.NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	data := maps.Clone(evt.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = slices.Clone(evt.Recipients)
	}
	return h.Sink.Log(ctx, types.ActivityRecord{
		UserID:     parseID(evt.UserID),
		ActorID:    parseID(evt.ActorID),
		TenantID:   parseID(evt.TenantID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		Data:       data,
		OccurredAt: evt.OccurredAt,
	})
}

func parseID(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
