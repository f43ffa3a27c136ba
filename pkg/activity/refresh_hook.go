package activity

import (
	"context"

	"github.com/goliatone/go-userboard/components/userboard"
)

// ObjectUser is the object type for user writes.
const ObjectUser = "user"

var verbs = map[string]string{
	"create": "create",
	"delete": "delete",
	"upload": "import",
}

// RefreshHook turns store write events into activity events. Refreshes and
// fallbacks are not audited.
type RefreshHook struct {
	Emitter *Emitter
}

var _ userboard.RefreshHook = RefreshHook{}

// NewRefreshHook wraps an emitter as a store hook.
func NewRefreshHook(emitter *Emitter) RefreshHook {
	return RefreshHook{Emitter: emitter}
}

// StateChanged implements userboard.RefreshHook.
func (h RefreshHook) StateChanged(ctx context.Context, event userboard.StoreEvent) error {
	verb, ok := verbs[event.Reason]
	if !ok {
		return nil
	}
	evt := Event{
		Verb:           verb,
		ObjectType:     ObjectUser,
		ObjectID:       event.Name,
		DefinitionCode: ObjectUser + ":" + verb,
		OccurredAt:     event.At,
		Metadata:       map[string]any{"demo_mode": event.DemoMode},
	}
	if event.Reason == "upload" {
		evt.ObjectType = "user_csv"
		evt.DefinitionCode = "user_csv:" + verb
		evt.Metadata["added"] = event.Count
	}
	return h.Emitter.Emit(ctx, evt)
}
