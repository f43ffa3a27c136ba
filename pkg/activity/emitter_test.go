package activity

import (
	"context"
	"testing"
)

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Notify(_ context.Context, evt Event) error {
	h.events = append(h.events, evt)
	return nil
}

func TestEmitterDefaultsChannelAndEmits(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true})
	if !em.Enabled() {
		t.Fatalf("expected emitter enabled")
	}
	err := em.Emit(context.Background(), Event{
		Verb:       "create",
		ObjectType: ObjectUser,
		ObjectID:   "Ada",
	})
	if err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected event emitted, got %d", len(hook.events))
	}
	if hook.events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel %q, got %q", DefaultChannel, hook.events[0].Channel)
	}
}

func TestEmitterDisabledWithoutHooks(t *testing.T) {
	em := NewEmitter(nil, Config{Enabled: true})
	if em.Enabled() {
		t.Fatalf("expected emitter disabled without hooks")
	}
}

func TestEmitterStampsActor(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true, Channel: "cli", ActorID: "session-1"})
	if err := em.Emit(context.Background(), Event{Verb: "delete", ObjectType: ObjectUser}); err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if hook.events[0].ActorID != "session-1" || hook.events[0].Channel != "cli" {
		t.Fatalf("unexpected event %+v", hook.events[0])
	}
}

func TestEmitterSkipsWhenDisabled(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{})
	if err := em.Emit(context.Background(), Event{Verb: "create", ObjectType: ObjectUser}); err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(hook.events) != 0 {
		t.Fatalf("expected no events when disabled")
	}
}
