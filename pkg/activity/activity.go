// Package activity records an audit trail of userboard writes.
package activity

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultChannel tags events that do not name a channel.
const DefaultChannel = "userboard"

// Event is one auditable action.
type Event struct {
	Verb           string         `json:"verb"`
	ActorID        string         `json:"actor_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	TenantID       string         `json:"tenant_id,omitempty"`
	ObjectType     string         `json:"object_type"`
	ObjectID       string         `json:"object_id,omitempty"`
	Channel        string         `json:"channel,omitempty"`
	DefinitionCode string         `json:"definition_code,omitempty"`
	Recipients     []string       `json:"recipients,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Valid reports whether the event names a verb and an object type.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != ""
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, evt Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, evt Event) error

// Notify implements Hook.
func (f HookFunc) Notify(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Hooks fans an event out to every hook. Invalid events are dropped.
type Hooks []Hook

// Notify implements Hook.
func (h Hooks) Notify(ctx context.Context, evt Event) error {
	evt = NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, copies the mutable fields, and stamps
// OccurredAt when it is unset.
func NormalizeEvent(evt Event) Event {
	evt.Verb = strings.TrimSpace(evt.Verb)
	evt.ActorID = strings.TrimSpace(evt.ActorID)
	evt.UserID = strings.TrimSpace(evt.UserID)
	evt.TenantID = strings.TrimSpace(evt.TenantID)
	evt.ObjectType = strings.TrimSpace(evt.ObjectType)
	evt.ObjectID = strings.TrimSpace(evt.ObjectID)
	evt.Channel = strings.TrimSpace(evt.Channel)
	evt.DefinitionCode = strings.TrimSpace(evt.DefinitionCode)
	evt.Recipients = slices.Clone(evt.Recipients)
	evt.Metadata = maps.Clone(evt.Metadata)
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	return evt
}

// Config toggles the emitter.
type Config struct {
	Enabled bool
	Channel string
	ActorID string
}

// Emitter stamps defaults on events before handing them to its hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter. It is disabled when there are no hooks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if strings.TrimSpace(cfg.Channel) == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit delivers anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit delivers the event when the emitter is enabled.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	if evt.ActorID == "" {
		evt.ActorID = e.cfg.ActorID
	}
	return e.hooks.Notify(ctx, evt)
}
