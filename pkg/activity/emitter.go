package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "settings"

// Config switches emission on and picks the channel for setting events.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter sends setting events to hooks. A nil or disabled emitter drops
// everything.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter keeps the non-nil hooks. The emitter stays disabled unless cfg
// enables it and at least one hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	kept := slices.DeleteFunc(slices.Clone(hooks), func(hook ActivityHook) bool { return hook == nil })
	if !cfg.Enabled || len(kept) == 0 {
		return &Emitter{}
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{hooks: kept, channel: channel}
}

func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return ""
	}
	return e.channel
}

func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
