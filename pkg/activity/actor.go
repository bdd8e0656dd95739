package activity

import (
	"context"
	"strings"
)

// Actor identifies who triggered a change. IDs are free-form strings; the
// usersink adapter parses them as UUIDs.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type actorKey struct{}

// ContextWithActor attaches actor to ctx so emitted events carry it.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any. UserID falls back
// to ActorID when unset.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	actor.ActorID = strings.TrimSpace(actor.ActorID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	actor.TenantID = strings.TrimSpace(actor.TenantID)
	if actor.UserID == "" {
		actor.UserID = actor.ActorID
	}
	return actor
}
