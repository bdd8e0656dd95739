// Package usersink forwards setting activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-settings/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook writing one ActivityRecord per event.
// A nil Sink turns it into a no-op.
type Hook struct {
	Sink usertypes.ActivitySink
}

var _ activity.ActivityHook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps event to an ActivityRecord. Actor, user and tenant ids that are
// not UUIDs map to uuid.Nil and are kept verbatim under Data["refs"].
// Definition code and recipients travel in Data as well.
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if !event.Ready() {
		return usertypes.ActivityRecord{}, false
	}

	data := map[string]any{}
	for key, value := range event.Metadata {
		data[key] = value
	}
	refs := map[string]string{}
	ids := make(map[string]uuid.UUID, 3)
	for field, raw := range map[string]string{
		"actor_id":  event.ActorID,
		"user_id":   event.UserID,
		"tenant_id": event.TenantID,
	} {
		id, ok := parseUUID(raw)
		if !ok && raw != "" {
			refs[field] = raw
		}
		ids[field] = id
	}
	if len(refs) > 0 {
		data["refs"] = refs
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	if len(data) == 0 {
		data = nil
	}

	return usertypes.ActivityRecord{
		ActorID:    ids["actor_id"],
		UserID:     ids["user_id"],
		TenantID:   ids["tenant_id"],
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func parseUUID(input string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
