package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookForwardsSettingUpdate(t *testing.T) {
	sink := &recordingSink{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildSettingUpdatedEvent(activity.SettingEventInput{
		ActorID:        actorID.String(),
		UserID:         actorID.String(),
		TenantID:       tenantID.String(),
		OwnerClass:     "User",
		OwnerID:        "42",
		Setting:        "notifications",
		OldValue:       false,
		NewValue:       true,
		Channel:        "settings",
		DefinitionCode: "settings:update",
		Recipients:     []string{"user@example.com"},
		OccurredAt:     at,
	})
	if err := (usersink.Hook{Sink: sink}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.Verb != activity.VerbSettingUpdated || record.ObjectType != "setting" || record.ObjectID != "User/42#notifications" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
	if record.Channel != "settings" || !record.OccurredAt.Equal(at) {
		t.Fatalf("unexpected channel or time: %+v", record)
	}
	if record.Data["setting"] != "notifications" || record.Data["old_value"] != false || record.Data["new_value"] != true {
		t.Fatalf("expected setting metadata passthrough, got %v", record.Data)
	}
	if record.Data["definition_code"] != "settings:update" {
		t.Fatalf("expected definition code, got %v", record.Data["definition_code"])
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "user@example.com" {
		t.Fatalf("expected recipients, got %v", record.Data["recipients"])
	}
	if _, ok := record.Data["refs"]; ok {
		t.Fatalf("expected no refs for uuid ids, got %v", record.Data["refs"])
	}
}

func TestRecordKeepsNonUUIDActorsAsRefs(t *testing.T) {
	record, ok := usersink.Record(activity.BuildSettingDeletedEvent(activity.SettingEventInput{
		ActorID:    "admin",
		OwnerClass: "User",
		OwnerID:    "7",
		Setting:    "theme",
		OldValue:   "dark",
	}))
	if !ok {
		t.Fatalf("expected a record")
	}
	if record.ActorID != uuid.Nil || record.UserID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected nil uuids, got %+v", record)
	}
	refs, _ := record.Data["refs"].(map[string]string)
	if refs["actor_id"] != "admin" || len(refs) != 1 {
		t.Fatalf("expected actor ref, got %v", record.Data["refs"])
	}
	if record.Data["old_value"] != "dark" || record.OccurredAt.IsZero() {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestHookSkipsIncompleteEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	if err := (usersink.Hook{Sink: sink}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}

	event := activity.BuildSettingCreatedEvent(activity.SettingEventInput{OwnerClass: "User", OwnerID: "1", Setting: "theme"})
	if err := (usersink.Hook{}).Notify(context.Background(), event); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookReturnsSinkErrors(t *testing.T) {
	sinkErr := errors.New("sink unavailable")
	hook := usersink.Hook{Sink: &recordingSink{err: sinkErr}}
	event := activity.BuildSettingCreatedEvent(activity.SettingEventInput{OwnerClass: "User", OwnerID: "1", Setting: "theme"})

	if err := hook.Notify(context.Background(), event); !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
