package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var (
	errSinkDown  = errors.New("sink down")
	errAuditFull = errors.New("audit full")
)

func TestNormalizeEventCopiesAndTrims(t *testing.T) {
	meta := map[string]any{"setting": "theme"}
	recipients := []string{" ops@example.com ", "  ", "audit"}
	event := Event{
		Verb:           " setting.updated ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " setting ",
		ObjectID:       " User/1#theme ",
		Channel:        " settings ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(event)

	if got.Verb != VerbSettingUpdated || got.ObjectType != ObjectTypeSetting || got.ObjectID != "User/1#theme" {
		t.Fatalf("unexpected normalized identity: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "settings" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if len(got.Recipients) != 2 || got.Recipients[0] != "ops@example.com" || got.Recipients[1] != "audit" {
		t.Fatalf("expected blank recipients dropped, got %q", got.Recipients)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}

	got.Metadata["setting"] = "changed"
	got.Recipients[0] = "changed"
	if meta["setting"] != "theme" || recipients[0] != " ops@example.com " {
		t.Fatalf("expected inputs untouched, got %v %q", meta, recipients)
	}
}

func TestHooksDropIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	for _, event := range []Event{
		{},
		{Verb: VerbSettingCreated, ObjectType: ObjectTypeSetting},
		{Verb: "  ", ObjectType: ObjectTypeSetting, ObjectID: "User/1#theme"},
	} {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyKeepsGoingAfterFailures(t *testing.T) {
	capture := &CaptureHook{}
	var sawContext bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			sawContext = ctx != nil
			return nil
		}),
		HookFunc(func(context.Context, Event) error { return errSinkDown }),
		nil,
		capture,
		HookFunc(func(context.Context, Event) error { return errAuditFull }),
	}

	var ctx context.Context
	err := hooks.Notify(ctx, Event{Verb: VerbSettingDeleted, ObjectType: ObjectTypeSetting, ObjectID: "User/1#theme"})
	if !errors.Is(err, errSinkDown) || !errors.Is(err, errAuditFull) {
		t.Fatalf("expected both failures joined, got %v", err)
	}
	if !strings.Contains(err.Error(), "hook 1 on setting.deleted") || !strings.Contains(err.Error(), "hook 4 on setting.deleted") {
		t.Fatalf("expected failures tagged with hook position, got %q", err)
	}
	if !sawContext {
		t.Fatalf("expected a non-nil context")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected hooks after a failure to run, got %d events", len(capture.Events))
	}
}

func TestEmitterRequiresHooksAndEnabledConfig(t *testing.T) {
	capture := &CaptureHook{}
	event := BuildSettingCreatedEvent(SettingEventInput{OwnerClass: "User", OwnerID: "1", Setting: "theme"})

	for name, emitter := range map[string]*Emitter{
		"disabled": NewEmitter(Hooks{capture}, Config{Enabled: false}),
		"no hooks": NewEmitter(Hooks{nil}, Config{Enabled: true}),
		"nil":      nil,
	} {
		if emitter.Enabled() {
			t.Fatalf("%s: expected emitter to be disabled", name)
		}
		if err := emitter.Emit(context.Background(), event); err != nil {
			t.Fatalf("%s: expected nil error, got %v", name, err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Channel != "settings" {
		t.Fatalf("expected one event on the default channel, got %+v", capture.Events)
	}
}

func TestEmitterKeepsExplicitChannelAndTime(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "preferences"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), BuildSettingUpdatedEvent(SettingEventInput{
		OwnerClass: "User",
		OwnerID:    "1",
		Setting:    "theme",
		Channel:    "audit",
		OccurredAt: at,
	}))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "audit" || !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected explicit channel and time preserved, got %+v", capture.Events[0])
	}

	if err := emitter.Emit(context.Background(), BuildSettingDeletedEvent(SettingEventInput{OwnerClass: "User", OwnerID: "1", Setting: "theme"})); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[1].Channel != "preferences" {
		t.Fatalf("expected configured channel, got %q", capture.Events[1].Channel)
	}
}
