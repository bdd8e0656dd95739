package activity

import (
	"strings"
	"time"
)

// Verbs emitted for setting lifecycle changes.
const (
	VerbSettingCreated = "setting.created"
	VerbSettingUpdated = "setting.updated"
	VerbSettingDeleted = "setting.deleted"

	ObjectTypeSetting = "setting"
)

// SettingEventInput describes the common fields for setting lifecycle events.
type SettingEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	OwnerClass     string
	OwnerID        string
	Setting        string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OldValue       any
	NewValue       any
	OccurredAt     time.Time
}

// BuildSettingCreatedEvent constructs an event for a setting stored for the
// first time on an owner.
func BuildSettingCreatedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbSettingCreated, input)
}

// BuildSettingUpdatedEvent constructs an event for an overwritten setting.
func BuildSettingUpdatedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbSettingUpdated, input)
}

// BuildSettingDeletedEvent constructs an event for a setting reset to its default.
func BuildSettingDeletedEvent(input SettingEventInput) Event {
	return buildSettingEvent(VerbSettingDeleted, input)
}

func buildSettingEvent(verb string, input SettingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	ownerClass := strings.TrimSpace(input.OwnerClass)
	ownerID := strings.TrimSpace(input.OwnerID)
	setting := strings.TrimSpace(input.Setting)
	if setting != "" {
		metadata = ensureMetadata(metadata)
		metadata["setting"] = setting
	}
	if ownerClass != "" {
		metadata = ensureMetadata(metadata)
		metadata["owner_class"] = ownerClass
	}
	if ownerID != "" {
		metadata = ensureMetadata(metadata)
		metadata["owner_id"] = ownerID
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeSetting,
		ObjectID:       settingObjectID(ownerClass, ownerID, setting),
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

// settingObjectID joins the non-empty parts as Class/ID#setting.
func settingObjectID(ownerClass, ownerID, setting string) string {
	var b strings.Builder
	b.WriteString(ownerClass)
	if ownerID != "" {
		if b.Len() > 0 {
			b.WriteString("/")
		}
		b.WriteString(ownerID)
	}
	if setting != "" {
		if b.Len() > 0 {
			b.WriteString("#")
		}
		b.WriteString(setting)
	}
	if b.Len() == 0 {
		return ObjectTypeSetting
	}
	return b.String()
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
