package activity

import (
	"strings"
	"time"
)

// AttributeEventInput describes the common fields for attribute lifecycle
// events. Changed, Deleted and the value maps are typically filled from a
// resolved diff.
type AttributeEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	Changed    []string
	Deleted    []string
	NewValues  map[string]any
	OldValues  map[string]any
	SnapshotID string
	OccurredAt time.Time
}

// BuildAttributesCreatedEvent constructs a normalized event for initial
// resolution.
func BuildAttributesCreatedEvent(input AttributeEventInput) Event {
	return buildAttributeEvent("attrs.created", input)
}

// BuildAttributesUpdatedEvent constructs a normalized event for an applied
// update diff.
func BuildAttributesUpdatedEvent(input AttributeEventInput) Event {
	return buildAttributeEvent("attrs.updated", input)
}

// BuildAttributesDeletedEvent constructs a normalized event for attribute
// deletions.
func BuildAttributesDeletedEvent(input AttributeEventInput) Event {
	return buildAttributeEvent("attrs.deleted", input)
}

func buildAttributeEvent(verb string, input AttributeEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Changed) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["changed"] = append([]string{}, input.Changed...)
	}
	if len(input.Deleted) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["deleted"] = append([]string{}, input.Deleted...)
	}
	if len(input.NewValues) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["new_values"] = cloneMap(input.NewValues)
	}
	if len(input.OldValues) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["old_values"] = cloneMap(input.OldValues)
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = "attributes"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: "attributes",
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
