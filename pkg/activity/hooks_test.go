package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, nil, second}

	if !hooks.Enabled() {
		t.Fatalf("expected hooks to be enabled")
	}

	err := hooks.Notify(context.Background(), Event{
		Verb:       "  attrs.updated ",
		ObjectType: "attributes",
		ObjectID:   " profile-1 ",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.Events) != 1 || len(second.Events) != 1 {
		t.Fatalf("expected both hooks notified, got %d/%d", len(first.Events), len(second.Events))
	}
	if first.Events[0].Verb != "attrs.updated" || first.Events[0].ObjectID != "profile-1" {
		t.Fatalf("expected normalized event, got %+v", first.Events[0])
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), Event{ObjectType: "attributes", ObjectID: "1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("event without verb must be skipped, got %d", len(capture.Events))
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	boom := errors.New("sink down")
	failing := &CaptureHook{Err: boom}
	healthy := &CaptureHook{}
	hooks := Hooks{failing, healthy}

	err := hooks.Notify(context.Background(), Event{
		Verb:       "attrs.updated",
		ObjectType: "attributes",
		ObjectID:   "1",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error to surface, got %v", err)
	}
	if len(healthy.Events) != 1 {
		t.Fatalf("failing hook must not block others, got %d", len(healthy.Events))
	}
}

func TestHooksNotifyEmpty(t *testing.T) {
	var hooks Hooks
	if hooks.Enabled() {
		t.Fatalf("no hooks means disabled")
	}
	if err := hooks.Notify(context.Background(), Event{Verb: "x"}); err != nil {
		t.Fatalf("notify without hooks: %v", err)
	}
}

func TestNormalizeEvent(t *testing.T) {
	metadata := map[string]any{"key": "value"}
	event := Event{
		Verb:     " attrs.created ",
		ActorID:  " actor ",
		Metadata: metadata,
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb != "attrs.created" || normalized.ActorID != "actor" {
		t.Fatalf("expected trimmed fields, got %+v", normalized)
	}
	if normalized.OccurredAt.IsZero() {
		t.Fatalf("expected timestamp to be defaulted")
	}

	metadata["key"] = "mutated"
	if normalized.Metadata["key"] != "value" {
		t.Fatalf("metadata must be cloned, got %v", normalized.Metadata)
	}

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kept := NormalizeEvent(Event{Verb: "v", OccurredAt: now})
	if !kept.OccurredAt.Equal(now) {
		t.Fatalf("existing timestamp must be preserved, got %v", kept.OccurredAt)
	}
}
