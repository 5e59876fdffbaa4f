package activity

import (
	"context"
	"testing"
)

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}

	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if emitter.Enabled() {
		t.Fatalf("expected emitter disabled by config")
	}
	if err := emitter.Emit(context.Background(), Event{Verb: "v", ObjectType: "o", ObjectID: "1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emitter must not notify, got %d", len(capture.Events))
	}

	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("emitter without hooks must be disabled")
	}
}

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), Event{
		Verb:       "attrs.updated",
		ObjectType: "attributes",
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != "attributes" {
		t.Fatalf("expected default channel, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterKeepsExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "audit"})

	err := emitter.Emit(context.Background(), Event{
		Verb:       "attrs.updated",
		ObjectType: "attributes",
		ObjectID:   "1",
		Channel:    "custom",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("explicit channel must win, got %q", capture.Events[0].Channel)
	}
}
