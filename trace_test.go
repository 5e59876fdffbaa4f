package attrs

import (
	"reflect"
	"testing"
)

func TestTraceAttributesFirstTouchOrder(t *testing.T) {
	trace := Trace{Steps: []Step{
		{Attribute: "b", Action: "set", Source: SourceRequested},
		{Attribute: "a", Action: "set", Source: SourceDefault},
		{Attribute: "b", Action: "compute", Source: SourceComputed},
	}}

	if got := trace.Attributes(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("unexpected attribute order: %v", got)
	}

	var empty Trace
	if got := empty.Attributes(); got != nil {
		t.Fatalf("empty trace must yield nil, got %v", got)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{Steps: []Step{
		{Attribute: "x", Action: "set", Source: SourceRequested, Value: "v"},
		{Attribute: "sum", Action: "compute", Source: SourceComputed, Value: "w"},
	}}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Steps) != 2 {
		t.Fatalf("round trip lost steps: %+v", decoded.Steps)
	}
	if decoded.Steps[0].Attribute != "x" || decoded.Steps[0].Source != SourceRequested {
		t.Fatalf("unexpected first step: %+v", decoded.Steps[0])
	}
	if decoded.Steps[1].Value != "w" {
		t.Fatalf("unexpected step value: %+v", decoded.Steps[1])
	}

	if _, err := TraceFromJSON([]byte("nope")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
