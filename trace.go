package attrs

import (
	"encoding/json"
)

// Source identifies where a staged value came from.
type Source string

const (
	// SourceRequested marks a value supplied in the update request batch.
	SourceRequested Source = "requested"
	// SourceArgument marks a constructor-style argument.
	SourceArgument Source = "argument"
	// SourceDefault marks a default or factory substitution.
	SourceDefault Source = "default"
	// SourceComputed marks a value derived by a getter delegate.
	SourceComputed Source = "computed"
)

// Step records one action taken while resolving a transaction.
type Step struct {
	Attribute string `json:"attribute"`
	Action    string `json:"action"`
	Source    Source `json:"source,omitempty"`
	Value     any    `json:"value,omitempty"`
}

// Trace captures the ordered provenance of a resolution: which attributes
// were set, recomputed, deleted or left unresolved.
type Trace struct {
	Steps []Step `json:"steps"`
}

// Attributes returns the distinct attribute names touched by the trace, in
// first-touch order.
func (t Trace) Attributes() []string {
	if len(t.Steps) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(t.Steps))
	var names []string
	for _, step := range t.Steps {
		if _, ok := seen[step.Attribute]; ok {
			continue
		}
		seen[step.Attribute] = struct{}{}
		names = append(names, step.Attribute)
	}
	return names
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
