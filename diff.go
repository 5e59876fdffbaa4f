package attrs

import (
	"encoding/json"
	"sort"
)

type deletedValue struct{}

func (deletedValue) String() string { return "<deleted>" }

// Deleted is the sentinel marking an explicit removal. Passing it as a
// requested value in ResolveUpdate deletes the attribute. It is distinct from
// "missing", which means no value was ever set and never appears in a Diff.
var Deleted any = deletedValue{}

// IsDeleted reports whether value is the Deleted sentinel.
func IsDeleted(value any) bool {
	_, ok := value.(deletedValue)
	return ok
}

// Diff is the minimal consistent set of changes produced by one resolution.
// A name present in both maps denotes an update; a name present only in
// OldValues denotes a deletion; a name present only in NewValues denotes a
// fresh value.
type Diff struct {
	NewValues map[string]any `json:"new_values"`
	OldValues map[string]any `json:"old_values"`
}

// IsEmpty reports whether the diff carries no changes.
func (d Diff) IsEmpty() bool {
	return len(d.NewValues) == 0 && len(d.OldValues) == 0
}

// Changed returns every attribute name touched by the diff, sorted for stable
// output.
func (d Diff) Changed() []string {
	if d.IsEmpty() {
		return nil
	}
	seen := make(map[string]struct{}, len(d.NewValues)+len(d.OldValues))
	names := make([]string, 0, len(d.NewValues)+len(d.OldValues))
	for name := range d.NewValues {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range d.OldValues {
		if _, ok := seen[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deleted returns the names removed by the diff: present in OldValues with no
// replacement in NewValues.
func (d Diff) Deleted() []string {
	var names []string
	for name := range d.OldValues {
		if _, ok := d.NewValues[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToJSON serialises the diff for logging or transport helpers.
func (d Diff) ToJSON() ([]byte, error) {
	type alias Diff
	return json.Marshal(alias(d))
}

// DiffFromJSON deserialises a payload previously generated via ToJSON.
func DiffFromJSON(payload []byte) (Diff, error) {
	type alias Diff
	var diff alias
	if err := json.Unmarshal(payload, &diff); err != nil {
		return Diff{}, err
	}
	return Diff(diff), nil
}
