// Package record provides map-backed attribute state and the two commit
// strategies consuming resolved diffs: copy-on-write for immutable records
// and in-place application for mutable ones. Both are pure functions of
// (state, diff); the resolution engine itself never mutates caller state.
package record

import (
	"sort"

	attrs "github.com/goliatone/go-attrs"
)

// Record holds attribute values for one logical instance. It implements
// attrs.StateView and is safe to hand to a resolution as the "before" state
// as long as it is not mutated while the resolution is in flight.
type Record struct {
	values map[string]any
}

// New constructs a Record from values, deep-copying so the record is detached
// from the caller's map.
func New(values map[string]any) *Record {
	rec := &Record{values: make(map[string]any, len(values))}
	for name, value := range values {
		rec.values[name] = Clone(value)
	}
	return rec
}

// Has reports whether name holds a value.
func (r *Record) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[name]
	return ok
}

// Get returns the value for name, failing with attrs.ErrNoValue when absent.
func (r *Record) Get(name string) (any, error) {
	if r != nil {
		if value, ok := r.values[name]; ok {
			return value, nil
		}
	}
	return nil, attrs.ErrNoValue
}

// Names returns the attribute names holding values, sorted for stable output.
func (r *Record) Names() []string {
	if r == nil || len(r.values) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of attributes holding values.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}

// Values returns a deep copy of the backing map.
func (r *Record) Values() map[string]any {
	if r == nil || len(r.values) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(r.values))
	for name, value := range r.values {
		out[name] = Clone(value)
	}
	return out
}

// CopyOnWrite materializes diff against view into a fresh Record, leaving
// view untouched: old-only diff entries become deletions, new values become
// writes, everything else carries over by value.
func CopyOnWrite(view attrs.StateView, diff attrs.Diff) *Record {
	rec := &Record{values: make(map[string]any)}
	if view != nil {
		for _, name := range view.Names() {
			value, err := view.Get(name)
			if err != nil {
				continue
			}
			rec.values[name] = Clone(value)
		}
	}
	applyDiff(rec, diff)
	return rec
}

// Apply materializes diff directly into rec's backing storage.
func Apply(rec *Record, diff attrs.Diff) {
	if rec == nil {
		return
	}
	if rec.values == nil {
		rec.values = make(map[string]any)
	}
	applyDiff(rec, diff)
}

func applyDiff(rec *Record, diff attrs.Diff) {
	for _, name := range diff.Deleted() {
		delete(rec.values, name)
	}
	for name, value := range diff.NewValues {
		rec.values[name] = Clone(value)
	}
}

// MergeViews composes views ordered from strongest to weakest into one
// Record: a name takes its value from the first view that holds it. Useful
// for layering class-level defaults beneath instance state.
func MergeViews(views ...attrs.StateView) *Record {
	rec := &Record{values: make(map[string]any)}
	for i := len(views) - 1; i >= 0; i-- {
		view := views[i]
		if view == nil {
			continue
		}
		for _, name := range view.Names() {
			value, err := view.Get(name)
			if err != nil {
				continue
			}
			rec.values[name] = Clone(value)
		}
	}
	return rec
}
