package attrs

import "sort"

// StateView answers whether an attribute currently has a value, and what it
// is, for the pre-transaction state. Construction uses Empty(); updates pass
// the existing record. Implementations must be read-only for the lifetime of
// the resolution.
type StateView interface {
	Has(name string) bool
	Get(name string) (any, error)
	Names() []string
}

type emptyView struct{}

func (emptyView) Has(string) bool { return false }

func (emptyView) Get(name string) (any, error) {
	return nil, wrapAttributeError("get", name, ErrNoValue)
}

func (emptyView) Names() []string { return nil }

// Empty returns the state view used for construction: no attribute has a
// value.
func Empty() StateView {
	return emptyView{}
}

// MapView adapts a plain map into a StateView. The map is not copied; callers
// must not mutate it while a resolution is in flight.
type MapView map[string]any

// Has reports whether name holds a value.
func (v MapView) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Get returns the value for name, failing with ErrNoValue when absent.
func (v MapView) Get(name string) (any, error) {
	value, ok := v[name]
	if !ok {
		return nil, wrapAttributeError("get", name, ErrNoValue)
	}
	return value, nil
}

// Names returns the attribute names holding values, sorted for stable output.
func (v MapView) Names() []string {
	if len(v) == 0 {
		return nil
	}
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
