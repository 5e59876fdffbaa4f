package attrs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-attrs/pkg/activity"
)

var (
	// ErrDuplicateAttributeName indicates registry construction received two
	// specs sharing a name.
	ErrDuplicateAttributeName = errors.New("attrs: attribute names must be unique")
	// ErrAttributeNameRequired indicates a spec with an empty name.
	ErrAttributeNameRequired = errors.New("attrs: attribute name must be provided")
	// ErrSetterWithoutGetter indicates a setter delegate on a spec that has no
	// getter.
	ErrSetterWithoutGetter = errors.New("attrs: setter requires a getter")
	// ErrDependenciesOnStored indicates declared dependencies on a spec that
	// has no getter.
	ErrDependenciesOnStored = errors.New("attrs: dependencies require a getter")
)

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	keywordOnly   bool
	logger        DelegateLogger
	processor     Processor
	activityHooks activity.Hooks
}

func applyOptions(opts []Option) registryConfig {
	cfg := registryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithKeywordOnly rejects positional arguments during initial resolution.
func WithKeywordOnly() Option {
	return func(cfg *registryConfig) {
		cfg.keywordOnly = true
	}
}

// WithDefaultProcessor sets the registry-level value processor applied to
// attributes that do not override it.
func WithDefaultProcessor(p Processor) Option {
	return func(cfg *registryConfig) {
		cfg.processor = p
	}
}

// Registry is an ordered, immutable collection of attribute specs. It exposes
// the two resolution algorithms: ResolveInitial maps constructor-style
// arguments onto a fresh value set, ResolveUpdate computes the minimal diff
// for a batch of requested changes against existing state.
type Registry struct {
	specs  []*AttributeSpec
	byName map[string]*AttributeSpec
	index  *DependencyIndex
	cfg    registryConfig
}

// NewRegistry validates the supplied specs and freezes them into a registry.
// Declaration order follows slice order. Construction fails on duplicate or
// empty names, a default combined with a factory, a setter or dependencies
// without a getter, dependency references that do not resolve within the
// batch, and cyclic dependency declarations.
func NewRegistry(specs []AttributeSpec, opts ...Option) (*Registry, error) {
	registry := &Registry{
		specs:  make([]*AttributeSpec, len(specs)),
		byName: make(map[string]*AttributeSpec, len(specs)),
		cfg:    applyOptions(opts),
	}

	for i := range specs {
		spec := specs[i]
		if spec.name == "" {
			return nil, ErrAttributeNameRequired
		}
		if _, ok := registry.byName[spec.name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAttributeName, spec.name)
		}
		if spec.hasDefault && spec.factory != nil {
			return nil, wrapAttributeError("define", spec.name, ErrDefaultAndFactory)
		}
		if spec.getter == nil {
			if spec.setter != nil {
				return nil, wrapAttributeError("define", spec.name, ErrSetterWithoutGetter)
			}
			if len(spec.deps) > 0 {
				return nil, wrapAttributeError("define", spec.name, ErrDependenciesOnStored)
			}
		}
		spec.order = i
		spec.deps = dedupeNames(spec.deps)
		registry.specs[i] = &spec
		registry.byName[spec.name] = &spec
	}

	for _, spec := range registry.specs {
		for _, dep := range spec.deps {
			if _, ok := registry.byName[dep]; !ok {
				return nil, wrapAttributeError("define", spec.name,
					fmt.Errorf("%w: dependency %q", ErrUnknownAttribute, dep))
			}
			if dep == spec.name {
				return nil, wrapAttributeError("define", spec.name,
					fmt.Errorf("%w: %s -> %s", ErrCyclicDependency, spec.name, dep))
			}
		}
	}

	if err := registry.checkAcyclic(); err != nil {
		return nil, err
	}

	registry.index = newDependencyIndex(registry)
	return registry, nil
}

// checkAcyclic rejects cycles in the declared dependency graph with a
// three-color depth-first walk, reporting the offending path.
func (r *Registry) checkAcyclic() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(r.specs))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: %s -> %s", ErrCyclicDependency,
				strings.Join(path, " -> "), name)
		}
		color[name] = gray
		for _, dep := range r.byName[name].deps {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, spec := range r.specs {
		if err := visit(spec.name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered attributes.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

// Names returns every attribute name in declaration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.specs))
	for i, spec := range r.specs {
		names[i] = spec.name
	}
	return names
}

// Spec returns the spec registered under name.
func (r *Registry) Spec(name string) (*AttributeSpec, bool) {
	if r == nil {
		return nil, false
	}
	spec, ok := r.byName[name]
	return spec, ok
}

// Specs returns the registered specs in declaration order. The slice is a
// copy; the specs themselves are shared and immutable.
func (r *Registry) Specs() []*AttributeSpec {
	if r == nil {
		return nil
	}
	return append([]*AttributeSpec(nil), r.specs...)
}

// Index exposes the memoized dependency closures.
func (r *Registry) Index() *DependencyIndex {
	return r.index
}

// ResolveUpdate computes the minimal diff for the requested changes against
// state. Passing Deleted as a requested value deletes the attribute. The
// returned diff has zero side effects on state; committing it is the
// caller's concern.
func (r *Registry) ResolveUpdate(state StateView, requested map[string]any) (Diff, error) {
	diff, _, err := r.resolveUpdate(state, requested, false)
	return diff, err
}

// ResolveUpdateTraced behaves like ResolveUpdate and additionally records
// per-attribute provenance for the resolution.
func (r *Registry) ResolveUpdateTraced(state StateView, requested map[string]any) (Diff, Trace, error) {
	return r.resolveUpdate(state, requested, true)
}

func (r *Registry) resolveUpdate(state StateView, requested map[string]any, traced bool) (Diff, Trace, error) {
	if state == nil {
		state = Empty()
	}
	txn := newTxn(r, state, false, traced)
	reqs := make([]request, 0, len(requested))
	for name, value := range requested {
		reqs = append(reqs, request{name: name, value: value, source: SourceRequested})
	}
	diff, err := txn.run(reqs)
	if err != nil {
		return Diff{}, txn.traceResult(), err
	}
	return diff, txn.traceResult(), nil
}

// ResolveInitial maps constructor-style arguments onto the init-eligible
// attributes in declaration order, substitutes defaults and factories for
// omitted arguments, and resolves delegated attributes by treating
// construction as an update from the empty state. The returned diff's
// OldValues is always empty.
func (r *Registry) ResolveInitial(positional []any, keyword map[string]any) (Diff, error) {
	diff, _, err := r.resolveInitial(positional, keyword, false)
	return diff, err
}

// ResolveInitialTraced behaves like ResolveInitial with provenance capture.
func (r *Registry) ResolveInitialTraced(positional []any, keyword map[string]any) (Diff, Trace, error) {
	return r.resolveInitial(positional, keyword, true)
}

func (r *Registry) resolveInitial(positional []any, keyword map[string]any, traced bool) (Diff, Trace, error) {
	reqs, err := r.mapArguments(positional, keyword)
	if err != nil {
		return Diff{}, Trace{}, err
	}

	txn := newTxn(r, Empty(), true, traced)
	diff, err := txn.run(reqs)
	if err != nil {
		return Diff{}, txn.traceResult(), err
	}

	if missing := r.missingRequired(diff); len(missing) > 0 {
		return Diff{}, txn.traceResult(), fmt.Errorf("%w: %s",
			ErrMissingRequired, strings.Join(missing, ", "))
	}
	return diff, txn.traceResult(), nil
}

type request struct {
	name   string
	value  any
	source Source
}

// mapArguments assembles the preliminary request set from constructor-style
// arguments: positionals in declaration order, then keywords, then defaults
// for whatever remains.
func (r *Registry) mapArguments(positional []any, keyword map[string]any) ([]request, error) {
	if r.cfg.keywordOnly && len(positional) > 0 {
		return nil, ErrKeywordOnly
	}

	eligible := make([]*AttributeSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		if spec.init {
			eligible = append(eligible, spec)
		}
	}
	if len(positional) > len(eligible) {
		return nil, fmt.Errorf("%w: got %d, at most %d",
			ErrTooManyPositional, len(positional), len(eligible))
	}

	assigned := make(map[string]any, len(positional)+len(keyword))
	for i, value := range positional {
		assigned[eligible[i].name] = value
	}
	for name, value := range keyword {
		spec, ok := r.byName[name]
		if !ok || !spec.init {
			return nil, wrapAttributeError("init", name, ErrUnknownAttribute)
		}
		if _, dup := assigned[name]; dup {
			return nil, wrapAttributeError("init", name, ErrDuplicateArgument)
		}
		assigned[name] = value
	}

	var missing []string
	reqs := make([]request, 0, len(r.specs))
	for _, spec := range r.specs {
		if value, ok := assigned[spec.name]; ok {
			reqs = append(reqs, request{name: spec.name, value: value, source: SourceArgument})
			continue
		}
		if value, ok := spec.DefaultValue(); ok {
			reqs = append(reqs, request{name: spec.name, value: value, source: SourceDefault})
			continue
		}
		if spec.required && spec.init && !spec.Delegated() {
			missing = append(missing, spec.name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return reqs, nil
}

func (r *Registry) missingRequired(diff Diff) []string {
	var missing []string
	for _, spec := range r.specs {
		if !spec.required {
			continue
		}
		if _, ok := diff.NewValues[spec.name]; !ok {
			missing = append(missing, spec.name)
		}
	}
	return missing
}

func (r *Registry) processorFor(spec *AttributeSpec) Processor {
	if spec.processor != nil {
		return spec.processor
	}
	if r.cfg.processor != nil {
		return r.cfg.processor
	}
	return DefaultProcessor()
}

func (r *Registry) delegateLogger() DelegateLogger {
	if r.cfg.logger != nil {
		return r.cfg.logger
	}
	return noopDelegateLogger{}
}

func dedupeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
