package attrs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Txn drives one resolution. It owns the dirty set, the in-progress new/old
// value maps and the getter scope guard, and is the accessor handed to
// delegate functions: Get, Set and Delete are a delegate's only view of the
// world. A Txn lives for a single ResolveInitial/ResolveUpdate call and must
// not be shared across goroutines.
type Txn struct {
	registry *Registry
	state    StateView

	dirty     map[string]struct{}
	newValues map[string]any
	oldValues map[string]any

	activeGetter *AttributeSpec
	activeScope  map[string]struct{}

	trace *Trace
}

func newTxn(registry *Registry, state StateView, construction, traced bool) *Txn {
	txn := &Txn{
		registry:  registry,
		state:     state,
		dirty:     make(map[string]struct{}),
		newValues: make(map[string]any),
		oldValues: make(map[string]any),
	}
	if construction {
		// Nothing is known yet: every attribute absent from the state view
		// must be derived before it can be read.
		for _, spec := range registry.specs {
			if !state.Has(spec.name) {
				txn.dirty[spec.name] = struct{}{}
			}
		}
	}
	if traced {
		txn.trace = &Trace{}
	}
	return txn
}

// Get returns the current value of name. A dirty delegated attribute is
// recomputed synchronously by its getter inside a scope restricted to the
// declared dependencies; otherwise the staged value, then the state view,
// are consulted. Absent everywhere fails with ErrNoValue.
func (t *Txn) Get(name string) (any, error) {
	if t.activeScope != nil {
		if _, declared := t.activeScope[name]; !declared {
			return nil, wrapAttributeError("get", name,
				fmt.Errorf("%w: getter for %q reads %q", ErrScopeViolation, t.activeGetter.name, name))
		}
	}
	spec, ok := t.registry.byName[name]
	if !ok {
		return nil, wrapAttributeError("get", name, ErrUnknownAttribute)
	}

	if _, stale := t.dirty[name]; stale && spec.getter != nil {
		value, err := t.invokeGetter(spec)
		if err != nil {
			return nil, err
		}
		processed, err := t.process(spec, value)
		if err != nil {
			return nil, err
		}
		t.newValues[name] = processed
		delete(t.dirty, name)
		t.traceStep(name, "compute", SourceComputed, processed)
		return processed, nil
	}

	if value, staged := t.newValues[name]; staged {
		if IsDeleted(value) {
			return nil, wrapAttributeError("get", name, ErrNoValue)
		}
		return value, nil
	}

	if _, stale := t.dirty[name]; !stale && t.state.Has(name) {
		return t.state.Get(name)
	}
	return nil, wrapAttributeError("get", name, ErrNoValue)
}

// Set stages a new value for name. Writes are rejected while a getter is
// executing. Delegated attributes dispatch to their setter; stored
// non-updatable attributes reject a write once they hold a value. Passing
// Deleted behaves like Delete.
func (t *Txn) Set(name string, value any) error {
	return t.set(name, value, SourceRequested)
}

func (t *Txn) set(name string, value any, source Source) error {
	if t.activeGetter != nil {
		return wrapAttributeError("set", name,
			fmt.Errorf("%w: getter for %q", ErrReentrantWrite, t.activeGetter.name))
	}
	spec, ok := t.registry.byName[name]
	if !ok {
		return wrapAttributeError("set", name, ErrUnknownAttribute)
	}
	if IsDeleted(value) {
		return t.Delete(name)
	}

	if spec.getter != nil {
		if spec.setter == nil {
			return wrapAttributeError("set", name, ErrReadOnlyAttribute)
		}
		return t.invokeSetter(spec, value)
	}

	if !spec.updatable {
		if _, held := t.currentValue(name); held {
			return wrapAttributeError("set", name, ErrReadOnlyAttribute)
		}
	}
	processed, err := t.process(spec, value)
	if err != nil {
		return err
	}
	t.stage(spec, processed, source)
	return nil
}

// Delete stages removal of name. Deletes are rejected while a getter is
// executing, on attributes not flagged deletable, and on required attributes.
func (t *Txn) Delete(name string) error {
	if t.activeGetter != nil {
		return wrapAttributeError("delete", name,
			fmt.Errorf("%w: getter for %q", ErrReentrantWrite, t.activeGetter.name))
	}
	spec, ok := t.registry.byName[name]
	if !ok {
		return wrapAttributeError("delete", name, ErrUnknownAttribute)
	}
	if spec.required {
		return wrapAttributeError("delete", name, ErrRequiredDeletion)
	}
	if !spec.deletable {
		return wrapAttributeError("delete", name, ErrNotDeletable)
	}
	if spec.getter != nil && spec.deleter != nil {
		return t.invokeDeleter(spec)
	}
	t.stage(spec, Deleted, SourceRequested)
	return nil
}

// ActiveDependencies returns the declared dependency names of the getter
// currently executing, in declaration order. Expression-backed delegates use
// this to build their environments; reads still go through Get so scope
// enforcement and dirty tracking apply.
func (t *Txn) ActiveDependencies() []string {
	if t.activeGetter == nil {
		return nil
	}
	return t.activeGetter.Dependencies()
}

// Registry returns the registry this transaction resolves against.
func (t *Txn) Registry() *Registry {
	return t.registry
}

// stage records value for spec and marks every recursive dependent dirty,
// preserving each one's best-known prior value so the diff can report it.
func (t *Txn) stage(spec *AttributeSpec, value any, source Source) {
	name := spec.name
	if prior, held := t.currentValue(name); held {
		if _, staged := t.oldValues[name]; !staged {
			t.oldValues[name] = prior
		}
	}
	t.newValues[name] = value
	delete(t.dirty, name)
	if IsDeleted(value) {
		t.traceStep(name, "delete", source, nil)
	} else {
		t.traceStep(name, "set", source, value)
	}

	for _, dependent := range t.registry.index.RecursiveDependents(name) {
		if _, already := t.dirty[dependent]; already {
			continue
		}
		if prior, held := t.currentValue(dependent); held {
			if _, staged := t.oldValues[dependent]; !staged {
				t.oldValues[dependent] = prior
			}
		}
		delete(t.newValues, dependent)
		t.dirty[dependent] = struct{}{}
	}
}

// currentValue reports the best-known value for name: staged first, then the
// state view. A staged deletion means no value.
func (t *Txn) currentValue(name string) (any, bool) {
	if value, staged := t.newValues[name]; staged {
		if IsDeleted(value) {
			return nil, false
		}
		return value, true
	}
	if t.state.Has(name) {
		if value, err := t.state.Get(name); err == nil {
			return value, true
		}
	}
	return nil, false
}

func (t *Txn) process(spec *AttributeSpec, value any) (any, error) {
	processed, err := t.registry.processorFor(spec).Process(value)
	if err != nil {
		return nil, wrapAttributeError("process", spec.name, err)
	}
	return processed, nil
}

func (t *Txn) invokeGetter(spec *AttributeSpec) (value any, err error) {
	prevGetter, prevScope := t.activeGetter, t.activeScope
	scope := make(map[string]struct{}, len(spec.deps))
	for _, dep := range spec.deps {
		scope[dep] = struct{}{}
	}
	t.activeGetter = spec
	t.activeScope = scope
	start := time.Now()
	// The guard must be restored on every exit path; a failed getter must not
	// leave the transaction locked out of further writes.
	defer func() {
		t.activeGetter, t.activeScope = prevGetter, prevScope
		t.registry.delegateLogger().LogDelegate(DelegateLogEvent{
			Attribute: spec.name,
			Op:        "get",
			Duration:  time.Since(start),
			Err:       err,
		})
	}()
	value, err = spec.getter(t)
	if err != nil {
		err = wrapAttributeError("get", spec.name, err)
	}
	return value, err
}

func (t *Txn) invokeSetter(spec *AttributeSpec, value any) (err error) {
	start := time.Now()
	defer func() {
		t.registry.delegateLogger().LogDelegate(DelegateLogEvent{
			Attribute: spec.name,
			Op:        "set",
			Duration:  time.Since(start),
			Err:       err,
		})
	}()
	if err = spec.setter(t, value); err != nil {
		err = wrapAttributeError("set", spec.name, err)
	}
	return err
}

func (t *Txn) invokeDeleter(spec *AttributeSpec) (err error) {
	start := time.Now()
	defer func() {
		t.registry.delegateLogger().LogDelegate(DelegateLogEvent{
			Attribute: spec.name,
			Op:        "delete",
			Duration:  time.Since(start),
			Err:       err,
		})
	}()
	if err = spec.deleter(t); err != nil {
		err = wrapAttributeError("delete", spec.name, err)
	}
	return err
}

// run applies the requested changes and forces full resolution of the
// remaining dirty set. Requests with the largest dependency footprint go
// first so shared downstream dependents recompute once; the dirty remainder
// resolves cheapest first.
func (t *Txn) run(reqs []request) (Diff, error) {
	index := t.registry.index
	sort.SliceStable(reqs, func(i, j int) bool {
		di := len(index.RecursiveDependencies(reqs[i].name))
		dj := len(index.RecursiveDependencies(reqs[j].name))
		if di != dj {
			return di > dj
		}
		return t.declarationOrder(reqs[i].name) < t.declarationOrder(reqs[j].name)
	})

	for _, req := range reqs {
		var err error
		if IsDeleted(req.value) {
			err = t.Delete(req.name)
		} else {
			err = t.set(req.name, req.value, req.source)
		}
		if err != nil {
			return Diff{}, err
		}
	}

	for len(t.dirty) > 0 {
		name := t.nextDirty()
		if _, err := t.Get(name); err != nil {
			if errors.Is(err, ErrNoValue) {
				// Legitimately unresolvable: no default, no derivable value.
				// Dependents that can never resolve stay absent from output.
				delete(t.dirty, name)
				t.traceStep(name, "unresolved", "", nil)
				continue
			}
			return Diff{}, err
		}
	}

	return t.finalize(), nil
}

func (t *Txn) nextDirty() string {
	index := t.registry.index
	best := ""
	bestDeps, bestOrder := 0, 0
	for name := range t.dirty {
		deps := len(index.RecursiveDependencies(name))
		order := t.declarationOrder(name)
		if best == "" || deps < bestDeps || (deps == bestDeps && order < bestOrder) {
			best, bestDeps, bestOrder = name, deps, order
		}
	}
	return best
}

func (t *Txn) declarationOrder(name string) int {
	if spec, ok := t.registry.byName[name]; ok {
		return spec.order
	}
	return int(^uint(0) >> 1)
}

// finalize produces the minimal diff: entries whose recomputed value equals
// the pre-transaction value are pruned from both maps, and staged deletions
// surface as old-only entries.
func (t *Txn) finalize() Diff {
	diff := Diff{
		NewValues: make(map[string]any, len(t.newValues)),
		OldValues: make(map[string]any, len(t.oldValues)),
	}
	for name, value := range t.newValues {
		if IsDeleted(value) {
			if prior, ok := t.priorValue(name); ok {
				diff.OldValues[name] = prior
			}
			continue
		}
		if prior, ok := t.stateValue(name); ok && reflect.DeepEqual(prior, value) {
			continue
		}
		diff.NewValues[name] = value
		if prior, ok := t.oldValues[name]; ok {
			diff.OldValues[name] = prior
		}
	}
	return diff
}

func (t *Txn) priorValue(name string) (any, bool) {
	if prior, ok := t.oldValues[name]; ok {
		return prior, true
	}
	return t.stateValue(name)
}

func (t *Txn) stateValue(name string) (any, bool) {
	if !t.state.Has(name) {
		return nil, false
	}
	value, err := t.state.Get(name)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (t *Txn) traceStep(attribute, action string, source Source, value any) {
	if t.trace == nil {
		return
	}
	t.trace.Steps = append(t.trace.Steps, Step{
		Attribute: attribute,
		Action:    action,
		Source:    source,
		Value:     value,
	})
}

func (t *Txn) traceResult() Trace {
	if t.trace == nil {
		return Trace{}
	}
	return *t.trace
}
