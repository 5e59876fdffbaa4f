package attrs

import (
	"sort"
	"sync"
)

// DependencyIndex memoizes, per attribute, the transitive closure of
// dependencies and of dependents. Closures are computed lazily on first
// access and cached; registries are immutable after construction, so entries
// are write-once and safe to share across concurrent readers.
type DependencyIndex struct {
	mu sync.Mutex

	registry   *Registry
	dependents map[string][]string
	closedDeps map[string][]string
	closedSubs map[string][]string
}

func newDependencyIndex(registry *Registry) *DependencyIndex {
	dependents := make(map[string][]string, len(registry.specs))
	for _, spec := range registry.specs {
		for _, dep := range spec.deps {
			dependents[dep] = append(dependents[dep], spec.name)
		}
	}
	return &DependencyIndex{
		registry:   registry,
		dependents: dependents,
		closedDeps: make(map[string][]string, len(registry.specs)),
		closedSubs: make(map[string][]string, len(registry.specs)),
	}
}

// Dependents returns the direct reverse edges for name in declaration order.
func (ix *DependencyIndex) Dependents(name string) []string {
	direct := ix.dependents[name]
	if len(direct) == 0 {
		return nil
	}
	return append([]string(nil), direct...)
}

// RecursiveDependencies returns every attribute reachable from name along
// declared dependency edges, deduplicated and ordered by declaration order.
func (ix *DependencyIndex) RecursiveDependencies(name string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.closure(name, ix.closedDeps, func(spec *AttributeSpec) []string {
		return spec.deps
	})
}

// RecursiveDependents returns every attribute reachable from name along
// reverse edges, deduplicated and ordered by declaration order.
func (ix *DependencyIndex) RecursiveDependents(name string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.closure(name, ix.closedSubs, func(spec *AttributeSpec) []string {
		return ix.dependents[spec.name]
	})
}

func (ix *DependencyIndex) closure(name string, cache map[string][]string, edges func(*AttributeSpec) []string) []string {
	if cached, ok := cache[name]; ok {
		return cached
	}
	spec, ok := ix.registry.byName[name]
	if !ok {
		return nil
	}

	seen := map[string]struct{}{name: {}}
	var reachable []string
	stack := append([]string(nil), edges(spec)...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, visited := seen[next]; visited {
			continue
		}
		seen[next] = struct{}{}
		reachable = append(reachable, next)
		stack = append(stack, edges(ix.registry.byName[next])...)
	}

	sort.Slice(reachable, func(i, j int) bool {
		return ix.registry.byName[reachable[i]].order < ix.registry.byName[reachable[j]].order
	})
	cache[name] = reachable
	return reachable
}
