package attrs

import (
	"sync"
	"testing"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string]any
	gets  int
	hits  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]any{}}
}

func (c *memoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	value, ok := c.items[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *memoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

var delegateFactories = []struct {
	name       string
	expression string
	new        func(expression string, cache ProgramCache, registry *FunctionRegistry) Getter
}{
	{
		name:       "expr",
		expression: `first + " " + last`,
		new: func(expression string, cache ProgramCache, registry *FunctionRegistry) Getter {
			opts := []ExprDelegateOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return ExprGetter(expression, opts...)
		},
	},
	{
		name:       "cel",
		expression: `first + " " + last`,
		new: func(expression string, cache ProgramCache, registry *FunctionRegistry) Getter {
			opts := []CELDelegateOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return CELGetter(expression, opts...)
		},
	},
}

func displayRegistry(t *testing.T, getter Getter) *Registry {
	t.Helper()
	registry, err := NewRegistry([]AttributeSpec{
		NewSpec("first", Required(), Updatable()),
		NewSpec("last", Required(), Updatable()),
		NewSpec("display", NoInit(), WithGetter(getter, "first", "last")),
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestExpressionGettersResolve(t *testing.T) {
	for _, factory := range delegateFactories {
		t.Run(factory.name, func(t *testing.T) {
			registry := displayRegistry(t, factory.new(factory.expression, nil, nil))

			diff, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if diff.NewValues["display"] != "Ada Lovelace" {
				t.Fatalf("unexpected display: %v", diff.NewValues["display"])
			}

			state := MapView{"first": "Ada", "last": "Lovelace", "display": "Ada Lovelace"}
			diff, err = registry.ResolveUpdate(state, map[string]any{"last": "Byron"})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if diff.NewValues["display"] != "Ada Byron" {
				t.Fatalf("expected recomputed display, got %v", diff.NewValues["display"])
			}
			if diff.OldValues["display"] != "Ada Lovelace" {
				t.Fatalf("expected prior display, got %v", diff.OldValues["display"])
			}
		})
	}
}

func TestExpressionGettersUseProgramCache(t *testing.T) {
	for _, factory := range delegateFactories {
		t.Run(factory.name, func(t *testing.T) {
			cache := newMemoryCache()
			registry := displayRegistry(t, factory.new(factory.expression, cache, nil))

			if _, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil); err != nil {
				t.Fatalf("first resolve: %v", err)
			}
			if len(cache.items) == 0 {
				t.Fatalf("expected compiled program to be cached")
			}
			if _, err := registry.ResolveInitial([]any{"Grace", "Hopper"}, nil); err != nil {
				t.Fatalf("second resolve: %v", err)
			}
			if cache.hits == 0 {
				t.Fatalf("expected second resolve to hit the cache")
			}
		})
	}
}

func TestExpressionGettersEmptyExpression(t *testing.T) {
	for _, factory := range delegateFactories {
		t.Run(factory.name, func(t *testing.T) {
			registry := displayRegistry(t, factory.new("", nil, nil))

			if _, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil); err == nil {
				t.Fatalf("expected empty expression to fail")
			}
		})
	}
}

func TestExprGetterRegisteredFunction(t *testing.T) {
	functions := NewFunctionRegistry()
	if err := functions.Register("initials", func(args ...any) (any, error) {
		out := ""
		for _, arg := range args {
			out += arg.(string)[:1]
		}
		return out, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	registry := displayRegistry(t, ExprGetter(`initials(first, last)`, ExprWithFunctionRegistry(functions)))
	diff, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff.NewValues["display"] != "AL" {
		t.Fatalf("unexpected display: %v", diff.NewValues["display"])
	}
}

func TestCELGetterCallFunction(t *testing.T) {
	functions := NewFunctionRegistry()
	if err := functions.Register("initials", func(args ...any) (any, error) {
		out := ""
		for _, arg := range args {
			out += arg.(string)[:1]
		}
		return out, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	registry := displayRegistry(t, CELGetter(`call("initials", first, last)`, CELWithFunctionRegistry(functions)))
	diff, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff.NewValues["display"] != "AL" {
		t.Fatalf("unexpected display: %v", diff.NewValues["display"])
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()

	if err := registry.Register("", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name rejection")
	}
	if err := registry.Register("fn", nil); err == nil {
		t.Fatalf("expected nil function rejection")
	}
	if err := registry.Register("Fn", func(...any) (any, error) { return "ok", nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("fn", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected case-insensitive duplicate rejection")
	}

	result, err := registry.Call("FN")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "ok" {
		t.Fatalf("unexpected result: %v", result)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected unknown function error")
	}

	clone := registry.Clone()
	if err := clone.Register("other", func(...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("register on clone: %v", err)
	}
	if _, err := registry.Call("other"); err == nil {
		t.Fatalf("clone registrations must not leak into the original")
	}
	if names := clone.Names(); len(names) != 2 {
		t.Fatalf("unexpected clone names: %v", names)
	}
}

func TestJSGetterRequiresBuildTag(t *testing.T) {
	if jsDelegateAvailable() {
		t.Skip("js delegate compiled in")
	}

	registry := displayRegistry(t, JSGetter(`first + " " + last`))
	if _, err := registry.ResolveInitial([]any{"Ada", "Lovelace"}, nil); err == nil {
		t.Fatalf("expected js delegate to be unavailable without its build tag")
	}
}
