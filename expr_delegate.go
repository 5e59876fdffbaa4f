package attrs

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprDelegateOption configures an expr-backed delegate.
type ExprDelegateOption func(*exprDelegate)

// ExprWithProgramCache wires a ProgramCache into the expr delegate.
func ExprWithProgramCache(cache ProgramCache) ExprDelegateOption {
	return func(d *exprDelegate) {
		d.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr delegate.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprDelegateOption {
	return func(d *exprDelegate) {
		if registry == nil {
			return
		}
		d.registry = registry.Clone()
	}
}

type exprDelegate struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// ExprGetter compiles expression into a getter delegate using
// github.com/expr-lang/expr. The environment binds exactly the attribute's
// declared dependencies, read through the transaction so dirty tracking and
// scope enforcement still apply, plus "now" and any registered functions.
func ExprGetter(expression string, opts ...ExprDelegateOption) Getter {
	d := &exprDelegate{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return func(txn *Txn) (any, error) {
		if expression == "" {
			return nil, fmt.Errorf("attrs: expr delegate: expression must not be empty")
		}
		env, err := d.environment(txn)
		if err != nil {
			return nil, err
		}
		if d.cache == nil {
			return exprlang.Eval(expression, env)
		}
		program, err := d.loadOrCompile(expression)
		if err != nil {
			return nil, err
		}
		return exprlang.Run(program, env)
	}
}

func (d *exprDelegate) loadOrCompile(expression string) (*exprvm.Program, error) {
	if d.cache != nil {
		if cached, ok := d.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range d.registryNames() {
		fn := d.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("attrs: expr delegate: compile %q: %w", expression, err)
	}
	if d.cache != nil {
		d.cache.Set(expression, program)
	}
	return program, nil
}

// environment pulls the declared dependencies through the transaction. A
// missing dependency propagates its error so the resolution machinery can
// tolerate legitimately unresolvable attributes.
func (d *exprDelegate) environment(txn *Txn) (map[string]any, error) {
	env := map[string]any{
		"now": time.Now(),
	}
	for _, dep := range txn.ActiveDependencies() {
		value, err := txn.Get(dep)
		if err != nil {
			return nil, err
		}
		env[dep] = value
	}
	if d.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return d.registry.Call(name, arguments...)
		}
		for _, name := range d.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return d.registry.Call(fn, arguments...)
			}
		}
	}
	return env, nil
}

func (d *exprDelegate) registryNames() []string {
	if d == nil || d.registry == nil {
		return nil
	}
	return d.registry.Names()
}

func (d *exprDelegate) registryFunction(name string) func(...any) (any, error) {
	if d == nil || d.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return d.registry.Call(name, arguments...)
	}
}
