package attrs

import (
	"fmt"
	"strings"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCallArgs bounds the enumerated arities for the variadic "call" function.
const maxCallArgs = 8

// CELDelegateOption configures a CEL-backed delegate.
type CELDelegateOption func(*celDelegate)

// CELWithProgramCache wires a ProgramCache into the CEL delegate.
func CELWithProgramCache(cache ProgramCache) CELDelegateOption {
	return func(d *celDelegate) {
		d.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL delegate.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELDelegateOption {
	return func(d *celDelegate) {
		if registry == nil {
			return
		}
		d.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celDelegate struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// CELGetter compiles expression into a getter delegate using cel-go. The
// activation binds the attribute's declared dependencies, read through the
// transaction.
func CELGetter(expression string, opts ...CELDelegateOption) Getter {
	d := &celDelegate{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return func(txn *Txn) (any, error) {
		if expression == "" {
			return nil, fmt.Errorf("attrs: cel delegate: expression must not be empty")
		}
		deps := txn.ActiveDependencies()
		activation := map[string]any{
			"now": time.Now(),
		}
		for _, dep := range deps {
			value, err := txn.Get(dep)
			if err != nil {
				return nil, err
			}
			activation[dep] = value
		}
		if d.registry != nil {
			activation["call"] = func(name string, arguments ...any) (any, error) {
				return d.registry.Call(name, arguments...)
			}
		}
		program, err := d.loadOrCompile(expression, deps)
		if err != nil {
			return nil, err
		}
		out, _, err := program.program.Eval(activation)
		if err != nil {
			return nil, err
		}
		return out.Value(), nil
	}
}

func (d *celDelegate) loadOrCompile(expression string, deps []string) (*celProgram, error) {
	// Cached per dependency set: the same expression bound to different
	// dependencies compiles against a different environment.
	key := expression + "|" + strings.Join(deps, ",")
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := d.buildEnv(deps)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if d.cache != nil {
		d.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (d *celDelegate) buildEnv(deps []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
	}
	for _, dep := range deps {
		opts = append(opts, celgo.Variable(dep, celgo.DynType))
	}
	if d.registry != nil {
		// cel-go has no variadic overloads; enumerate arities for the
		// trailing dyn arguments and share a single binding across them.
		callOpts := []celgo.FunctionOpt{}
		args := []*celgo.Type{celgo.StringType}
		for i := 0; i <= maxCallArgs; i++ {
			callOpts = append(callOpts, celgo.Overload(
				fmt.Sprintf("call_dyn_%d", i),
				append([]*celgo.Type{}, args...),
				celgo.DynType,
			))
			args = append(args, celgo.DynType)
		}
		callOpts = append(callOpts, celgo.SingletonFunctionBinding(d.callBinding()))
		opts = append(opts, celgo.Function("call", callOpts...))
	}
	return celgo.NewEnv(opts...)
}

func (d *celDelegate) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if d.registry == nil {
			return types.NewErr("attrs: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("attrs: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("attrs: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := d.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
