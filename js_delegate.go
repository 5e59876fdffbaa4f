//go:build js_eval

package attrs

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsDelegate struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSGetter compiles expression into a getter delegate using goja. Available
// only with the js_eval build tag.
func JSGetter(expression string, opts ...JSDelegateOption) Getter {
	cfg := applyJSDelegateOptions(opts)
	d := &jsDelegate{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
	return func(txn *Txn) (any, error) {
		if expression == "" {
			return nil, fmt.Errorf("attrs: js delegate: expression must not be empty")
		}
		if d.cache == nil {
			return d.run(txn, expression, nil)
		}
		program, err := d.loadOrCompile(expression)
		if err != nil {
			return nil, err
		}
		return d.run(txn, expression, program)
	}
}

func (d *jsDelegate) loadOrCompile(expression string) (*goja.Program, error) {
	if d.cache != nil {
		if cached, ok := d.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", d.wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Set(expression, program)
	}
	return program, nil
}

func (d *jsDelegate) run(txn *Txn, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := d.injectDependencies(vm, txn); err != nil {
		return nil, err
	}
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, err
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(d.wrapExpression(expression))
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func (d *jsDelegate) injectDependencies(vm *goja.Runtime, txn *Txn) error {
	vm.Set("now", time.Now())
	for _, dep := range txn.ActiveDependencies() {
		value, err := txn.Get(dep)
		if err != nil {
			return err
		}
		vm.Set(dep, value)
	}
	if d.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return d.registry.Call(name, arguments...)
		})
		for _, name := range d.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return d.registry.Call(fn, arguments...)
			})
		}
	}
	return nil
}

func (d *jsDelegate) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsDelegateAvailable() bool {
	return true
}
