//go:build js_eval

package settings

import (
	"github.com/dop251/goja"
)

const jsEngineBuilt = true

// NewJSEvaluator constructs an Evaluator running rules as JavaScript
// expressions through goja. A fresh runtime is used per evaluation; compiled
// programs are shared.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	e := &jsEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *jsEvaluator) Engine() string { return EngineJS }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, engineError(EngineJS, errEmptyExpression)
	}
	key := cacheKey(EngineJS, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return jsRule{evaluator: e, program: program, expression: expression}, nil
			}
		}
	}
	// Wrapped so the expression value is the program's completion value.
	program, err := goja.Compile("rule", "(function(){ return ("+expression+"); })()", true)
	if err != nil {
		return nil, ruleError(EngineJS, expression, RuleContext{}, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return jsRule{evaluator: e, program: program, expression: expression}, nil
}

// runtime builds a VM with the rule bindings and the registered functions.
func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	for key, value := range ctx.binding() {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if e.registry == nil {
		return vm, nil
	}
	if err := vm.Set("call", func(name string, args ...any) (any, error) {
		return e.registry.Call(name, args...)
	}); err != nil {
		return nil, err
	}
	for _, name := range e.registry.Names() {
		if err := vm.Set(name, func(args ...any) (any, error) {
			return e.registry.Call(name, args...)
		}); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm, err := r.evaluator.runtime(ctx)
	if err != nil {
		return nil, ruleError(EngineJS, r.expression, ctx, err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, ruleError(EngineJS, r.expression, ctx, err)
	}
	return value.Export(), nil
}
