package settings

import (
	"errors"
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

var errEmptyExpression = errors.New("expression must not be empty")

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the functions of registry to rules, both by
// name and through call("name", args...). The registry is copied.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// exprEvaluator runs validation rules with github.com/expr-lang/expr. This is
// the default engine.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles expression (through the cache when one is set) and runs it
// against ctx.
func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, engineError(EngineExpr, errEmptyExpression)
	}
	key := cacheKey(EngineExpr, expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return exprRule{program: program, expression: expression}, nil
			}
		}
	}

	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, ruleError(EngineExpr, expression, RuleContext{}, err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return exprRule{program: program, expression: expression}, nil
}

// compileOptions leaves the rule variables untyped: value changes type with
// the setting being validated.
func (e *exprEvaluator) compileOptions() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry == nil {
		return options
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, func(args ...any) (any, error) {
			return e.registry.Call(name, args...)
		}))
	}
	options = append(options, exprlang.Function("call", e.callByName))
	return options
}

func (e *exprEvaluator) callByName(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("call: function name required")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("call: function name must be a string, got %T", args[0])
	}
	return e.registry.Call(name, args[1:]...)
}

type exprRule struct {
	program    *exprvm.Program
	expression string
}

func (r exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, ctx.binding())
	if err != nil {
		return nil, ruleError(EngineExpr, r.expression, ctx, err)
	}
	return result, nil
}
