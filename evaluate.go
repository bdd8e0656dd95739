package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEvaluator reports that no rule engine is available for a validation rule.
var ErrNoEvaluator = errors.New("settings: evaluator not configured")

// Rule engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator builds the evaluator for engine ("expr" when empty) sharing
// cache and functions. The js engine is only available when built with the
// js_eval tag.
func NewEvaluator(engine string, cache ProgramCache, functions *FunctionRegistry) (Evaluator, error) {
	var evaluator Evaluator
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		evaluator = NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions))
	case EngineCEL:
		evaluator = NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions))
	case EngineJS:
		evaluator = NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions))
	default:
		return nil, fmt.Errorf("settings: unknown rule engine %q", engine)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: engine %q", ErrNoEvaluator, engine)
	}
	return evaluator, nil
}

// resolveEvaluator returns the configured evaluator, lazily building the expr
// default wired to the registry cache and functions.
func (r *Registry) resolveEvaluator() (Evaluator, error) {
	if r.evaluator != nil {
		return r.evaluator, nil
	}
	evaluator, err := NewEvaluator(EngineExpr, r.programCache, r.functions)
	if err != nil {
		return nil, err
	}
	r.evaluator = evaluator
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	}
	if name, ok := e.(interface{ Engine() string }); ok {
		return name.Engine()
	}
	return "custom"
}
