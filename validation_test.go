package settings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cast"
)

func TestPresenceValidation(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	registry.MustDeclare("User", "nickname", Options{
		"type":        "string",
		"validations": map[string]any{"presence": "yes"},
	})
	a := NewAccessors(registry, nil)

	for _, blank := range []any{"", "   ", nil} {
		if err := a.Write(ctx, userOwner, "nickname", blank); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("expected blank %#v to be rejected, got %v", blank, err)
		}
	}
	if err := a.Write(ctx, userOwner, "nickname", "neo"); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestInclusionValidationUsesCanonicalValues(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	registry.MustDeclare("User", "page_size", Options{
		"type":        "integer",
		"validations": map[string]any{"inclusion": []string{"10", "20"}},
	})
	a := NewAccessors(registry, nil)

	if err := a.Write(ctx, userOwner, "page_size", "20"); err != nil {
		t.Fatalf("expected 20 to be included, got %v", err)
	}
	err := a.Write(ctx, userOwner, "page_size", 15)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if !strings.Contains(err.Error(), "not included") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestDeclareRejectsMalformedValidations(t *testing.T) {
	cases := map[string]Options{
		"non-map":            {"type": "string", "validations": "presence"},
		"presence not bool":  {"type": "string", "validations": map[string]any{"presence": "sometimes"}},
		"inclusion not list": {"type": "string", "validations": map[string]any{"inclusion": "a"}},
		"bad inclusion item": {"type": "integer", "validations": map[string]any{"inclusion": []any{1, "x"}}},
		"empty rule":         {"type": "string", "validations": map[string]any{"rule": "  "}},
	}
	for name, options := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewRegistry().Declare("User", "field", options)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}

func TestExprRuleValidation(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	registry := NewRegistry()
	registry.MustDeclare("User", "page_size", Options{
		"type":        "integer",
		"validations": map[string]any{"rule": "value >= 1 && value <= 100"},
	})
	a := NewAccessors(registry, nil, WithLogger(logger))

	if err := a.Write(ctx, userOwner, "page_size", 50); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := a.Write(ctx, userOwner, "page_size", 500)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	var validations []ResolutionEvent
	for _, event := range logger.events {
		if event.Op == OpValidate {
			validations = append(validations, event)
		}
	}
	if len(validations) != 2 {
		t.Fatalf("expected two validation events, got %+v", validations)
	}
	if validations[0].Engine != EngineExpr || validations[0].Expr != "value >= 1 && value <= 100" || validations[0].Err != nil {
		t.Fatalf("unexpected passing validation event: %+v", validations[0])
	}
	if validations[1].Err == nil {
		t.Fatalf("expected failing validation event to carry an error")
	}
}

func TestRuleSeesSettingContext(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	registry.MustDeclare("User", "theme", Options{
		"type":        "string",
		"max":         5,
		"validations": map[string]any{"rule": `class == "User" && setting == "theme" && owner_id == "1" && len(value) <= options.max`},
	})
	a := NewAccessors(registry, nil)

	if err := a.Write(ctx, userOwner, "theme", "dark"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.Write(ctx, userOwner, "theme", "midnight"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected options.max to reject long value, got %v", err)
	}
}

func TestRuleCompileErrorsSurfaceAtDeclare(t *testing.T) {
	err := NewRegistry().Declare("User", "page_size", Options{
		"type":        "integer",
		"validations": map[string]any{"rule": "value >="},
	})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != EngineExpr || evalErr.Expr != "value >=" || evalErr.Setting != "page_size" {
		t.Fatalf("unexpected evaluation error metadata: %+v", evalErr)
	}
}

func TestCELRuleValidation(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(WithEvaluator(NewCELEvaluator()))
	registry.MustDeclare("User", "nickname", Options{
		"type":        "string",
		"validations": map[string]any{"rule": "size(value) <= 5 && class == 'User'"},
	})
	a := NewAccessors(registry, nil)

	if err := a.Write(ctx, userOwner, "nickname", "neo"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.Write(ctx, userOwner, "nickname", "trinity"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestCELRuleCompileErrors(t *testing.T) {
	registry := NewRegistry(WithEvaluator(NewCELEvaluator()))
	err := registry.Declare("User", "nickname", Options{
		"type":        "string",
		"validations": map[string]any{"rule": "size(value) <"},
	})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != EngineCEL {
		t.Fatalf("expected cel EvaluationError, got %v", err)
	}
}

func isEven(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("even expects one argument")
	}
	n, err := cast.ToIntE(args[0])
	if err != nil {
		return nil, err
	}
	return n%2 == 0, nil
}

func TestCustomFunctionsInRules(t *testing.T) {
	ctx := context.Background()

	functions := NewFunctionRegistry()
	if err := functions.Register("even", isEven); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := functions.Register("EVEN", isEven); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	engines := map[string]struct {
		registry *Registry
		rule     string
	}{
		"expr": {NewRegistry(WithCustomFunction("even", isEven)), "even(value)"},
		"cel":  {NewRegistry(WithEvaluator(NewCELEvaluator(CELWithFunctionRegistry(functions)))), `call("even", [value])`},
	}
	for name, tc := range engines {
		t.Run(name, func(t *testing.T) {
			tc.registry.MustDeclare("User", "columns", Options{
				"type":        "integer",
				"validations": map[string]any{"rule": tc.rule},
			})
			a := NewAccessors(tc.registry, nil)
			if err := a.Write(ctx, userOwner, "columns", 4); err != nil {
				t.Fatalf("write even: %v", err)
			}
			if err := a.Write(ctx, userOwner, "columns", 3); !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("expected odd value to be rejected, got %v", err)
			}
		})
	}
}

func TestProgramCacheSharesCompiledRules(t *testing.T) {
	cache := NewMemoryProgramCache(time.Minute)
	registry := NewRegistry(WithProgramCache(cache))
	rule := map[string]any{"rule": "value > 0"}
	registry.MustDeclare("User", "a", Options{"type": "integer", "validations": rule})
	registry.MustDeclare("User", "b", Options{"type": "integer", "validations": rule})
	if cache.Len() != 1 {
		t.Fatalf("expected one cached program, got %d", cache.Len())
	}

	cel := NewCELEvaluator(CELWithProgramCache(cache))
	if _, err := cel.Compile("value > 0"); err != nil {
		t.Fatalf("cel compile: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected engines to keep separate cache entries, got %d", cache.Len())
	}
	if _, ok := cache.Get(cacheKey(EngineCEL, "value > 0")); !ok {
		t.Fatalf("expected cel entry under its namespaced key")
	}
}

func TestNewEvaluatorSelectsEngine(t *testing.T) {
	for engine, want := range map[string]string{"": EngineExpr, "expr": EngineExpr, " CEL ": EngineCEL} {
		evaluator, err := NewEvaluator(engine, nil, nil)
		if err != nil {
			t.Fatalf("engine %q: %v", engine, err)
		}
		if got := evaluatorEngineName(evaluator); got != want {
			t.Fatalf("engine %q: expected %s, got %s", engine, want, got)
		}
	}

	if _, err := NewEvaluator("lua", nil, nil); err == nil {
		t.Fatalf("expected unknown engine to fail")
	}

	evaluator, err := NewEvaluator(EngineJS, nil, nil)
	if !jsEngineBuilt {
		if !errors.Is(err, ErrNoEvaluator) {
			t.Fatalf("expected ErrNoEvaluator without js support, got %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("js evaluator: %v", err)
	}
	result, err := evaluator.Evaluate(RuleContext{Value: 3}, "value * 2 === 6")
	if err != nil || result != true {
		t.Fatalf("expected js rule to pass, got %v err=%v", result, err)
	}
}

func TestEvaluatorsRejectEmptyExpressions(t *testing.T) {
	for _, evaluator := range []Evaluator{NewExprEvaluator(), NewCELEvaluator()} {
		if _, err := evaluator.Compile(""); err == nil {
			t.Fatalf("%s: expected empty expression to fail", evaluatorEngineName(evaluator))
		}
		if _, err := evaluator.Evaluate(RuleContext{}, ""); err == nil {
			t.Fatalf("%s: expected empty expression to fail", evaluatorEngineName(evaluator))
		}
	}
}
