package settings

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Keys understood inside the validations option.
const (
	ValidationPresence  = "presence"
	ValidationInclusion = "inclusion"
	ValidationRule      = "rule"
)

type validator interface {
	validate(rc RuleContext, logger Logger) error
}

func (r *Registry) compileValidations(decl *Declaration, raw any) ([]validator, error) {
	if raw == nil {
		return nil, nil
	}
	rules, ok := raw.(map[string]any)
	if !ok {
		return nil, newError(KindInvalidValue, decl.Class, decl.Name, fmt.Sprintf("validations must be a map, got %s", typeName(raw)), nil)
	}

	var validators []validator
	if required, ok := rules[ValidationPresence]; ok {
		enabled, err := BooleanConverter{}.Decode(required)
		if err != nil {
			return nil, newError(KindInvalidValue, decl.Class, decl.Name, "presence must be a boolean", err)
		}
		if enabled.(bool) {
			validators = append(validators, presenceValidator{})
		}
	}
	if allowed, ok := rules[ValidationInclusion]; ok {
		items := reflect.ValueOf(allowed)
		if items.Kind() != reflect.Slice && items.Kind() != reflect.Array {
			return nil, newError(KindInvalidValue, decl.Class, decl.Name, "inclusion must be a list", nil)
		}
		canonical := make([]any, 0, items.Len())
		for i := 0; i < items.Len(); i++ {
			value, err := Canonical(decl.Converter(), items.Index(i).Interface())
			if err != nil {
				return nil, invalidValue(decl.Class, decl.Name, err)
			}
			canonical = append(canonical, value)
		}
		validators = append(validators, inclusionValidator{allowed: canonical})
	}
	if expr, ok := rules[ValidationRule]; ok {
		text, ok := expr.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return nil, newError(KindInvalidValue, decl.Class, decl.Name, "rule must be a non-empty string", nil)
		}
		evaluator, err := r.resolveEvaluator()
		if err != nil {
			return nil, err
		}
		engine := evaluatorEngineName(evaluator)
		compiled, err := evaluator.Compile(text)
		if err != nil {
			return nil, ruleError(engine, text, RuleContext{Class: decl.Class, Setting: decl.Name}, err)
		}
		validators = append(validators, ruleValidator{engine: engine, expr: text, rule: compiled})
	}
	return validators, nil
}

type presenceValidator struct{}

func (presenceValidator) validate(rc RuleContext, _ Logger) error {
	if isBlank(rc.Value) {
		return newError(KindInvalidValue, rc.Class, rc.Setting, "must be present", nil)
	}
	return nil
}

func isBlank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	}
	return false
}

type inclusionValidator struct {
	allowed []any
}

func (v inclusionValidator) validate(rc RuleContext, _ Logger) error {
	for _, candidate := range v.allowed {
		if reflect.DeepEqual(candidate, rc.Value) {
			return nil
		}
	}
	return newError(KindInvalidValue, rc.Class, rc.Setting, fmt.Sprintf("%v is not included in %v", rc.Value, v.allowed), nil)
}

type ruleValidator struct {
	engine string
	expr   string
	rule   CompiledRule
}

func (v ruleValidator) validate(rc RuleContext, logger Logger) error {
	start := time.Now()
	result, err := v.rule.Evaluate(rc)
	err = ruleError(v.engine, v.expr, rc, err)
	if err == nil {
		if passed, ok := result.(bool); !ok || !passed {
			err = newError(KindInvalidValue, rc.Class, rc.Setting, fmt.Sprintf("rule %q returned %v", v.expr, result), nil)
		}
	}
	if logger != nil {
		logger.LogResolution(ResolutionEvent{
			Op:       OpValidate,
			Class:    rc.Class,
			OwnerID:  rc.OwnerID,
			Setting:  rc.Setting,
			Engine:   v.engine,
			Expr:     v.expr,
			Duration: time.Since(start),
			Err:      err,
		})
	}
	if err != nil {
		return invalidValue(rc.Class, rc.Setting, err)
	}
	return nil
}

// validate runs every configured validator against value, stopping at the
// first failure.
func (d Declaration) validate(rc RuleContext, logger Logger) error {
	for _, v := range d.validators {
		if err := v.validate(rc, logger); err != nil {
			return err
		}
	}
	return nil
}
