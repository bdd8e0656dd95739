package settings

import (
	"time"
)

// Type names the converter used for a setting value.
type Type string

const (
	TypeBoolean     Type = "boolean"
	TypeInteger     Type = "integer"
	TypeString      Type = "string"
	TypePolymorphic Type = "polymorphic"
)

func (t Type) String() string {
	return string(t)
}

// Reserved option keys interpreted by the registry. Every other key is passed
// through untouched.
const (
	OptionType        = "type"
	OptionDefault     = "default"
	OptionValidations = "validations"
)

// Options holds the declaration options of a setting (type, default,
// validations and arbitrary metadata).
type Options map[string]any

// ExportOptions selects which declared setting names are exported. Only takes
// precedence over Except when both are set.
type ExportOptions struct {
	Only   []string
	Except []string
}

// RuleContext carries the inputs bound when a validation rule is evaluated.
type RuleContext struct {
	Value   any
	Setting string
	Class   Class
	OwnerID string
	Options map[string]any
	Now     *time.Time
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Options == nil {
		ctx.Options = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) binding() map[string]any {
	return map[string]any{
		"value":    ctx.Value,
		"setting":  ctx.Setting,
		"class":    string(ctx.Class),
		"owner_id": ctx.OwnerID,
		"options":  ctx.Options,
		"now":      ctx.timestamp(),
	}
}

// Evaluator executes validation rule expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable rule program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}
