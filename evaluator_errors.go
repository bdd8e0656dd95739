package settings

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a validation rule that failed to compile or run.
// Compile failures at declaration time carry no owner.
type EvaluationError struct {
	Engine  string
	Expr    string
	Class   Class
	OwnerID string
	Setting string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "settings: %s rule", cmp.Or(e.Engine, "unknown"))
	if e.Class != "" {
		fmt.Fprintf(&b, " class=%s", e.Class)
	}
	if e.OwnerID != "" {
		fmt.Fprintf(&b, " owner=%s", e.OwnerID)
	}
	if e.Setting != "" {
		fmt.Fprintf(&b, " setting=%q", e.Setting)
	}
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ruleError attaches the engine, the expression and the owner of rc to err.
// When err already holds an EvaluationError only its blank fields are filled.
func ruleError(engine, expr string, rc RuleContext, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{
			Engine:  engine,
			Expr:    expr,
			Class:   rc.Class,
			OwnerID: rc.OwnerID,
			Setting: rc.Setting,
			Err:     err,
		}
	}
	evalErr.Engine = cmp.Or(evalErr.Engine, engine)
	evalErr.Expr = cmp.Or(evalErr.Expr, expr)
	evalErr.Class = cmp.Or(evalErr.Class, rc.Class)
	evalErr.OwnerID = cmp.Or(evalErr.OwnerID, rc.OwnerID)
	evalErr.Setting = cmp.Or(evalErr.Setting, rc.Setting)
	return err
}

// engineError prefixes failures that belong to an engine rather than to one
// expression. Errors already carrying the settings prefix pass through.
func engineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s engine: %w", engine, err)
}
