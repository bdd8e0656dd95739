//go:build !js_eval

package settings

const jsEngineBuilt = false

// NewJSEvaluator returns nil in builds without the js_eval tag, which
// NewEvaluator reports as ErrNoEvaluator.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}
