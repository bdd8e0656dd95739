package settings

// jsEvaluator holds what the goja engine shares across rules. The engine
// itself only exists in binaries built with the js_eval tag.
type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSEvaluatorOption configures the JavaScript rule engine. Options are
// accepted, and ignored, in builds without the js_eval tag.
type JSEvaluatorOption func(*jsEvaluator)

// JSWithProgramCache shares compiled goja programs through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(e *jsEvaluator) {
		e.cache = cache
	}
}

// JSWithFunctionRegistry exposes the functions of registry to scripts, both as
// globals and through call("name", args...). The registry is copied.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(e *jsEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}
