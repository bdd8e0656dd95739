package settings

// LookupStatus is the outcome of a nested lookup.
type LookupStatus int

const (
	LookupAbsent LookupStatus = iota
	LookupFound
)

// LookupResult reports the value found by LookupNested or, when absent, the
// depth at which the walk stopped.
type LookupResult struct {
	Value  any
	Status LookupStatus
	Depth  int
	Keys   []string
}

// Found reports whether every key resolved.
func (r LookupResult) Found() bool {
	return r.Status == LookupFound
}

// Err converts absence into a *NestedHashLookupError. Callers that treat
// absence as a normal outcome check Found instead.
func (r LookupResult) Err() error {
	if r.Status == LookupFound {
		return nil
	}
	return &NestedHashLookupError{Keys: append([]string(nil), r.Keys...), Depth: r.Depth}
}

// LookupNested walks root level by level using keys. An intermediate value
// that is not a map[string]any counts as absent at that depth.
func LookupNested(root map[string]any, keys ...string) LookupResult {
	result := LookupResult{Keys: keys}
	if len(keys) == 0 {
		result.Value = root
		result.Status = LookupFound
		return result
	}

	current := root
	for depth, key := range keys {
		value, ok := current[key]
		if !ok {
			result.Depth = depth
			return result
		}
		if depth == len(keys)-1 {
			result.Value = value
			result.Status = LookupFound
			result.Depth = depth
			return result
		}
		next, ok := value.(map[string]any)
		if !ok {
			result.Depth = depth + 1
			return result
		}
		current = next
	}
	return result
}

// EnsureNested creates the missing intermediate maps for keys and returns the
// innermost one. Existing non-map values along the path are replaced.
func EnsureNested(root map[string]any, keys ...string) map[string]any {
	current := root
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	return current
}
