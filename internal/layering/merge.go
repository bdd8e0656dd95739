// Package layering merges declaration option trees and deep-copies the values
// stored in them.
package layering

import "reflect"

// MergeLayers folds option maps ordered from strongest to weakest into a new
// map. Nested map[string]any values merge key by key; any other value is taken
// from the strongest layer that sets it to something non-nil. Slices are never
// concatenated. Inputs are never aliased by the result.
func MergeLayers(layers ...map[string]any) map[string]any {
	var merged map[string]any
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		merged = mergeInto(merged, layers[i])
	}
	return merged
}

// mergeInto returns a copy of weak overlaid with strong.
func mergeInto(weak, strong map[string]any) map[string]any {
	out := make(map[string]any, len(weak)+len(strong))
	for key, value := range weak {
		out[key] = Clone(value)
	}
	for key, value := range strong {
		if value == nil {
			if _, ok := out[key]; ok {
				continue
			}
			out[key] = nil
			continue
		}
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := out[key].(map[string]any)
		if strongIsMap && weakIsMap {
			out[key] = mergeInto(weakMap, strongMap)
			continue
		}
		out[key] = Clone(value)
	}
	return out
}

// Clone returns a deep copy of value. Option trees (map[string]any, []any)
// take a fast path; other maps, slices and pointers are copied through
// reflection. Structs are copied by value.
func Clone[T any](value T) T {
	switch typed := any(value).(type) {
	case nil:
		return value
	case map[string]any:
		return any(cloneTree(typed)).(T)
	case []any:
		return any(cloneList(typed)).(T)
	case string, bool, int, int64, float64:
		return value
	}
	cloned := cloneReflect(reflect.ValueOf(value))
	if out, ok := cloned.Interface().(T); ok {
		return out
	}
	return value
}

func cloneTree(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = Clone(value)
	}
	return out
}

func cloneList(src []any) []any {
	if src == nil {
		return nil
	}
	out := make([]any, len(src))
	for i, value := range src {
		out[i] = Clone(value)
	}
	return out
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneElem(v.Elem()))
		return out
	default:
		return v
	}
}

// cloneElem copies a map entry, slice element or pointee, going back through
// Clone for interface values so option trees keep the fast path.
func cloneElem(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Interface {
		return cloneReflect(v)
	}
	if v.IsNil() {
		return reflect.Zero(v.Type())
	}
	out := reflect.New(v.Type()).Elem()
	out.Set(reflect.ValueOf(Clone(v.Interface())))
	return out
}
