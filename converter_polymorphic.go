package settings

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolymorphicConverter stores untyped values as YAML. Canonical values are nil,
// bool, int, float64, string, []any and map[string]any.
type PolymorphicConverter struct{}

func (PolymorphicConverter) Type() Type { return TypePolymorphic }

// Encode writes every string and key double quoted so line breaks, merge keys
// and scalar look-alikes survive a Decode unchanged. Values that would not come
// back equal are rejected.
func (c PolymorphicConverter) Encode(value any) (string, error) {
	normalized, err := normalizePolymorphic(value)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(polymorphicNode(normalized))
	if err != nil {
		return "", conversionError(TypePolymorphic, value, err.Error())
	}
	back, err := c.Decode(string(out))
	if err != nil || !reflect.DeepEqual(back, normalized) {
		return "", conversionError(TypePolymorphic, value, "value does not survive a YAML round trip")
	}
	return string(out), nil
}

// Decode parses raw YAML text. Non-string inputs are treated as already typed
// and normalised, which is how declared defaults are canonicalised.
func (PolymorphicConverter) Decode(raw any) (any, error) {
	text, ok := raw.(string)
	if !ok {
		if b, isBytes := raw.([]byte); isBytes {
			text, ok = string(b), true
		}
	}
	if !ok {
		return normalizePolymorphic(raw)
	}
	var out any
	if err := yaml.Unmarshal([]byte(text), &out); err != nil {
		return nil, conversionError(TypePolymorphic, raw, err.Error())
	}
	return normalizePolymorphic(out)
}

// Canonical normalises an in-memory value without parsing strings.
func (PolymorphicConverter) Canonical(value any) (any, error) {
	return normalizePolymorphic(value)
}

func (c PolymorphicConverter) Valid(value any) bool {
	_, err := c.Encode(value)
	return err == nil
}

func normalizePolymorphic(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, string, int:
		return typed, nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, conversionError(TypePolymorphic, value, "non-finite float")
		}
		return typed, nil
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			normalized, err := normalizePolymorphic(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			normalized, err := normalizePolymorphic(item)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return nil, conversionError(TypePolymorphic, value, "integer out of range")
		}
		return int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > math.MaxInt {
			return nil, conversionError(TypePolymorphic, value, "integer out of range")
		}
		return int(n), nil
	case reflect.Float32:
		return normalizePolymorphic(rv.Float())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizePolymorphic(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			normalized, err := normalizePolymorphic(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := mapKeyString(iter.Key())
			if !ok {
				return nil, conversionError(TypePolymorphic, value, "map keys must be strings")
			}
			normalized, err := normalizePolymorphic(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	}
	return nil, conversionError(TypePolymorphic, value, "unsupported kind "+rv.Kind().String())
}

func mapKeyString(key reflect.Value) (string, bool) {
	if key.Kind() == reflect.Interface {
		if key.IsNil() {
			return "", false
		}
		key = key.Elem()
	}
	if key.Kind() == reflect.String {
		return key.String(), true
	}
	return "", false
}

// polymorphicNode builds the document by hand so scalar styles and tags are
// fixed. Whole floats keep a fractional part so they do not come back as ints.
func polymorphicNode(value any) *yaml.Node {
	switch typed := value.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(typed)}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(typed)}
	case float64:
		text := strconv.FormatFloat(typed, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
	case string:
		return quotedNode(typed)
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typed {
			node.Content = append(node.Content, polymorphicNode(item))
		}
		return node
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			node.Content = append(node.Content, quotedNode(key), polymorphicNode(typed[key]))
		}
		return node
	}
	// normalizePolymorphic only yields the kinds above; anything else fails
	// the round trip check in Encode.
	return quotedNode(fmt.Sprint(value))
}

func quotedNode(text string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: text}
}
