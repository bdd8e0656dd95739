package settings

import (
	"reflect"
	"strings"
)

var (
	truthyStrings = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "on": {}, "1": {}}
	falsyStrings  = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "off": {}, "0": {}}
)

// BooleanConverter stores booleans as "true"/"false".
type BooleanConverter struct{}

func (BooleanConverter) Type() Type { return TypeBoolean }

func (c BooleanConverter) Encode(value any) (string, error) {
	decoded, err := c.Decode(value)
	if err != nil {
		return "", err
	}
	if decoded.(bool) {
		return "true", nil
	}
	return "false", nil
}

func (BooleanConverter) Decode(raw any) (any, error) {
	switch typed := raw.(type) {
	case bool:
		return typed, nil
	case string:
		normalized := strings.ToLower(strings.TrimSpace(typed))
		if _, ok := truthyStrings[normalized]; ok {
			return true, nil
		}
		if _, ok := falsyStrings[normalized]; ok {
			return false, nil
		}
		return nil, conversionError(TypeBoolean, raw, "unrecognised literal")
	case []byte:
		return BooleanConverter{}.Decode(string(typed))
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Int() {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch rv.Uint() {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return nil, conversionError(TypeBoolean, raw, "")
}

func (c BooleanConverter) Valid(value any) bool {
	_, err := c.Decode(value)
	return err == nil
}
