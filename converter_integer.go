package settings

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// IntegerConverter stores whole numbers in base-10 text.
type IntegerConverter struct{}

func (IntegerConverter) Type() Type { return TypeInteger }

func (c IntegerConverter) Encode(value any) (string, error) {
	decoded, err := c.Decode(value)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(decoded.(int)), nil
}

func (IntegerConverter) Decode(raw any) (any, error) {
	switch typed := raw.(type) {
	case string:
		return parseInteger(typed)
	case []byte:
		return parseInteger(string(typed))
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return nil, conversionError(TypeInteger, raw, "out of range")
		}
		return int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > math.MaxInt {
			return nil, conversionError(TypeInteger, raw, "out of range")
		}
		return int(n), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, conversionError(TypeInteger, raw, "not a whole number")
		}
		if f < math.MinInt || f >= math.MaxInt {
			return nil, conversionError(TypeInteger, raw, "out of range")
		}
		return int(f), nil
	}
	return nil, conversionError(TypeInteger, raw, "")
}

func (c IntegerConverter) Valid(value any) bool {
	_, err := c.Decode(value)
	return err == nil
}

func parseInteger(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, conversionError(TypeInteger, raw, "empty")
	}
	n, err := strconv.ParseInt(trimmed, 10, strconv.IntSize)
	if err != nil {
		return nil, conversionError(TypeInteger, raw, "not a base-10 integer")
	}
	return int(n), nil
}
