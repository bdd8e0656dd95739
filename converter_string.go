package settings

import (
	"reflect"

	"github.com/spf13/cast"
)

// StringConverter keeps values as text. Scalars are coerced to their string
// form; collections are rejected.
type StringConverter struct{}

func (StringConverter) Type() Type { return TypeString }

func (c StringConverter) Encode(value any) (string, error) {
	decoded, err := c.Decode(value)
	if err != nil {
		return "", err
	}
	return decoded.(string), nil
}

func (StringConverter) Decode(raw any) (any, error) {
	if raw != nil {
		switch reflect.ValueOf(raw).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func, reflect.Chan:
			if _, ok := raw.([]byte); !ok {
				if _, ok := raw.(interface{ String() string }); !ok {
					return nil, conversionError(TypeString, raw, "not a scalar")
				}
			}
		}
	}
	value, err := cast.ToStringE(raw)
	if err != nil {
		return nil, conversionError(TypeString, raw, err.Error())
	}
	return value, nil
}

func (c StringConverter) Valid(value any) bool {
	_, err := c.Decode(value)
	return err == nil
}
