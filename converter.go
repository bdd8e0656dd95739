package settings

import (
	"fmt"
	"strings"
)

// Converter translates between the raw (stored) and typed (in-memory)
// representation of a setting value.
//
// Implementations must satisfy Decode(Encode(v)) == v for every canonical value
// v they accept, and Valid must reject exactly the inputs Decode rejects.
type Converter interface {
	Type() Type
	Encode(value any) (string, error)
	Decode(raw any) (any, error)
	Valid(value any) bool
}

// Canonicalizer is implemented by converters whose Decode reads strings as
// encoded text. Canonical normalises an in-memory value instead, so a string
// assigned to a polymorphic setting stays a string.
type Canonicalizer interface {
	Canonical(value any) (any, error)
}

// Canonical converts an application value into the canonical typed form of
// conv without treating strings as encoded text.
func Canonical(conv Converter, value any) (any, error) {
	if c, ok := conv.(Canonicalizer); ok {
		return c.Canonical(value)
	}
	return conv.Decode(value)
}

// DefaultConverters returns the built-in converter table keyed by type name.
// The returned map is a fresh copy.
func DefaultConverters() map[Type]Converter {
	return map[Type]Converter{
		TypeBoolean:     BooleanConverter{},
		TypeInteger:     IntegerConverter{},
		TypeString:      StringConverter{},
		TypePolymorphic: PolymorphicConverter{},
	}
}

// LookupConverter resolves a type name against the built-in converters.
func LookupConverter(name string) (Converter, error) {
	return lookupConverter(DefaultConverters(), name)
}

func lookupConverter(table map[Type]Converter, name string) (Converter, error) {
	key := Type(strings.ToLower(strings.TrimSpace(name)))
	if key == "" {
		key = TypePolymorphic
	}
	converter, ok := table[key]
	if !ok || converter == nil {
		return nil, newError(KindUnknownConverterType, "", "", fmt.Sprintf("type %q", name), nil)
	}
	return converter, nil
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func conversionError(t Type, value any, reason string) error {
	detail := fmt.Sprintf("%s cannot represent %s %v", t, typeName(value), value)
	if reason != "" {
		detail += " (" + reason + ")"
	}
	return newError(KindInvalidValue, "", "", detail, nil)
}
