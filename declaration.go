package settings

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-settings/internal/layering"
)

// Declaration is the compiled form of a setting's options. Default holds the
// canonical typed value produced by the setting's converter.
type Declaration struct {
	Class      Class
	Name       string
	Type       Type
	Default    any
	HasDefault bool
	Options    map[string]any

	converter  Converter
	validators []validator
}

// Converter returns the converter resolved when the setting was declared.
func (d Declaration) Converter() Converter {
	if d.converter == nil {
		return PolymorphicConverter{}
	}
	return d.converter
}

// DefaultValue returns a deep copy of the canonical default.
func (d Declaration) DefaultValue() (any, bool) {
	if !d.HasDefault {
		return nil, false
	}
	return layering.Clone(d.Default), true
}

func (d Declaration) clone() Declaration {
	out := d
	out.Options = layering.Clone(d.Options)
	out.Default = layering.Clone(d.Default)
	out.validators = append([]validator(nil), d.validators...)
	return out
}

// compileDeclaration normalises options and resolves the converter, default
// and validators for a setting.
func (r *Registry) compileDeclaration(class Class, name string, options map[string]any) (*Declaration, error) {
	normalized, _ := deepStringifyKeys(options).(map[string]any)
	if normalized == nil {
		normalized = map[string]any{}
	}

	typeName := ""
	if raw, ok := normalized[OptionType]; ok && raw != nil {
		typeName = fmt.Sprint(raw)
	}
	converter, err := lookupConverter(r.converters, typeName)
	if err != nil {
		return nil, withSetting(err, class, name)
	}

	decl := &Declaration{
		Class:     class,
		Name:      name,
		Type:      converter.Type(),
		Options:   normalized,
		converter: converter,
	}

	// A nil default only counts for polymorphic settings; typed settings treat
	// it as absent.
	if raw, ok := normalized[OptionDefault]; ok && (raw != nil || converter.Type() == TypePolymorphic) {
		value, err := Canonical(converter, raw)
		if err != nil {
			return nil, invalidValue(class, name, err)
		}
		decl.Default = value
		decl.HasDefault = true
	}

	validators, err := r.compileValidations(decl, normalized[OptionValidations])
	if err != nil {
		return nil, err
	}
	decl.validators = validators
	return decl, nil
}

func withSetting(err error, class Class, name string) error {
	if settingsErr, ok := err.(*Error); ok {
		if settingsErr.Class == "" {
			settingsErr.Class = class
		}
		if settingsErr.Setting == "" {
			settingsErr.Setting = name
		}
		return settingsErr
	}
	return err
}

// deepStringifyKeys converts every map (whatever its key type) into a
// map[string]any, recursing through maps and []any.
func deepStringifyKeys(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = deepStringifyKeys(item)
		}
		return out
	case Options:
		return deepStringifyKeys(map[string]any(typed))
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = deepStringifyKeys(item)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return value
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = deepStringifyKeys(iter.Value().Interface())
	}
	return out
}
