package settings

import (
	"sort"
	"strings"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

// SchemaFormatDescriptors represents flattened setting descriptors.
const SchemaFormatDescriptors SchemaFormat = "descriptors"

// SchemaDocument describes the settings available to a class.
type SchemaDocument struct {
	Class    Class               `json:"class"`
	Format   SchemaFormat        `json:"format"`
	Settings []SettingDescriptor `json:"settings"`
}

// SettingDescriptor summarises one effective declaration.
type SettingDescriptor struct {
	Name     string            `json:"name"`
	Type     Type              `json:"type"`
	Source   Source            `json:"source"`
	Default  any               `json:"default,omitempty"`
	Required bool              `json:"required,omitempty"`
	Allowed  []any             `json:"allowed,omitempty"`
	Rule     string            `json:"rule,omitempty"`
	Fields   []FieldDescriptor `json:"fields,omitempty"`
}

// FieldDescriptor describes a path inside a structured default and its Go type.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Schema describes every setting declared on class followed by the global
// settings the class does not redeclare.
func (r *Registry) Schema(class Class) (SchemaDocument, error) {
	doc := SchemaDocument{
		Class:    class,
		Format:   SchemaFormatDescriptors,
		Settings: []SettingDescriptor{},
	}

	names := r.SettingAccessorNames(class)
	declared := make(map[string]struct{}, len(names))
	for _, name := range names {
		declared[name] = struct{}{}
	}
	for _, name := range r.GlobalNames() {
		if _, ok := declared[name]; !ok {
			names = append(names, name)
		}
	}

	for _, name := range names {
		decl, ok, err := r.Declaration(class, name)
		if err != nil {
			return SchemaDocument{}, err
		}
		if !ok {
			continue
		}
		source := SourceGlobal
		if _, isClass := declared[name]; isClass {
			source = SourceClass
		}
		doc.Settings = append(doc.Settings, describeDeclaration(decl, source))
	}
	return doc, nil
}

func describeDeclaration(decl Declaration, source Source) SettingDescriptor {
	descriptor := SettingDescriptor{
		Name:   decl.Name,
		Type:   decl.Type,
		Source: source,
	}
	if value, ok := decl.DefaultValue(); ok {
		descriptor.Default = value
		if decl.Type == TypePolymorphic {
			descriptor.Fields = deriveFieldDescriptors(value, "")
		}
	}
	for _, v := range decl.validators {
		switch typed := v.(type) {
		case presenceValidator:
			descriptor.Required = true
		case inclusionValidator:
			descriptor.Allowed = append([]any(nil), typed.allowed...)
		case ruleValidator:
			descriptor.Rule = typed.expr
		}
	}
	return descriptor
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{
				Path: prefix,
				Type: "map[string]any",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
