// Package config loads settings declarations from a settings.yml file and
// runtime configuration from the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	settings "github.com/goliatone/go-settings"
)

// Entry is one declared setting with its raw options.
type Entry struct {
	Name    string
	Options settings.Options
}

// ClassEntries holds the settings declared for one class in file order.
type ClassEntries struct {
	Class   settings.Class
	Entries []Entry
}

// Declarations is the parsed content of a settings.yml file. Order follows
// the file so accessor names keep declaration order.
type Declarations struct {
	Global  []Entry
	Classes []ClassEntries
}

// ParseDeclarations decodes a settings.yml document with optional top-level
// `global:` and `classes:` mappings.
func ParseDeclarations(data []byte) (*Declarations, error) {
	out := &Declarations{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing declarations: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing declarations: line %d: top level must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "global":
			entries, err := decodeEntries(value)
			if err != nil {
				return nil, fmt.Errorf("parsing declarations: global: %w", err)
			}
			out.Global = entries
		case "classes":
			if value.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("parsing declarations: line %d: classes must be a mapping", value.Line)
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				class := value.Content[j].Value
				entries, err := decodeEntries(value.Content[j+1])
				if err != nil {
					return nil, fmt.Errorf("parsing declarations: class %s: %w", class, err)
				}
				out.Classes = append(out.Classes, ClassEntries{Class: settings.Class(class), Entries: entries})
			}
		default:
			return nil, fmt.Errorf("parsing declarations: line %d: unknown section %q", key.Line, key.Value)
		}
	}
	return out, nil
}

func decodeEntries(node *yaml.Node) ([]Entry, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of setting names", node.Line)
	}
	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var options map[string]any
		if err := node.Content[i+1].Decode(&options); err != nil {
			return nil, fmt.Errorf("setting %s: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Options: settings.Options(options)})
	}
	return entries, nil
}

// LoadDeclarations reads and parses the file at path.
func LoadDeclarations(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading declarations: %w", err)
	}
	return ParseDeclarations(data)
}

// Apply declares every global and class setting on registry. It stops at
// the first failing declaration.
func (d *Declarations) Apply(registry *settings.Registry) error {
	if d == nil || registry == nil {
		return nil
	}
	for _, entry := range d.Global {
		if err := registry.DeclareGlobal(entry.Name, entry.Options); err != nil {
			return fmt.Errorf("declaring global %s: %w", entry.Name, err)
		}
	}
	for _, class := range d.Classes {
		for _, entry := range class.Entries {
			if err := registry.Declare(class.Class, entry.Name, entry.Options); err != nil {
				return fmt.Errorf("declaring %s.%s: %w", class.Class, entry.Name, err)
			}
		}
	}
	return nil
}

// Starter is the settings.yml written by `settingsctl init`.
const Starter = `# Settings known to every class.
global:
  locale:
    default: en

# Settings declared per class. type is one of boolean, integer, string or
# polymorphic (the default).
classes:
  User:
    theme:
      type: string
      default: light
      validations:
        inclusion: [light, dark]
    notifications:
      type: boolean
      default: true
    page_size:
      type: integer
      default: 25
      validations:
        rule: value >= 10 && value <= 100
`

// WriteStarter writes Starter to path unless a file already exists there.
// The file is written to a temp file first and renamed into place.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("writing starter: %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("writing starter: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".settings.yml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.WriteString(Starter); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
