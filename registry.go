package settings

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-settings/internal/layering"
)

// Registry holds the setting declarations of every owning class. It is safe
// for concurrent use; declarations may be added after readers start.
type Registry struct {
	mu sync.RWMutex

	// classSettings maps class -> setting name -> *Declaration.
	classSettings map[string]any
	accessorNames map[Class][]string
	globals       map[string]*Declaration
	globalNames   []string
	effective     map[effectiveKey]*Declaration

	converters   map[Type]Converter
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
}

type effectiveKey struct {
	class Class
	name  string
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := applyRegistryOptions(opts)
	return &Registry{
		classSettings: map[string]any{},
		accessorNames: map[Class][]string{},
		globals:       map[string]*Declaration{},
		effective:     map[effectiveKey]*Declaration{},
		converters:    cfg.converters,
		evaluator:     cfg.evaluator,
		programCache:  cfg.programCache,
		functions:     cfg.functions,
	}
}

// Declare records the options of setting name on class. Blank names fail with
// ErrInvalidName and empty options with ErrMissingDeclarationOptions. The
// converter, default and validations are resolved immediately, together with
// the merge over any global declaration of name, so misconfigured classes fail
// at declaration time and leave the registry unchanged.
func (r *Registry) Declare(class Class, name string, options Options) error {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(string(class)) == "" || name == "" {
		return newError(KindInvalidName, class, name, "class and setting name are required", nil)
	}
	if len(options) == 0 {
		return newError(KindMissingDeclarationOptions, class, name, "", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	decl, err := r.compileDeclaration(class, name, options)
	if err != nil {
		return err
	}
	if global, ok := r.globals[name]; ok {
		if _, err := r.mergeLocked(class, name, decl, global); err != nil {
			return err
		}
	}
	EnsureNested(r.classSettings, string(class))[name] = decl
	if !slices.Contains(r.accessorNames[class], name) {
		r.accessorNames[class] = append(r.accessorNames[class], name)
	}
	clear(r.effective)
	return nil
}

// MustDeclare is Declare that panics on error.
func (r *Registry) MustDeclare(class Class, name string, options Options) {
	if err := r.Declare(class, name, options); err != nil {
		panic(err)
	}
}

// DeclareGlobal records a setting known to every class. Unlike Declare, empty
// options are accepted and yield a polymorphic setting without default. Every
// class that already declares name must still merge cleanly over it.
func (r *Registry) DeclareGlobal(name string, options Options) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newError(KindInvalidName, "", name, "setting name is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	decl, err := r.compileDeclaration("", name, options)
	if err != nil {
		return err
	}
	for class := range r.accessorNames {
		classDecl, ok := r.classDeclLocked(class, name)
		if !ok {
			continue
		}
		if _, err := r.mergeLocked(class, name, classDecl, decl); err != nil {
			return err
		}
	}
	if _, exists := r.globals[name]; !exists {
		r.globalNames = append(r.globalNames, name)
	}
	r.globals[name] = decl
	clear(r.effective)
	return nil
}

// SettingData returns a copy of the normalised options declared for name on
// class, or an empty map.
func (r *Registry) SettingData(class Class, name string) map[string]any {
	decl, ok := r.ClassSetting(class, name)
	if !ok {
		return map[string]any{}
	}
	return decl.Options
}

// SettingValueType returns the declared type of name on class, defaulting to
// polymorphic.
func (r *Registry) SettingValueType(class Class, name string) Type {
	decl, ok := r.ClassSetting(class, name)
	if !ok || decl.Type == "" {
		return TypePolymorphic
	}
	return decl.Type
}

// Converter resolves a converter by type name.
func (r *Registry) Converter(name Type) (Converter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookupConverter(r.converters, string(name))
}

// ClassSetting returns the class-level declaration of name. Absence at either
// level is reported as false rather than an error.
func (r *Registry) ClassSetting(class Class, name string) (*Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classSettingLocked(class, name)
}

func (r *Registry) classSettingLocked(class Class, name string) (*Declaration, bool) {
	decl, ok := r.classDeclLocked(class, name)
	if !ok {
		return nil, false
	}
	cloned := decl.clone()
	return &cloned, true
}

// GlobalSetting returns the global declaration of name.
func (r *Registry) GlobalSetting(name string) (*Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decl, ok := r.globals[name]
	if !ok {
		return nil, false
	}
	cloned := decl.clone()
	return &cloned, true
}

// Declaration returns the effective declaration of name for class: class
// options layered over global options. The bool is false when neither level
// declares the setting.
func (r *Registry) Declaration(class Class, name string) (Declaration, bool, error) {
	key := effectiveKey{class: class, name: name}

	r.mu.RLock()
	if decl, ok := r.effective[key]; ok {
		r.mu.RUnlock()
		return decl.clone(), true, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if decl, ok := r.effective[key]; ok {
		return decl.clone(), true, nil
	}

	classDecl, _ := r.classDeclLocked(class, name)
	globalDecl := r.globals[name]

	var decl *Declaration
	switch {
	case classDecl == nil && globalDecl == nil:
		return Declaration{}, false, nil
	case globalDecl == nil:
		decl = classDecl
	case classDecl == nil:
		cloned := globalDecl.clone()
		cloned.Class = class
		decl = &cloned
	default:
		compiled, err := r.mergeLocked(class, name, classDecl, globalDecl)
		if err != nil {
			return Declaration{}, false, err
		}
		decl = compiled
	}
	r.effective[key] = decl
	return decl.clone(), true, nil
}

func (r *Registry) classDeclLocked(class Class, name string) (*Declaration, bool) {
	result := LookupNested(r.classSettings, string(class), name)
	if !result.Found() {
		return nil, false
	}
	decl, ok := result.Value.(*Declaration)
	return decl, ok && decl != nil
}

// mergeLocked layers class options over global options and compiles the result.
func (r *Registry) mergeLocked(class Class, name string, classDecl, globalDecl *Declaration) (*Declaration, error) {
	merged := layering.MergeLayers(classDecl.Options, globalDecl.Options)
	return r.compileDeclaration(class, name, merged)
}

// SettingAccessorNames returns the setting names declared on class in
// declaration order.
func (r *Registry) SettingAccessorNames(class Class) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.accessorNames[class]
	if len(names) == 0 {
		return []string{}
	}
	return append([]string(nil), names...)
}

// GlobalNames returns the globally declared setting names in declaration order.
func (r *Registry) GlobalNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.globalNames...)
}

// JSONSettingNames filters the accessor names of class. A non-nil Only is
// checked first and wins over Except. The result always follows declaration
// order, never the order of the selector.
func (r *Registry) JSONSettingNames(class Class, opts ExportOptions) []string {
	names := r.SettingAccessorNames(class)
	switch {
	case opts.Only != nil:
		keep := nameSet(opts.Only)
		return slices.DeleteFunc(names, func(name string) bool {
			_, ok := keep[name]
			return !ok
		})
	case opts.Except != nil:
		drop := nameSet(opts.Except)
		return slices.DeleteFunc(names, func(name string) bool {
			_, ok := drop[name]
			return ok
		})
	default:
		return names
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.TrimSpace(name)] = struct{}{}
	}
	return set
}

// Classes lists every class with at least one declaration, sorted by name.
func (r *Registry) Classes() []Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	classes := make([]Class, 0, len(r.accessorNames))
	for class := range r.accessorNames {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("settings.Registry{classes=%d globals=%d}", len(r.accessorNames), len(r.globals))
}
