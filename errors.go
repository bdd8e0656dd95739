package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingDeclarationOptions reports a class-level declaration without options.
	ErrMissingDeclarationOptions = errors.New("settings: declaration is lacking options")
	// ErrUnknownConverterType reports a declared type with no registered converter.
	ErrUnknownConverterType = errors.New("settings: unknown converter type")
	// ErrInvalidValue reports a value rejected by a converter or a validation rule.
	ErrInvalidValue = errors.New("settings: invalid value")
	// ErrSettingNotFound reports a known setting with neither a stored value nor a default.
	ErrSettingNotFound = errors.New("settings: setting not found")
	// ErrUnknownSetting reports a setting that was never declared nor stored.
	ErrUnknownSetting = errors.New("settings: unknown setting")
	// ErrInvalidName reports a blank class or setting name.
	ErrInvalidName = errors.New("settings: invalid name")
	// ErrNestedHashLookup reports a nested lookup that hit a missing key.
	ErrNestedHashLookup = errors.New("settings: nested key not found")
)

// ErrorKind classifies failures raised by the settings core.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingDeclarationOptions
	KindUnknownConverterType
	KindInvalidValue
	KindSettingNotFound
	KindUnknownSetting
	KindInvalidName
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingDeclarationOptions:
		return "missing_declaration_options"
	case KindUnknownConverterType:
		return "unknown_converter_type"
	case KindInvalidValue:
		return "invalid_value"
	case KindSettingNotFound:
		return "setting_not_found"
	case KindUnknownSetting:
		return "unknown_setting"
	case KindInvalidName:
		return "invalid_name"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingDeclarationOptions:
		return ErrMissingDeclarationOptions
	case KindUnknownConverterType:
		return ErrUnknownConverterType
	case KindInvalidValue:
		return ErrInvalidValue
	case KindSettingNotFound:
		return ErrSettingNotFound
	case KindUnknownSetting:
		return ErrUnknownSetting
	case KindInvalidName:
		return ErrInvalidName
	default:
		return nil
	}
}

// Error carries the class and setting involved in a failure. It matches the
// sentinel of its Kind through errors.Is.
type Error struct {
	Kind    ErrorKind
	Class   Class
	Setting string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		b.WriteString(sentinel.Error())
	} else {
		b.WriteString("settings: error")
	}
	if e.Class != "" {
		fmt.Fprintf(&b, " class=%s", e.Class)
	}
	if e.Setting != "" {
		fmt.Fprintf(&b, " setting=%q", e.Setting)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for the error kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

func newError(kind ErrorKind, class Class, setting, detail string, err error) *Error {
	return &Error{
		Kind:    kind,
		Class:   class,
		Setting: setting,
		Detail:  detail,
		Err:     err,
	}
}

func invalidValue(class Class, setting string, err error) error {
	var settingsErr *Error
	if errors.As(err, &settingsErr) && settingsErr.Kind == KindInvalidValue {
		if settingsErr.Class == "" {
			settingsErr.Class = class
		}
		if settingsErr.Setting == "" {
			settingsErr.Setting = setting
		}
		return settingsErr
	}
	return newError(KindInvalidValue, class, setting, "", err)
}

// KindOf extracts the ErrorKind of err, returning KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var settingsErr *Error
	if errors.As(err, &settingsErr) {
		return settingsErr.Kind
	}
	return KindUnknown
}

// NestedHashLookupError identifies the key at which a nested lookup stopped.
type NestedHashLookupError struct {
	Keys  []string
	Depth int
}

func (e *NestedHashLookupError) Error() string {
	if e == nil {
		return "<nil>"
	}
	missing := ""
	if e.Depth >= 0 && e.Depth < len(e.Keys) {
		missing = e.Keys[e.Depth]
	}
	return fmt.Sprintf("%s: %q in path %s", ErrNestedHashLookup.Error(), missing, strings.Join(e.Keys, "."))
}

func (e *NestedHashLookupError) Is(target error) bool {
	return target == ErrNestedHashLookup
}
