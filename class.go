package settings

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-settings/pkg/store"
)

// Class identifies the owning type of a group of settings.
type Class string

func (c Class) String() string {
	return string(c)
}

// Classifier lets a record name its own settings class instead of relying on
// its Go type name.
type Classifier interface {
	SettingClass() string
}

// Record is a value that owns persisted settings.
type Record interface {
	SettingsID() string
}

// ClassOf normalises a record, a reflect.Type, a Class or a string into a
// class identity. Pointer indirection is ignored so *User and User share one
// class.
//
// Types are named without their package, so billing.Account and crm.Account
// both map to "Account" and share stored settings. Records that must stay
// apart implement Classifier, or callers use QualifiedClassOf.
func ClassOf(v any) Class {
	return classOf(v, false)
}

// QualifiedClassOf is ClassOf with named types prefixed by their import path,
// e.g. "github.com/acme/billing.Account". Classifier, Class and string values
// are returned as they are.
func QualifiedClassOf(v any) Class {
	return classOf(v, true)
}

func classOf(v any, qualified bool) Class {
	switch typed := v.(type) {
	case nil:
		return ""
	case Class:
		return typed
	case string:
		return Class(strings.TrimSpace(typed))
	case Classifier:
		return Class(strings.TrimSpace(typed.SettingClass()))
	case reflect.Type:
		return classOfType(typed, qualified)
	default:
		return classOfType(reflect.TypeOf(v), qualified)
	}
}

func classOfType(t reflect.Type, qualified bool) Class {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t.Name() == "":
		return Class(t.String())
	case qualified && t.PkgPath() != "":
		return Class(t.PkgPath() + "." + t.Name())
	default:
		return Class(t.Name())
	}
}

// OwnerOf builds the store owner for a record.
func OwnerOf(record Record) store.Owner {
	if record == nil {
		return store.Owner{}
	}
	return store.Owner{
		Class: string(ClassOf(record)),
		ID:    strings.TrimSpace(record.SettingsID()),
	}
}
