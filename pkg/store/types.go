package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrOwnerRequired = errors.New("store: owner class and id are required")

var ErrKeyRequired = errors.New("store: setting key is required")

// Owner identifies the record a setting value belongs to.
type Owner struct {
	Class string
	ID    string
}

// Store reads and writes raw setting values for one owner.
type Store interface {
	Get(ctx context.Context, owner Owner, key string) (raw string, ok bool, err error)
	Set(ctx context.Context, owner Owner, key, raw string) error
	All(ctx context.Context, owner Owner) (map[string]string, error)
	Delete(ctx context.Context, owner Owner, key string) error
}

// Identifier returns the canonical `class/id` storage key for the owner.
func (o Owner) Identifier() (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", strings.TrimSpace(o.Class), strings.TrimSpace(o.ID)), nil
}

// Validate reports whether both the class and the id are present.
func (o Owner) Validate() error {
	if strings.TrimSpace(o.Class) == "" || strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: got class=%q id=%q", ErrOwnerRequired, o.Class, o.ID)
	}
	return nil
}

func (o Owner) String() string {
	return fmt.Sprintf("%s#%s", o.Class, o.ID)
}

// ValidateKey rejects blank setting keys.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	return nil
}
