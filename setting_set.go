package settings

import (
	"context"
	"slices"

	"github.com/goliatone/go-settings/internal/layering"
	"github.com/goliatone/go-settings/pkg/store"
)

// SettingSet buffers assignments for one owner until Save. It is meant for a
// single edit of a record and is not safe for concurrent use.
type SettingSet struct {
	accessors *Accessors
	owner     store.Owner
	order     []string
	pending   map[string]any
}

// Pending returns an empty SettingSet for owner. The owner may not exist in
// the store yet; nothing is written until Save.
func (a *Accessors) Pending(owner store.Owner) *SettingSet {
	return &SettingSet{
		accessors: a,
		owner:     owner,
		pending:   map[string]any{},
	}
}

// Owner returns the owner the set writes to.
func (s *SettingSet) Owner() store.Owner {
	return s.owner
}

// Assign validates value against the setting's declaration and buffers its
// canonical form. Reassigning a name keeps its original position.
func (s *SettingSet) Assign(name string, value any) error {
	decl, _, err := s.accessors.registry.Declaration(Class(s.owner.Class), name)
	if err != nil {
		return err
	}
	typed, _, err := s.accessors.prepare(decl, s.owner, name, value)
	if err != nil {
		return err
	}
	if _, ok := s.pending[name]; !ok {
		s.order = append(s.order, name)
	}
	s.pending[name] = typed
	return nil
}

// Get returns the pending value of name or falls back to Read.
func (s *SettingSet) Get(ctx context.Context, name string) (any, error) {
	if value, ok := s.pending[name]; ok {
		return layering.Clone(value), nil
	}
	return s.accessors.Read(ctx, s.owner, name)
}

// Changed reports whether name has a pending assignment.
func (s *SettingSet) Changed(name string) bool {
	_, ok := s.pending[name]
	return ok
}

// Was returns the persisted value of name, ignoring pending assignments.
func (s *SettingSet) Was(ctx context.Context, name string) (any, error) {
	return s.accessors.Read(ctx, s.owner, name)
}

// Names returns the pending setting names in assignment order.
func (s *SettingSet) Names() []string {
	return slices.Clone(s.order)
}

// Changes returns a copy of the pending assignments.
func (s *SettingSet) Changes() map[string]any {
	out := make(map[string]any, len(s.pending))
	for name, value := range s.pending {
		out[name] = layering.Clone(value)
	}
	return out
}

// Save writes pending values in assignment order. It stops at the first
// failure; entries already written are cleared and the rest stay pending.
func (s *SettingSet) Save(ctx context.Context) error {
	for len(s.order) > 0 {
		name := s.order[0]
		if err := s.accessors.Write(ctx, s.owner, name, s.pending[name]); err != nil {
			return err
		}
		delete(s.pending, name)
		s.order = s.order[1:]
	}
	return nil
}

// Discard drops every pending assignment.
func (s *SettingSet) Discard() {
	s.order = nil
	clear(s.pending)
}
