package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/store/cached"
	"github.com/goliatone/go-settings/pkg/store/sqlite"
)

// Runtime bundles a registry loaded from the declarations file with accessors
// over the SQLite store fronted by the read-through cache.
type Runtime struct {
	Registry  *settings.Registry
	Accessors *settings.Accessors
	Store     *sqlite.Store
	Cache     *cached.Store
}

// RegistryOptions builds the rule engine named by RuleEngine with a program
// cache honouring CacheTTL.
func (e Env) RegistryOptions() ([]settings.RegistryOption, error) {
	programs := settings.NewMemoryProgramCache(e.CacheTTL)
	evaluator, err := settings.NewEvaluator(e.RuleEngine, programs, nil)
	if err != nil {
		return nil, err
	}
	return []settings.RegistryOption{
		settings.WithProgramCache(programs),
		settings.WithEvaluator(evaluator),
	}, nil
}

// Open builds a Runtime from e. A missing declarations file leaves the
// registry empty.
func Open(ctx context.Context, e Env, opts ...settings.Option) (*Runtime, error) {
	registryOpts, err := e.RegistryOptions()
	if err != nil {
		return nil, err
	}
	registry := settings.NewRegistry(registryOpts...)

	decls, err := LoadDeclarations(e.File)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := decls.Apply(registry); err != nil {
			return nil, err
		}
	}

	db, err := sqlite.Open(ctx, e.DB)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	cache := cached.New(db, e.CacheTTL)
	if e.ActivityChannel != "" {
		opts = append(opts, settings.WithActivityConfig(activity.Config{Enabled: true, Channel: e.ActivityChannel}))
	}
	return &Runtime{
		Registry:  registry,
		Accessors: settings.NewAccessors(registry, cache, opts...),
		Store:     db,
		Cache:     cache,
	}, nil
}

// Close releases the SQLite handle.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return r.Store.Close()
}
