package settings

import (
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	converters   map[Type]Converter
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
}

func applyRegistryOptions(opts []RegistryOption) registryConfig {
	cfg := registryConfig{converters: DefaultConverters()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithConverter adds or replaces the converter registered for its type name.
func WithConverter(converter Converter) RegistryOption {
	return func(cfg *registryConfig) {
		if converter == nil {
			return
		}
		cfg.converters[converter.Type()] = converter
	}
}

// WithEvaluator configures the rule engine used to compile validation rules.
func WithEvaluator(e Evaluator) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes the functions of registry to validation rules.
func WithFunctionRegistry(registry *FunctionRegistry) RegistryOption {
	return func(cfg *registryConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for validation rules. Duplicate
// names keep the first registration.
func WithCustomFunction(name string, fn Function) RegistryOption {
	return func(cfg *registryConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// Option configures Accessors.
type Option func(*accessorsConfig)

type accessorsConfig struct {
	logger        Logger
	activityHooks activity.Hooks
	activityCfg   activity.Config
	activitySet   bool
	clock         func() time.Time
}

func applyOptions(opts []Option) accessorsConfig {
	cfg := accessorsConfig{
		logger: noopLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger attaches a resolution logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *accessorsConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks notified on writes and resets.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *accessorsConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the activity emitter configuration. Without it
// emission is enabled whenever hooks are present.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *accessorsConfig) {
		cfg.activityCfg = activityCfg
		cfg.activitySet = true
	}
}

// WithClock replaces the time source used for rule bindings and events.
func WithClock(clock func() time.Time) Option {
	return func(cfg *accessorsConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
