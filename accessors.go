package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-settings/internal/layering"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/store"
)

// OpEmit reports an activity hook failure after a committed write or reset.
const OpEmit = "emit"

// Accessors resolves, writes and exports settings for owners, consulting the
// registry for declarations and the store for raw values.
type Accessors struct {
	registry *Registry
	store    store.Store
	logger   Logger
	emitter  *activity.Emitter
	clock    func() time.Time
}

// NewAccessors wires registry and st together. A nil registry or store is
// replaced with an empty registry or an in-memory store.
func NewAccessors(registry *Registry, st store.Store, opts ...Option) *Accessors {
	cfg := applyOptions(opts)
	if registry == nil {
		registry = NewRegistry()
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	activityCfg := cfg.activityCfg
	if !cfg.activitySet {
		activityCfg = activity.Config{Enabled: true}
	}
	return &Accessors{
		registry: registry,
		store:    st,
		logger:   cfg.logger,
		emitter:  activity.NewEmitter(cfg.activityHooks, activityCfg),
		clock:    cfg.clock,
	}
}

// Registry returns the registry backing the accessors.
func (a *Accessors) Registry() *Registry {
	return a.registry
}

// Read resolves name for owner: the stored raw value decoded by the setting's
// converter, then the class default, then the global default. Known settings
// without a value fail with ErrSettingNotFound, settings that were never
// declared nor stored fail with ErrUnknownSetting.
func (a *Accessors) Read(ctx context.Context, owner store.Owner, name string) (any, error) {
	value, _, err := a.resolve(ctx, owner, name)
	return value, err
}

// ReadWithTrace is Read that also reports which layers were consulted.
func (a *Accessors) ReadWithTrace(ctx context.Context, owner store.Owner, name string) (any, Trace, error) {
	return a.resolve(ctx, owner, name)
}

func (a *Accessors) resolve(ctx context.Context, owner store.Owner, name string) (value any, trace Trace, err error) {
	start := time.Now()
	class := Class(owner.Class)
	trace = Trace{Owner: owner.String(), Setting: name, Type: TypePolymorphic}
	defer func() {
		a.logger.LogResolution(ResolutionEvent{
			Op:       OpRead,
			Class:    class,
			OwnerID:  owner.ID,
			Setting:  name,
			Source:   trace.Source(),
			Duration: time.Since(start),
			Err:      err,
		})
	}()

	if err := owner.Validate(); err != nil {
		return nil, trace, fmt.Errorf("settings: read %q: %w", name, err)
	}
	decl, declared, err := a.registry.Declaration(class, name)
	if err != nil {
		return nil, trace, err
	}
	converter := decl.Converter()
	trace.Type = converter.Type()

	raw, stored, err := a.store.Get(ctx, owner, name)
	if err != nil {
		return nil, trace, fmt.Errorf("settings: store get %s %q: %w", owner, name, err)
	}
	record := Provenance{Source: SourceRecord, Raw: raw, Found: stored}
	if stored {
		decoded, err := converter.Decode(raw)
		if err != nil {
			trace.Layers = append(trace.Layers, record)
			return nil, trace, invalidValue(class, name, err)
		}
		record.Value = decoded
		record.Selected = true
		trace.Layers = append(trace.Layers, record)
		return decoded, trace, nil
	}
	trace.Layers = append(trace.Layers, record)

	classLayer := Provenance{Source: SourceClass}
	if classDecl, ok := a.registry.ClassSetting(class, name); ok && classDecl.HasDefault {
		classLayer.Found = true
		classLayer.Value = classDecl.Default
	}
	globalLayer := Provenance{Source: SourceGlobal}
	if globalDecl, ok := a.registry.GlobalSetting(name); ok && globalDecl.HasDefault {
		globalLayer.Found = true
		globalLayer.Value = globalDecl.Default
	}

	if decl.HasDefault {
		value = layering.Clone(decl.Default)
		if classLayer.Found {
			classLayer.Selected = true
			classLayer.Value = value
		} else {
			globalLayer.Selected = true
			globalLayer.Value = value
		}
	}
	trace.Layers = append(trace.Layers, classLayer, globalLayer)
	if decl.HasDefault {
		return value, trace, nil
	}
	if declared {
		return nil, trace, newError(KindSettingNotFound, class, name, "no stored value and no default", nil)
	}
	return nil, trace, newError(KindUnknownSetting, class, name, "", nil)
}

// Bool reads name as a boolean setting.
func (a *Accessors) Bool(ctx context.Context, owner store.Owner, name string) (bool, error) {
	return Get[bool](ctx, a, owner, name)
}

// Int reads name as an integer setting.
func (a *Accessors) Int(ctx context.Context, owner store.Owner, name string) (int, error) {
	return Get[int](ctx, a, owner, name)
}

// String reads name as a string setting.
func (a *Accessors) String(ctx context.Context, owner store.Owner, name string) (string, error) {
	return Get[string](ctx, a, owner, name)
}

// Get reads name and asserts the resolved value to T.
func Get[T any](ctx context.Context, a *Accessors, owner store.Owner, name string) (T, error) {
	var zero T
	value, err := a.Read(ctx, owner, name)
	if err != nil {
		return zero, err
	}
	if value == nil && reflect.TypeFor[T]().Kind() == reflect.Interface {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		detail := fmt.Sprintf("resolved %s cannot be read as %s", typeName(value), reflect.TypeFor[T]())
		return zero, newError(KindInvalidValue, Class(owner.Class), name, detail, nil)
	}
	return typed, nil
}

// Write validates value with the setting's converter and validation rules and
// stores its encoded form.
func (a *Accessors) Write(ctx context.Context, owner store.Owner, name string, value any) (err error) {
	start := time.Now()
	class := Class(owner.Class)
	defer func() {
		a.logger.LogResolution(ResolutionEvent{
			Op:       OpWrite,
			Class:    class,
			OwnerID:  owner.ID,
			Setting:  name,
			Source:   SourceRecord,
			Duration: time.Since(start),
			Err:      err,
		})
	}()

	if err := owner.Validate(); err != nil {
		return fmt.Errorf("settings: write %q: %w", name, err)
	}
	decl, _, err := a.registry.Declaration(class, name)
	if err != nil {
		return err
	}
	typed, raw, err := a.prepare(decl, owner, name, value)
	if err != nil {
		return err
	}

	previous, existed, err := a.previous(ctx, owner, name, decl)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, owner, name, raw); err != nil {
		return fmt.Errorf("settings: store set %s %q: %w", owner, name, err)
	}

	if a.emitter.Enabled() {
		input := a.eventInput(ctx, owner, name)
		input.NewValue = typed
		event := activity.BuildSettingCreatedEvent(input)
		if existed {
			input.OldValue = previous
			event = activity.BuildSettingUpdatedEvent(input)
		}
		a.emit(ctx, owner, name, event)
	}
	return nil
}

// prepare converts value into canonical form, runs the declaration's
// validators and encodes the result.
func (a *Accessors) prepare(decl Declaration, owner store.Owner, name string, value any) (any, string, error) {
	class := Class(owner.Class)
	converter := decl.Converter()
	typed, err := Canonical(converter, value)
	if err != nil {
		return nil, "", invalidValue(class, name, err)
	}
	now := a.clock()
	rc := RuleContext{
		Value:   typed,
		Setting: name,
		Class:   class,
		OwnerID: owner.ID,
		Options: decl.Options,
		Now:     &now,
	}
	if err := decl.validate(rc, a.logger); err != nil {
		return nil, "", err
	}
	raw, err := converter.Encode(typed)
	if err != nil {
		return nil, "", invalidValue(class, name, err)
	}
	return typed, raw, nil
}

// previous loads the currently stored value when activity is enabled. An
// undecodable old value is reported raw.
func (a *Accessors) previous(ctx context.Context, owner store.Owner, name string, decl Declaration) (any, bool, error) {
	if !a.emitter.Enabled() {
		return nil, false, nil
	}
	raw, ok, err := a.store.Get(ctx, owner, name)
	if err != nil {
		return nil, false, fmt.Errorf("settings: store get %s %q: %w", owner, name, err)
	}
	if !ok {
		return nil, false, nil
	}
	value, err := decl.Converter().Decode(raw)
	if err != nil {
		return raw, true, nil
	}
	return value, true, nil
}

// Reset deletes the stored value of name so reads fall back to defaults.
func (a *Accessors) Reset(ctx context.Context, owner store.Owner, name string) (err error) {
	start := time.Now()
	class := Class(owner.Class)
	defer func() {
		a.logger.LogResolution(ResolutionEvent{
			Op:       OpReset,
			Class:    class,
			OwnerID:  owner.ID,
			Setting:  name,
			Source:   SourceRecord,
			Duration: time.Since(start),
			Err:      err,
		})
	}()

	if err := owner.Validate(); err != nil {
		return fmt.Errorf("settings: reset %q: %w", name, err)
	}
	decl, _, err := a.registry.Declaration(class, name)
	if err != nil {
		return err
	}
	previous, existed, err := a.previous(ctx, owner, name, decl)
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, owner, name); err != nil {
		return fmt.Errorf("settings: store delete %s %q: %w", owner, name, err)
	}
	if existed {
		input := a.eventInput(ctx, owner, name)
		input.OldValue = previous
		a.emit(ctx, owner, name, activity.BuildSettingDeletedEvent(input))
	}
	return nil
}

// Export reads the declared settings of owner selected by opts. Settings
// without a value export as nil.
func (a *Accessors) Export(ctx context.Context, owner store.Owner, opts ExportOptions) (map[string]any, error) {
	names := a.registry.JSONSettingNames(Class(owner.Class), opts)
	out := make(map[string]any, len(names))
	for _, name := range names {
		value, err := a.Read(ctx, owner, name)
		if errors.Is(err, ErrSettingNotFound) {
			out[name] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// Stored decodes every raw value persisted for owner, declared or not.
func (a *Accessors) Stored(ctx context.Context, owner store.Owner) (map[string]any, error) {
	if err := owner.Validate(); err != nil {
		return nil, fmt.Errorf("settings: stored: %w", err)
	}
	raws, err := a.store.All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("settings: store all %s: %w", owner, err)
	}
	out := make(map[string]any, len(raws))
	for name, raw := range raws {
		decl, _, err := a.registry.Declaration(Class(owner.Class), name)
		if err != nil {
			return nil, err
		}
		value, err := decl.Converter().Decode(raw)
		if err != nil {
			return nil, invalidValue(Class(owner.Class), name, err)
		}
		out[name] = value
	}
	return out, nil
}

func (a *Accessors) eventInput(ctx context.Context, owner store.Owner, name string) activity.SettingEventInput {
	actor := activity.ActorFromContext(ctx)
	return activity.SettingEventInput{
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		OwnerClass: owner.Class,
		OwnerID:    owner.ID,
		Setting:    name,
		OccurredAt: a.clock(),
	}
}

// emit notifies hooks after the store committed. Hook failures are logged and
// never undo the change.
func (a *Accessors) emit(ctx context.Context, owner store.Owner, name string, event activity.Event) {
	if err := a.emitter.Emit(ctx, event); err != nil {
		a.logger.LogResolution(ResolutionEvent{
			Op:      OpEmit,
			Class:   Class(owner.Class),
			OwnerID: owner.ID,
			Setting: name,
			Err:     err,
		})
	}
}
