package settings

import (
	"context"
	"fmt"

	"github.com/goliatone/go-settings/internal/hydrate"
	"github.com/goliatone/go-settings/pkg/store"
)

// Bind exports the settings of owner selected by opts and decodes them into T
// using the json tags of T.
func Bind[T any](ctx context.Context, a *Accessors, owner store.Owner, opts ExportOptions, decoderOpts ...hydrate.DecoderOption[T]) (T, error) {
	var zero T
	exported, err := a.Export(ctx, owner, opts)
	if err != nil {
		return zero, err
	}
	decoder := hydrate.NewDecoder(decoderOpts...)
	out, err := decoder.Decode(hydrate.Context{Class: owner.Class, OwnerID: owner.ID}, exported)
	if err != nil {
		return zero, fmt.Errorf("settings: bind %s: %w", owner, err)
	}
	return out, nil
}
