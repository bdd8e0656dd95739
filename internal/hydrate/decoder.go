// Package hydrate decodes exported settings into caller-defined structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-settings/internal/layering"
)

// Context names the owner whose settings are being decoded.
type Context struct {
	Class   string
	OwnerID string
}

func (c Context) String() string {
	if c.OwnerID == "" {
		return c.Class
	}
	return c.Class + "/" + c.OwnerID
}

// Stage names the step of Decode that failed.
type Stage string

const (
	StagePayload  Stage = "payload"
	StagePreHook  Stage = "pre-hook"
	StageDecode   Stage = "decode"
	StagePostHook Stage = "post-hook"
)

// Error reports a failed decode with the owner and stage.
type Error struct {
	Owner string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s for owner %q: %v", e.Stage, e.Owner, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var errNilPayload = errors.New("payload is nil")

// PreHook rewrites the exported map before decoding. It receives a private
// copy; returning nil keeps the map it was given.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded struct.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON step.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

type DecoderOption[T any] func(*Decoder[T])

// Decoder turns the map produced by an export into T. By default the map is
// round-tripped through encoding/json so struct json tags select the settings.
type Decoder[T any] struct {
	preHooks              []PreHook
	postHooks             []PostHook[T]
	custom                CustomDecoder[T]
	useNumber             bool
	disallowUnknownFields bool
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber decodes numbers into interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.useNumber = true
	}
}

// WithDisallowUnknownFields fails when a setting has no matching field in T.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.disallowUnknownFields = true
	}
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre-hooks, the JSON (or custom) step and the post-hooks in
// order. payload itself is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	fail := func(stage Stage, err error) (T, error) {
		return zero, &Error{Owner: ctx.String(), Stage: stage, Err: err}
	}

	if payload == nil {
		return fail(StagePayload, errNilPayload)
	}
	current := layering.Clone(payload)
	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePreHook, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return fail(StagePostHook, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	if d.custom != nil {
		return d.custom(ctx, payload)
	}
	var out T
	buffer, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.useNumber {
		decoder.UseNumber()
	}
	if d.disallowUnknownFields {
		decoder.DisallowUnknownFields()
	}
	err = decoder.Decode(&out)
	return out, err
}
