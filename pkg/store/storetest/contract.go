// Package storetest holds the behavioural contract every store.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-settings/pkg/store"
)

// Factory returns a fresh, empty store for one sub-test.
type Factory func(t *testing.T) store.Store

// RunContract exercises Get/Set/All/Delete semantics against newStore.
func RunContract(t *testing.T, newStore Factory) {
	t.Helper()

	user := store.Owner{Class: "User", ID: "42"}
	other := store.Owner{Class: "User", ID: "43"}
	account := store.Owner{Class: "Account", ID: "42"}

	t.Run("get missing key reports absence", func(t *testing.T) {
		s := newStore(t)
		raw, ok, err := s.Get(context.Background(), user, "locale")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, raw)
	})

	t.Run("set then get returns raw value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, user, "locale", "en"))

		raw, ok, err := s.Get(ctx, user, "locale")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "en", raw)
	})

	t.Run("set overwrites previous value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, user, "count", "1"))
		require.NoError(t, s.Set(ctx, user, "count", "2"))

		raw, ok, err := s.Get(ctx, user, "count")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "2", raw)
	})

	t.Run("empty raw value is stored", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, user, "nickname", ""))

		raw, ok, err := s.Get(ctx, user, "nickname")
		require.NoError(t, err)
		require.True(t, ok, "empty string must be distinguishable from absence")
		require.Equal(t, "", raw)
	})

	t.Run("owners are isolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, user, "locale", "en"))
		require.NoError(t, s.Set(ctx, other, "locale", "de"))
		require.NoError(t, s.Set(ctx, account, "locale", "fr"))

		all, err := s.All(ctx, user)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"locale": "en"}, all)

		all, err = s.All(ctx, account)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"locale": "fr"}, all)
	})

	t.Run("all on unknown owner is empty", func(t *testing.T) {
		s := newStore(t)
		all, err := s.All(context.Background(), user)
		require.NoError(t, err)
		require.Empty(t, all)
	})

	t.Run("delete removes value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, user, "locale", "en"))
		require.NoError(t, s.Set(ctx, user, "theme", "dark"))
		require.NoError(t, s.Delete(ctx, user, "locale"))

		_, ok, err := s.Get(ctx, user, "locale")
		require.NoError(t, err)
		require.False(t, ok)

		all, err := s.All(ctx, user)
		require.NoError(t, err)
		require.Equal(t, map[string]string{"theme": "dark"}, all)
	})

	t.Run("delete missing value is a no-op", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Delete(context.Background(), user, "missing"))
	})

	t.Run("invalid owner is rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(context.Background(), store.Owner{Class: "User"}, "locale", "en")
		require.Error(t, err)
		require.True(t, errors.Is(err, store.ErrOwnerRequired))
	})

	t.Run("blank key is rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(context.Background(), user, "  ", "en")
		require.Error(t, err)
		require.True(t, errors.Is(err, store.ErrKeyRequired))
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := s.Get(ctx, user, "locale")
		require.ErrorIs(t, err, context.Canceled)
	})
}
