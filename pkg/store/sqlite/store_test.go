package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-settings/pkg/store"
	"github.com/goliatone/go-settings/pkg/store/storetest"
)

func openTempStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "settings.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.Store {
		return openTempStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestOpenIsIdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")
	owner := store.Owner{Class: "User", ID: "1"}

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, owner, "theme", "dark"))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	raw, ok, err := second.Get(ctx, owner, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", raw)
}

func TestSetTracksTimestamps(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := openTempStore(t, WithClock(func() time.Time { return clock }))
	owner := store.Owner{Class: "User", ID: "1"}

	require.NoError(t, s.Set(ctx, owner, "theme", "dark"))
	created := clock
	clock = clock.Add(time.Hour)
	require.NoError(t, s.Set(ctx, owner, "theme", "light"))

	gotCreated, gotUpdated, ok, err := s.Timestamps(ctx, owner, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, gotCreated.Equal(created))
	require.True(t, gotUpdated.Equal(clock))

	_, _, ok, err = s.Timestamps(ctx, owner, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	var s *Store
	_, _, err := s.Get(context.Background(), store.Owner{Class: "User", ID: "1"}, "theme")
	require.ErrorIs(t, err, errNotConfigured)
	require.NoError(t, s.Close())
}
