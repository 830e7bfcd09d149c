package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "overrides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// storeConformance exercises the Store contract shared by every driver.
func storeConformance(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("final round trip", func(t *testing.T) {
		_, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.SetFinal(ctx, "Model X", "Drive type", "AWD"))
		v, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "AWD", v)
	})

	t.Run("final upsert replaces", func(t *testing.T) {
		require.NoError(t, s.SetFinal(ctx, "Model X", "Drive type", "RWD"))
		v, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "RWD", v)
	})

	t.Run("empty value is a real override", func(t *testing.T) {
		require.NoError(t, s.SetFinal(ctx, "Model X", "Heated seats", ""))
		v, ok, err := s.GetFinal(ctx, "Model X", "Heated seats")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("cells keyed by source", func(t *testing.T) {
		require.NoError(t, s.SetCell(ctx, "Model X", "Range [km]", 1, "560"))

		v, ok, err := s.GetCell(ctx, "Model X", "Range [km]", 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "560", v)

		_, ok, err = s.GetCell(ctx, "Model X", "Range [km]", 2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cars do not collide", func(t *testing.T) {
		require.NoError(t, s.SetFinal(ctx, "Model Y", "Drive type", "FWD"))

		v, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "RWD", v)

		v, ok, err = s.GetFinal(ctx, "Model Y", "Drive type")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "FWD", v)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		require.NoError(t, s.ResetAll(ctx))

		_, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = s.GetFinal(ctx, "Model Y", "Drive type")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = s.GetCell(ctx, "Model X", "Range [km]", 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeConformance(t, newTestSQLite(t))
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "overrides.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SetFinal(ctx, "Model X", "Drive type", "AWD"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.GetFinal(ctx, "Model X", "Drive type")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AWD", v)
}

func TestMemoryStore(t *testing.T) {
	storeConformance(t, NewMemory())
}
