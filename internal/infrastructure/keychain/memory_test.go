package keychain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	t.Run("get missing key", func(t *testing.T) {
		_, err := store.Get(KeyAPIKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(KeyAPIKey, "k1"))
		value, err := store.Get(KeyAPIKey)
		require.NoError(t, err)
		assert.Equal(t, "k1", value)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(KeyAPIKey))
		require.NoError(t, store.Delete(KeyAPIKey))
		_, err := store.Get(KeyAPIKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clear all wipes every credential", func(t *testing.T) {
		require.NoError(t, store.Set(KeyAccessToken, "a"))
		require.NoError(t, store.Set(KeyRefreshToken, "r"))
		require.NoError(t, store.ClearAll())

		for _, key := range []Key{KeyAPIKey, KeyAccessToken, KeyRefreshToken, KeyTokenExpiry} {
			_, err := store.Get(key)
			assert.ErrorIs(t, err, ErrNotFound)
		}
	})
}
