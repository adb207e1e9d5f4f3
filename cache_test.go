package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	t.Run("MissIsNilNil", func(t *testing.T) {
		v, err := cache.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("SetGetDelete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k", []byte("v"), 0))
		v, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), v)

		require.NoError(t, cache.Delete(ctx, "k"))
		v, err = cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("TTLExpiresLazily", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "ttl", []byte("v"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		v, err := cache.Get(ctx, "ttl")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestSchemaEntryCodec(t *testing.T) {
	data, err := encodeColumns([]string{"id", "user_name"})
	require.NoError(t, err)

	columns, err := decodeColumns(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "user_name"}, columns)

	_, err = decodeColumns([]byte("not msgpack"))
	assert.Error(t, err)

	assert.Equal(t, "schema:default:users", schemaKey("default", "users"))
}
