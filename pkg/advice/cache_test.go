package advice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheResult(t *testing.T) {
	cache, err := NewCacheResult(2, "")
	require.NoError(t, err)
	target := newAccount()
	acc := newAccountProxy(t, target, cache)

	for i := 0; i < 3; i++ {
		b, err := acc.Balance(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, 10, b)
	}
	assert.Equal(t, 1, target.calls["Balance"])
	hits, misses := cache.Stats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 1, misses)

	_, err = acc.Balance(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, target.calls["Balance"])
	assert.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestCacheResultSkipsFailures(t *testing.T) {
	cache, err := NewCacheResult(4, "")
	require.NoError(t, err)
	target := newAccount()
	target.failures = 1
	acc := newAccountProxy(t, target, cache)

	_, err = acc.Balance(context.Background(), "alice")
	require.Error(t, err)
	b, err := acc.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 10, b)
	assert.Equal(t, 2, target.calls["Balance"])
	assert.Equal(t, 1, cache.Len())
}

func TestCacheResultKeyExpr(t *testing.T) {
	cache, err := NewCacheResult(4, `args[0] + args[1]`)
	require.NoError(t, err)
	target := newAccount()
	acc := newAccountProxy(t, target, cache)

	assert.Equal(t, 5, acc.Add(2, 3))
	assert.Equal(t, 5, acc.Add(1, 4))
	assert.Equal(t, 1, target.calls["Add"])

	_, err = NewCacheResult(0, "")
	assert.Error(t, err)
	_, err = NewCacheResult(1, "args[")
	assert.Error(t, err)
}
