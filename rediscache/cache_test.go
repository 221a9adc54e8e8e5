package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/rediscache"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...rediscache.Option) (*rediscache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	c := rediscache.New(client, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_PutGet(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	in := symcore.SqrtOf(symcore.N(8))
	out := symcore.MulOf(symcore.N(2), symcore.SqrtOf(symcore.N(2)))
	key := symcore.HashExpr(in)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Put(ctx, key, symcore.CacheEntry{Input: in, Output: out, Guard: symcore.GuardExponent})
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.True(t, got.Input.Equal(in))
	assert.True(t, got.Output.Equal(out))
	assert.Equal(t, symcore.GuardExponent, got.Guard)
}

func TestCache_LenAndReset(t *testing.T) {
	c, mr := newCache(t, rediscache.WithPrefix("test:"))
	ctx := context.Background()
	for i := int64(0); i < 5; i++ {
		e := symcore.N(i)
		c.Put(ctx, uint64(i+1), symcore.CacheEntry{Input: e, Output: e})
	}
	require.NoError(t, mr.Set("other:key", "untouched"))

	assert.Equal(t, 5, c.Len())
	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.True(t, mr.Exists("other:key"))
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t, rediscache.WithTTL(time.Minute))
	ctx := context.Background()
	e := symcore.S("x")
	c.Put(ctx, 42, symcore.CacheEntry{Input: e, Output: e})
	require.Equal(t, 1, c.Len())

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, 42)
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newCache(t, rediscache.WithPrefix("p:"))
	require.NoError(t, mr.Set("p:2a", "{not json"))
	_, ok := c.Get(context.Background(), 0x2a)
	assert.False(t, ok)
}

func TestCache_BacksEngine(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	tier := symcore.NewTieredCache(symcore.NewLRUCache(16), c)
	eng, err := symcore.NewEngine(symcore.DefaultConfig(), symcore.WithCache(tier))
	require.NoError(t, err)

	e := symcore.AddOf(symcore.SqrtOf(symcore.N(18)), symcore.SqrtOf(symcore.N(2)))
	first, err := eng.Simplify(ctx, e)
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)

	// a second engine with an empty memory tier reads from Redis
	eng2, err := symcore.NewEngine(symcore.DefaultConfig(),
		symcore.WithCache(symcore.NewTieredCache(symcore.NewLRUCache(16), c)))
	require.NoError(t, err)
	second, err := eng2.Simplify(ctx, e)
	require.NoError(t, err)
	assert.True(t, first.Expr.Equal(second.Expr))
	assert.Equal(t, "4*sqrt(2)", second.Expr.String())
}

func TestCache_UnreachableServerIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	c := rediscache.Dial(addr, "", 0, rediscache.WithTimeout(200*time.Millisecond))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, c.Ping(ctx))
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
