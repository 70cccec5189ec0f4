package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceKey(t *testing.T) {
	assert.Equal(t, "performance:user:abc-123", PerformanceKey("abc-123"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	assert.NoError(t, c.Set(ctx, "k1", payload{Name: "cells", Count: 3}, time.Minute))

	var got payload
	assert.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "cells", Count: 3}, got)

	assert.ErrorIs(t, c.Get(ctx, "missing", &got), ErrCacheMiss)

	assert.NoError(t, c.Delete(ctx, "k1"))
	assert.ErrorIs(t, c.Get(ctx, "k1", &got), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	assert.NoError(t, c.Set(ctx, PerformanceKey("u1"), 1, 0))
	assert.NoError(t, c.Set(ctx, PerformanceKey("u2"), 2, 0))
	assert.NoError(t, c.Set(ctx, "other:u1", 3, 0))

	assert.NoError(t, c.DeletePattern(ctx, "performance:user:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, PerformanceKey("u1"), &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, PerformanceKey("u2"), &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "other:u1", &v))
	assert.Equal(t, 3, v)
}
