package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live server: REDIS_ADDR=localhost:6379 go test ./db
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	r, err := NewRedis(RedisOptions{Addr: addr, Prefix: "hustlegenie-test:"})
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "k", "v"))

	value, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	keys, err := r.Keys(ctx, "k")
	require.NoError(t, err)
	assert.Contains(t, keys, "k")

	require.NoError(t, r.Delete(ctx, "k"))
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedis_RequiresAddr(t *testing.T) {
	_, err := NewRedis(RedisOptions{})
	assert.Error(t, err)
}
