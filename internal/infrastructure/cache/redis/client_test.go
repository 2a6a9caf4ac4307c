package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/docdb-connection/internal/core/cache"
	rediscache "github.com/unifiedui/docdb-connection/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T, defaultTTL time.Duration) (*miniredis.Miniredis, cache.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rediscache.NewClient(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: defaultTTL,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mr, client
}

func TestNewClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err = rediscache.NewClient(rediscache.Config{Host: host, Port: port})
	assert.Error(t, err)
}

func TestClient_SetAndGet(t *testing.T) {
	_, client := setupMiniredis(t, 0)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "memo:key", []byte("value"), time.Minute))

	result, err := client.Get(ctx, "memo:key")
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), result)
}

func TestClient_GetNotFound(t *testing.T) {
	_, client := setupMiniredis(t, 0)

	result, err := client.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_DefaultTTL(t *testing.T) {
	mr, client := setupMiniredis(t, 30*time.Second)

	require.NoError(t, client.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 30*time.Second, mr.TTL("k"))
}

func TestClient_TTLExpiration(t *testing.T) {
	mr, client := setupMiniredis(t, 0)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	result, err := client.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestClient_Delete(t *testing.T) {
	_, client := setupMiniredis(t, 0)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))

	deleted, err := client.Delete(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.Delete(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_DeletePatternAcrossBatches(t *testing.T) {
	mr, client := setupMiniredis(t, 0)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("docdb:memo:student:find:%03d", i), "v"))
	}
	require.NoError(t, mr.Set("other:key", "v"))

	deleted, err := client.DeletePattern(ctx, "docdb:*")
	assert.NoError(t, err)
	assert.Equal(t, int64(250), deleted)
	assert.Equal(t, []string{"other:key"}, mr.Keys())
}

func TestClient_Ping(t *testing.T) {
	_, client := setupMiniredis(t, 0)
	assert.NoError(t, client.Ping(context.Background()))
}
