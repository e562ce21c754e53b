package stats

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/config"
)

func TestNewRegistry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, name, err := NewRegistry(config.StatsBackendAuto, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, config.StatsBackendMemory, name)

	_, name, err = NewRegistry(config.StatsBackendMemory, nil, client)
	require.NoError(t, err)
	assert.Equal(t, config.StatsBackendMemory, name)

	registry, name, err := NewRegistry(config.StatsBackendRedis, nil, client)
	require.NoError(t, err)
	assert.Equal(t, config.StatsBackendRedis, name)
	_, err = registry.GetOrCreate(context.Background(), "api/products", "GET")
	assert.NoError(t, err)

	_, _, err = NewRegistry(config.StatsBackendPostgres, nil, nil)
	assert.Error(t, err)
	_, _, err = NewRegistry(config.StatsBackendRedis, nil, nil)
	assert.Error(t, err)
	_, _, err = NewRegistry("cassandra", nil, nil)
	assert.Error(t, err)
}
