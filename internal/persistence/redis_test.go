package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/config"
)

func TestNewRedis_Disabled(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: false}, zap.NewNop())
	assert.False(t, r.Configured())
	assert.ErrorIs(t, r.Ping(context.Background()), ErrNotConfigured)
	r.Close()
}

func TestNewRedis_Enabled(t *testing.T) {
	srv := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Addr: srv.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)

	require.True(t, r.Configured())
	assert.NoError(t, r.Ping(context.Background()))
}

func TestPostgres_NilSafe(t *testing.T) {
	var p *Postgres
	assert.False(t, p.Configured())
	assert.ErrorIs(t, p.Ping(context.Background()), ErrNotConfigured)
	assert.Nil(t, p.PoolHandle())
	p.Close()

	p, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Configured())
}
