package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/domain"
)

func newMiniredisRepo(t *testing.T) EndpointStatRepository {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisEndpointStatRepository(client)
}

func newPostgresRepo(t *testing.T) EndpointStatRepository {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS endpoint_stats (
            id BIGSERIAL PRIMARY KEY,
            endpoint TEXT NOT NULL,
            method VARCHAR(16) NOT NULL,
            count BIGINT NOT NULL DEFAULT 0,
            success_count BIGINT NOT NULL DEFAULT 0,
            error_count BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (endpoint, method)
        )`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE endpoint_stats RESTART IDENTITY`)
	require.NoError(t, err)
	return NewEndpointStatRepository(pool)
}

var statBackends = map[string]func(t *testing.T) EndpointStatRepository{
	"memory":   func(*testing.T) EndpointStatRepository { return NewMemoryEndpointStatRepository() },
	"redis":    newMiniredisRepo,
	"postgres": newPostgresRepo,
}

func TestEndpointStatRepository_GetOrCreateIsIdempotent(t *testing.T) {
	for name, newRepo := range statBackends {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			first, err := repo.GetOrCreate(ctx, "api/products", "GET")
			require.NoError(t, err)
			second, err := repo.GetOrCreate(ctx, "api/products", "GET")
			require.NoError(t, err)
			assert.Equal(t, first, second)

			other, err := repo.GetOrCreate(ctx, "api/products", "POST")
			require.NoError(t, err)
			assert.NotEqual(t, first, other, "method is part of the key")

			stats, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, stats, 2)
			assert.Equal(t, "api/products", stats[0].Endpoint)
			assert.Equal(t, "GET", stats[0].Method)
			assert.Zero(t, stats[0].Count)
			assert.Zero(t, stats[0].SuccessCount)
			assert.Zero(t, stats[0].ErrorCount)
		})
	}
}

func TestEndpointStatRepository_Increments(t *testing.T) {
	for name, newRepo := range statBackends {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			h, err := repo.GetOrCreate(ctx, "api/products", "GET")
			require.NoError(t, err)

			require.NoError(t, repo.IncrementTotal(ctx, h))
			require.NoError(t, repo.IncrementSuccess(ctx, h))
			require.NoError(t, repo.IncrementTotal(ctx, h))
			require.NoError(t, repo.IncrementError(ctx, h))

			stats, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, stats, 1)
			assert.Equal(t, uint64(2), stats[0].Count)
			assert.Equal(t, uint64(1), stats[0].SuccessCount)
			assert.Equal(t, uint64(1), stats[0].ErrorCount)
			assert.False(t, stats[0].UpdatedAt.Before(stats[0].CreatedAt))
		})
	}
}

func TestEndpointStatRepository_UnknownHandle(t *testing.T) {
	for name, newRepo := range statBackends {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			err := repo.IncrementTotal(context.Background(), domain.StatHandle(4242))
			require.ErrorIs(t, err, ErrStatNotFound)

			stats, err := repo.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, stats)
		})
	}
}

func TestEndpointStatRepository_ConcurrentFirstRequests(t *testing.T) {
	const workers = 50
	for name, newRepo := range statBackends {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					h, err := repo.GetOrCreate(ctx, "api/categories", "GET")
					if err != nil {
						errs <- err
						return
					}
					if err := repo.IncrementTotal(ctx, h); err != nil {
						errs <- err
						return
					}
					if i%2 == 0 {
						errs <- repo.IncrementSuccess(ctx, h)
					} else {
						errs <- repo.IncrementError(ctx, h)
					}
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			stats, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, stats, 1, "racing creators must share one record")
			assert.Equal(t, uint64(workers), stats[0].Count)
			assert.Equal(t, uint64(workers/2), stats[0].SuccessCount)
			assert.Equal(t, uint64(workers/2), stats[0].ErrorCount)
		})
	}
}

func TestEndpointStatRepository_FindByEndpoint(t *testing.T) {
	for name, newRepo := range statBackends {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			for _, ep := range []string{"api/products", "api/Products/7", "api/categories", "api/stats/100%_off"} {
				_, err := repo.GetOrCreate(ctx, ep, "GET")
				require.NoError(t, err)
			}

			found, err := repo.FindByEndpoint(ctx, "products", MatchCaseInsensitive)
			require.NoError(t, err)
			assert.Len(t, found, 2)

			found, err = repo.FindByEndpoint(ctx, "products", MatchCaseSensitive)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "api/products", found[0].Endpoint)

			found, err = repo.FindByEndpoint(ctx, "%_", MatchCaseInsensitive)
			require.NoError(t, err)
			require.Len(t, found, 1, "wildcard characters match literally")
			assert.Equal(t, "api/stats/100%_off", found[0].Endpoint)

			found, err = repo.FindByEndpoint(ctx, "orders", MatchCaseInsensitive)
			require.NoError(t, err)
			assert.NotNil(t, found)
			assert.Empty(t, found)
		})
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%api/products%", containsPattern("api/products"))
	assert.Equal(t, `%100\%\_off%`, containsPattern("100%_off"))
	assert.Equal(t, `%a\\b%`, containsPattern(`a\b`))
}

func TestMemoryEndpointStatRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryEndpointStatRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetOrCreate(ctx, "api/products", "GET")
	assert.ErrorIs(t, err, context.Canceled)
}
