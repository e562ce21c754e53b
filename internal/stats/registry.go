package stats

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/repository"
)

// NewRegistry picks the stat registry for backend. Auto prefers Postgres and
// falls back to process memory. It also returns the name of the chosen backend.
func NewRegistry(backend string, pool *pgxpool.Pool, client *redis.Client) (repository.EndpointStatRepository, string, error) {
	switch backend {
	case config.StatsBackendAuto, "":
		if pool != nil {
			return repository.NewEndpointStatRepository(pool), config.StatsBackendPostgres, nil
		}
		return repository.NewMemoryEndpointStatRepository(), config.StatsBackendMemory, nil
	case config.StatsBackendMemory:
		return repository.NewMemoryEndpointStatRepository(), config.StatsBackendMemory, nil
	case config.StatsBackendPostgres:
		if pool == nil {
			return nil, "", fmt.Errorf("stats backend %q needs a postgres pool", backend)
		}
		return repository.NewEndpointStatRepository(pool), config.StatsBackendPostgres, nil
	case config.StatsBackendRedis:
		if client == nil {
			return nil, "", fmt.Errorf("stats backend %q needs a redis client", backend)
		}
		return repository.NewRedisEndpointStatRepository(client), config.StatsBackendRedis, nil
	}
	return nil, "", fmt.Errorf("unknown stats backend %q", backend)
}
