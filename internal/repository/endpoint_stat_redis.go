package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/catalog-service/internal/domain"
)

const (
	statSeqKey          = "stats:seq"
	statIDsKey          = "stats:ids"
	statRecordKeyPrefix = "stats:record:"
)

type redisEndpointStatRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisEndpointStatRepository stores stats in Redis hashes. Record ids are
// assigned from an INCR sequence and claimed with HSETNX, so racing creators
// converge on one id per (endpoint, method).
func NewRedisEndpointStatRepository(client *redis.Client) EndpointStatRepository {
	return &redisEndpointStatRepository{client: client, now: time.Now}
}

func recordKey(id int64) string {
	return statRecordKeyPrefix + strconv.FormatInt(id, 10)
}

func (r *redisEndpointStatRepository) GetOrCreate(ctx context.Context, endpoint, method string) (domain.StatHandle, error) {
	key := statKey(endpoint, method)

	id, err := r.client.HGet(ctx, statIDsKey, key).Int64()
	if err == nil {
		return domain.StatHandle(id), nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("get endpoint stat id: %w", err)
	}

	candidate, err := r.client.Incr(ctx, statSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate endpoint stat id: %w", err)
	}
	// The record exists before its id becomes visible in the index, so an
	// increment through any published handle always finds its hash.
	now := r.now().UTC().Format(time.RFC3339Nano)
	if err := r.client.HSet(ctx, recordKey(candidate),
		"created_at", now,
		"updated_at", now,
	).Err(); err != nil {
		return 0, fmt.Errorf("create endpoint stat: %w", err)
	}

	claimed, err := r.client.HSetNX(ctx, statIDsKey, key, candidate).Result()
	if err != nil {
		return 0, fmt.Errorf("claim endpoint stat id: %w", err)
	}
	if claimed {
		return domain.StatHandle(candidate), nil
	}

	_ = r.client.Del(ctx, recordKey(candidate)).Err()
	id, err = r.client.HGet(ctx, statIDsKey, key).Int64()
	if err != nil {
		return 0, fmt.Errorf("get endpoint stat id: %w", err)
	}
	return domain.StatHandle(id), nil
}

func (r *redisEndpointStatRepository) IncrementTotal(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterTotal)
}

func (r *redisEndpointStatRepository) IncrementSuccess(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterSuccess)
}

func (r *redisEndpointStatRepository) IncrementError(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterError)
}

func (r *redisEndpointStatRepository) increment(ctx context.Context, handle domain.StatHandle, counter domain.StatCounter) error {
	if !counter.Valid() {
		return fmt.Errorf("unknown stat counter %q", counter)
	}
	key := recordKey(int64(handle))
	pipe := r.client.TxPipeline()
	exists := pipe.Exists(ctx, key)
	pipe.HIncrBy(ctx, key, string(counter), 1)
	pipe.HSet(ctx, key, "updated_at", r.now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	if exists.Val() == 0 {
		// the increment created a stray hash; remove it again
		_ = r.client.Del(ctx, key).Err()
		return fmt.Errorf("increment %s: %w", counter, ErrStatNotFound)
	}
	return nil
}

func (r *redisEndpointStatRepository) ListAll(ctx context.Context) ([]domain.EndpointStat, error) {
	return r.load(ctx, func(string) bool { return true })
}

func (r *redisEndpointStatRepository) FindByEndpoint(ctx context.Context, pattern string, policy MatchPolicy) ([]domain.EndpointStat, error) {
	if policy == MatchCaseSensitive {
		return r.load(ctx, func(endpoint string) bool {
			return strings.Contains(endpoint, pattern)
		})
	}
	needle := strings.ToLower(pattern)
	return r.load(ctx, func(endpoint string) bool {
		return strings.Contains(strings.ToLower(endpoint), needle)
	})
}

type redisStatRef struct {
	id       int64
	endpoint string
	method   string
}

func (r *redisEndpointStatRepository) load(ctx context.Context, keep func(endpoint string) bool) ([]domain.EndpointStat, error) {
	ids, err := r.client.HGetAll(ctx, statIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list endpoint stats: %w", err)
	}

	refs := make([]redisStatRef, 0, len(ids))
	for key, raw := range ids {
		method, endpoint, ok := strings.Cut(key, " ")
		if !ok || !keep(endpoint) {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint stat id %q: %w", raw, err)
		}
		refs = append(refs, redisStatRef{id: id, endpoint: endpoint, method: method})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].id < refs[j].id })

	result := []domain.EndpointStat{}
	if len(refs) == 0 {
		return result, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(refs))
	for i, ref := range refs {
		cmds[i] = pipe.HGetAll(ctx, recordKey(ref.id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load endpoint stats: %w", err)
	}

	for i, ref := range refs {
		fields := cmds[i].Val()
		result = append(result, domain.EndpointStat{
			ID:           ref.id,
			Endpoint:     ref.endpoint,
			Method:       ref.method,
			Count:        parseCounter(fields[string(domain.CounterTotal)]),
			SuccessCount: parseCounter(fields[string(domain.CounterSuccess)]),
			ErrorCount:   parseCounter(fields[string(domain.CounterError)]),
			CreatedAt:    parseRedisTime(fields["created_at"]),
			UpdatedAt:    parseRedisTime(fields["updated_at"]),
		})
	}
	return result, nil
}

// parseCounter treats a missing field as zero.
func parseCounter(raw string) uint64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseRedisTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
