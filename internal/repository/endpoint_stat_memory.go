package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

type memoryStat struct {
	id        int64
	endpoint  string
	method    string
	createdAt time.Time

	count     atomic.Uint64
	successes atomic.Uint64
	errors    atomic.Uint64
	updatedAt atomic.Int64
}

type memoryEndpointStatRepository struct {
	mu      sync.RWMutex
	byKey   map[string]*memoryStat
	records []*memoryStat
	now     func() time.Time
}

// NewMemoryEndpointStatRepository keeps stats in process memory. Counters are
// lost on restart.
func NewMemoryEndpointStatRepository() EndpointStatRepository {
	return &memoryEndpointStatRepository{
		byKey: make(map[string]*memoryStat),
		now:   time.Now,
	}
}

func statKey(endpoint, method string) string {
	return method + " " + endpoint
}

func (r *memoryEndpointStatRepository) GetOrCreate(ctx context.Context, endpoint, method string) (domain.StatHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := statKey(endpoint, method)

	r.mu.RLock()
	rec, ok := r.byKey[key]
	r.mu.RUnlock()
	if ok {
		return domain.StatHandle(rec.id), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byKey[key]; ok {
		return domain.StatHandle(rec.id), nil
	}
	now := r.now()
	rec = &memoryStat{
		id:        int64(len(r.records) + 1),
		endpoint:  endpoint,
		method:    method,
		createdAt: now,
	}
	rec.updatedAt.Store(now.UnixNano())
	r.byKey[key] = rec
	r.records = append(r.records, rec)
	return domain.StatHandle(rec.id), nil
}

func (r *memoryEndpointStatRepository) IncrementTotal(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterTotal)
}

func (r *memoryEndpointStatRepository) IncrementSuccess(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterSuccess)
}

func (r *memoryEndpointStatRepository) IncrementError(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterError)
}

func (r *memoryEndpointStatRepository) increment(ctx context.Context, handle domain.StatHandle, counter domain.StatCounter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, err := r.lookup(handle)
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	switch counter {
	case domain.CounterTotal:
		rec.count.Add(1)
	case domain.CounterSuccess:
		rec.successes.Add(1)
	case domain.CounterError:
		rec.errors.Add(1)
	default:
		return fmt.Errorf("unknown stat counter %q", counter)
	}
	rec.updatedAt.Store(r.now().UnixNano())
	return nil
}

func (r *memoryEndpointStatRepository) lookup(handle domain.StatHandle) (*memoryStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := int(handle) - 1
	if idx < 0 || idx >= len(r.records) {
		return nil, ErrStatNotFound
	}
	return r.records[idx], nil
}

func (r *memoryEndpointStatRepository) ListAll(ctx context.Context) ([]domain.EndpointStat, error) {
	return r.filter(ctx, func(*memoryStat) bool { return true })
}

func (r *memoryEndpointStatRepository) FindByEndpoint(ctx context.Context, pattern string, policy MatchPolicy) ([]domain.EndpointStat, error) {
	if policy == MatchCaseSensitive {
		return r.filter(ctx, func(rec *memoryStat) bool {
			return strings.Contains(rec.endpoint, pattern)
		})
	}
	needle := strings.ToLower(pattern)
	return r.filter(ctx, func(rec *memoryStat) bool {
		return strings.Contains(strings.ToLower(rec.endpoint), needle)
	})
}

func (r *memoryEndpointStatRepository) filter(ctx context.Context, keep func(*memoryStat) bool) ([]domain.EndpointStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	records := append([]*memoryStat(nil), r.records...)
	r.mu.RUnlock()

	result := []domain.EndpointStat{}
	for _, rec := range records {
		if keep(rec) {
			result = append(result, rec.snapshot())
		}
	}
	return result, nil
}

// snapshot reads outcomes before the total so a concurrent request can never
// make success+error appear larger than count.
func (m *memoryStat) snapshot() domain.EndpointStat {
	successes := m.successes.Load()
	errorsCnt := m.errors.Load()
	return domain.EndpointStat{
		ID:           m.id,
		Endpoint:     m.endpoint,
		Method:       m.method,
		SuccessCount: successes,
		ErrorCount:   errorsCnt,
		Count:        m.count.Load(),
		CreatedAt:    m.createdAt,
		UpdatedAt:    time.Unix(0, m.updatedAt.Load()),
	}
}
