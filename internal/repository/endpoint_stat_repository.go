package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// ErrStatNotFound is returned when a handle does not name a stored record.
var ErrStatNotFound = errors.New("endpoint stat not found")

// MatchPolicy controls how endpoint substring searches compare letters.
type MatchPolicy int

const (
	MatchCaseInsensitive MatchPolicy = iota
	MatchCaseSensitive
)

// EndpointStatRepository owns the endpoint statistics records.
//
// GetOrCreate must return the same handle for every caller of a given key,
// even when they race on the first request. Increments must never be lost.
type EndpointStatRepository interface {
	GetOrCreate(ctx context.Context, endpoint, method string) (domain.StatHandle, error)
	IncrementTotal(ctx context.Context, handle domain.StatHandle) error
	IncrementSuccess(ctx context.Context, handle domain.StatHandle) error
	IncrementError(ctx context.Context, handle domain.StatHandle) error
	ListAll(ctx context.Context) ([]domain.EndpointStat, error)
	FindByEndpoint(ctx context.Context, pattern string, policy MatchPolicy) ([]domain.EndpointStat, error)
}

type endpointStatRepository struct {
	pool *pgxpool.Pool
}

// NewEndpointStatRepository returns a Postgres-backed implementation.
func NewEndpointStatRepository(pool *pgxpool.Pool) EndpointStatRepository {
	return &endpointStatRepository{pool: pool}
}

// GetOrCreate upserts the row. The no-op DO UPDATE makes RETURNING yield the
// id for both the inserting and the conflicting caller.
func (r *endpointStatRepository) GetOrCreate(ctx context.Context, endpoint, method string) (domain.StatHandle, error) {
	const query = `
        INSERT INTO endpoint_stats (endpoint, method)
        VALUES ($1, $2)
        ON CONFLICT (endpoint, method) DO UPDATE SET endpoint = EXCLUDED.endpoint
        RETURNING id`

	var id int64
	if err := r.pool.QueryRow(ctx, query, endpoint, method).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create endpoint stat: %w", err)
	}
	return domain.StatHandle(id), nil
}

func (r *endpointStatRepository) IncrementTotal(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterTotal)
}

func (r *endpointStatRepository) IncrementSuccess(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterSuccess)
}

func (r *endpointStatRepository) IncrementError(ctx context.Context, handle domain.StatHandle) error {
	return r.increment(ctx, handle, domain.CounterError)
}

// increment is a single row-level UPDATE, so concurrent callers never lose updates.
func (r *endpointStatRepository) increment(ctx context.Context, handle domain.StatHandle, counter domain.StatCounter) error {
	if !counter.Valid() {
		return fmt.Errorf("unknown stat counter %q", counter)
	}
	query := fmt.Sprintf(`
        UPDATE endpoint_stats SET %[1]s = %[1]s + 1, updated_at = NOW()
        WHERE id = $1`, string(counter))

	cmd, err := r.pool.Exec(ctx, query, int64(handle))
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("increment %s: %w", counter, ErrStatNotFound)
	}
	return nil
}

func (r *endpointStatRepository) ListAll(ctx context.Context) ([]domain.EndpointStat, error) {
	const query = `
        SELECT id, endpoint, method, count, success_count, error_count, created_at, updated_at
        FROM endpoint_stats ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list endpoint stats: %w", err)
	}
	defer rows.Close()
	return scanEndpointStats(rows)
}

func (r *endpointStatRepository) FindByEndpoint(ctx context.Context, pattern string, policy MatchPolicy) ([]domain.EndpointStat, error) {
	operator := "ILIKE"
	if policy == MatchCaseSensitive {
		operator = "LIKE"
	}
	query := fmt.Sprintf(`
        SELECT id, endpoint, method, count, success_count, error_count, created_at, updated_at
        FROM endpoint_stats WHERE endpoint %s $1 ESCAPE '\' ORDER BY id`, operator)

	rows, err := r.pool.Query(ctx, query, containsPattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("search endpoint stats: %w", err)
	}
	defer rows.Close()
	return scanEndpointStats(rows)
}

func scanEndpointStats(rows pgx.Rows) ([]domain.EndpointStat, error) {
	result := []domain.EndpointStat{}
	for rows.Next() {
		var (
			stat                        domain.EndpointStat
			count, successes, errorsCnt int64
		)
		if err := rows.Scan(
			&stat.ID,
			&stat.Endpoint,
			&stat.Method,
			&count,
			&successes,
			&errorsCnt,
			&stat.CreatedAt,
			&stat.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stat.Count = uint64(count)
		stat.SuccessCount = uint64(successes)
		stat.ErrorCount = uint64(errorsCnt)
		result = append(result, stat)
	}
	return result, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a literal substring into a LIKE pattern.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
