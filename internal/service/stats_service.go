package service

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// MaxStatsPatternLength bounds the endpoint search parameter.
const MaxStatsPatternLength = 255

// StatsService exposes the endpoint statistics for reading.
type StatsService struct {
	stats  repository.EndpointStatRepository
	policy repository.MatchPolicy
}

// NewStatsService builds the service. caseSensitive selects the search policy.
func NewStatsService(stats repository.EndpointStatRepository, caseSensitive bool) *StatsService {
	policy := repository.MatchCaseInsensitive
	if caseSensitive {
		policy = repository.MatchCaseSensitive
	}
	return &StatsService{stats: stats, policy: policy}
}

// List returns every record; an empty registry yields an empty slice.
func (s *StatsService) List(ctx context.Context) ([]domain.EndpointStat, error) {
	return s.stats.ListAll(ctx)
}

// Search returns the records whose endpoint contains pattern. A blank or
// oversized pattern is a validation error and no match is a not-found error.
func (s *StatsService) Search(ctx context.Context, pattern string) ([]domain.EndpointStat, error) {
	pattern = strings.Trim(strings.TrimSpace(pattern), "/")
	if pattern == "" {
		return nil, apperrors.NewValidationError("endpoint is required", map[string]any{"field": "endpoint"})
	}
	if utf8.RuneCountInString(pattern) > MaxStatsPatternLength {
		return nil, apperrors.NewValidationError("endpoint is too long", map[string]any{
			"field": "endpoint",
			"max":   MaxStatsPatternLength,
		})
	}

	found, err := s.stats.FindByEndpoint(ctx, pattern, s.policy)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NewDomainError(apperrors.CodeNotFound, "no stats found for the given endpoint", http.StatusNotFound,
			map[string]any{"endpoint": pattern})
	}
	return found, nil
}
