package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

func seededStats(t *testing.T, endpoints ...string) repository.EndpointStatRepository {
	t.Helper()
	repo := repository.NewMemoryEndpointStatRepository()
	for _, ep := range endpoints {
		h, err := repo.GetOrCreate(context.Background(), ep, "GET")
		require.NoError(t, err)
		require.NoError(t, repo.IncrementTotal(context.Background(), h))
	}
	return repo
}

func TestStatsService_List(t *testing.T) {
	svc := NewStatsService(seededStats(t), false)
	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	svc = NewStatsService(seededStats(t, "api/products", "api/categories"), false)
	all, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStatsService_SearchValidation(t *testing.T) {
	svc := NewStatsService(seededStats(t, "api/products"), false)

	for _, pattern := range []string{"", "   ", "/", strings.Repeat("a", MaxStatsPatternLength+1)} {
		_, err := svc.Search(context.Background(), pattern)
		de := apperrors.ToDomainError(err)
		require.NotNil(t, de, "pattern %q", pattern)
		assert.Equal(t, http.StatusBadRequest, de.HTTPStatus, "pattern %q", pattern)
	}
}

func TestStatsService_SearchNotFound(t *testing.T) {
	svc := NewStatsService(seededStats(t, "api/products"), false)

	_, err := svc.Search(context.Background(), "orders")
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.Equal(t, "no stats found for the given endpoint", de.Message)
}

func TestStatsService_SearchPolicy(t *testing.T) {
	repo := seededStats(t, "api/products", "api/Products/3")

	found, err := NewStatsService(repo, false).Search(context.Background(), "PRODUCTS")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = NewStatsService(repo, true).Search(context.Background(), "Products")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "api/Products/3", found[0].Endpoint)

	found, err = NewStatsService(repo, false).Search(context.Background(), "/api/products/")
	require.NoError(t, err)
	assert.Len(t, found, 2, "surrounding slashes are ignored like in recorded endpoints")
}
