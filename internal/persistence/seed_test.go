package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memorySeeder struct {
	names map[string]struct{}
}

func (m *memorySeeder) EnsureNames(_ context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		if _, ok := m.names[name]; !ok {
			m.names[name] = struct{}{}
			added++
		}
	}
	return added, nil
}

func TestSeedCategoryNames(t *testing.T) {
	names, err := SeedCategoryNames()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Electronics",
		"Fashion",
		"Sports, Arts & Outdoors",
		"Home, Furniture & Appliance",
		"Health & Beauty",
		"Agriculture & Food",
	}, names)
}

func TestParseCategorySeed(t *testing.T) {
	names, err := parseCategorySeed([]byte("categories:\n  - ' Books '\n  - Books\n  - ''\n  - Toys\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Toys"}, names)

	_, err = parseCategorySeed([]byte("categories: [unterminated"))
	assert.Error(t, err)
}

func TestSeedCategories_Idempotent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	seeder := &memorySeeder{names: map[string]struct{}{"Fashion": {}}}

	require.NoError(t, SeedCategories(context.Background(), seeder, zap.New(core)))
	require.NoError(t, SeedCategories(context.Background(), seeder, zap.New(core)))

	entries := logs.FilterMessage("categories seeded").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].ContextMap()["added"])
	assert.Equal(t, int64(0), entries[1].ContextMap()["added"])
	assert.Len(t, seeder.names, 6)
}
