package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed/categories.yaml
var categorySeed []byte

// CategorySeeder inserts category names that are not present yet.
type CategorySeeder interface {
	EnsureNames(ctx context.Context, names []string) (int, error)
}

type seedFile struct {
	Categories []string `yaml:"categories"`
}

// SeedCategoryNames returns the de-duplicated category names from the
// embedded seed file, in file order.
func SeedCategoryNames() ([]string, error) {
	return parseCategorySeed(categorySeed)
}

func parseCategorySeed(data []byte) ([]string, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	names := make([]string, 0, len(file.Categories))
	seen := make(map[string]struct{}, len(file.Categories))
	for _, name := range file.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// SeedCategories makes sure every seeded category exists. Running it again
// adds nothing.
func SeedCategories(ctx context.Context, seeder CategorySeeder, logger *zap.Logger) error {
	names, err := SeedCategoryNames()
	if err != nil {
		return err
	}
	added, err := seeder.EnsureNames(ctx, names)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logger.Info("categories seeded", zap.Int("added", added), zap.Int("total", len(names)))
	return nil
}
