package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// CategoryRepository manages product categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Category, error)
	EnsureNames(ctx context.Context, names []string) (int, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, created_at, updated_at FROM categories ORDER BY id`
	return r.query(ctx, query)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `SELECT id, name, created_at, updated_at FROM categories WHERE id=$1`

	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	const query = `SELECT id, name, created_at, updated_at FROM categories WHERE id = ANY($1) ORDER BY id`
	return r.query(ctx, query, ids)
}

// EnsureNames inserts the missing names and reports how many were new.
func (r *categoryRepository) EnsureNames(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	const query = `
        INSERT INTO categories (name)
        SELECT UNNEST($1::TEXT[])
        ON CONFLICT (name) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, names)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *categoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
