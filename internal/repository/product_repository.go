package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// ProductSortColumns whitelists the columns a listing may be ordered by.
var ProductSortColumns = map[string]string{
	"name":       "p.name",
	"price":      "p.price",
	"stock":      "p.stock",
	"created_at": "p.created_at",
}

// ProductFilter captures listing parameters. Zero values mean "no filter".
type ProductFilter struct {
	CategoryName *string
	CategoryID   *int64
	SearchTerm   *string
	SortBy       string
	Descending   bool
	Limit        int
	Offset       int
}

// ProductRepository encapsulates product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, categoryIDs []int64) error
	Update(ctx context.Context, product *domain.Product, categoryIDs []int64) error
	SoftDelete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `p.id, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at, p.deleted_at`

// Create inserts the product and its category links in one transaction.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO products (name, description, price, stock)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			product.Name,
			product.Description,
			product.Price,
			product.Stock,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if err := syncCategories(ctx, tx, product.ID, categoryIDs); err != nil {
			return err
		}
		return loadCategories(ctx, tx, []*domain.Product{product})
	})
}

// Update rewrites the product row; categoryIDs replaces the links when non-nil.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, categoryIDs []int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE products SET name=$1, description=$2, price=$3, stock=$4, updated_at=NOW()
            WHERE id=$5 AND deleted_at IS NULL
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query,
			product.Name,
			product.Description,
			product.Price,
			product.Stock,
			product.ID,
		).Scan(&product.UpdatedAt); err != nil {
			return err
		}
		if categoryIDs != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM category_product WHERE product_id=$1`, product.ID); err != nil {
				return fmt.Errorf("detach categories: %w", err)
			}
			if err := syncCategories(ctx, tx, product.ID, categoryIDs); err != nil {
				return err
			}
		}
		return loadCategories(ctx, tx, []*domain.Product{product})
	})
}

func syncCategories(ctx context.Context, q querier, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO category_product (product_id, category_id)
        SELECT $1, UNNEST($2::BIGINT[])
        ON CONFLICT DO NOTHING`
	if _, err := q.Exec(ctx, query, productID, categoryIDs); err != nil {
		return fmt.Errorf("attach categories: %w", err)
	}
	return nil
}

func (r *productRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE products SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id=$1 AND p.deleted_at IS NULL`

	var product domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &product); err != nil {
		return nil, err
	}
	if err := loadCategories(ctx, r.pool, []*domain.Product{&product}); err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of live products plus the total match count.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error) {
	clauses := []string{"p.deleted_at IS NULL"}
	args := []any{}

	if filter.CategoryName != nil {
		args = append(args, *filter.CategoryName)
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM category_product cp JOIN categories c ON c.id = cp.category_id
            WHERE cp.product_id = p.id AND c.name = $%d)`, len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM category_product cp WHERE cp.product_id = p.id AND cp.category_id = $%d)`, len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, containsPattern(strings.TrimSpace(*filter.SearchTerm)))
		clauses = append(clauses, fmt.Sprintf(`(p.name ILIKE $%[1]d ESCAPE '\' OR p.description ILIKE $%[1]d ESCAPE '\')`, len(args)))
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	column, ok := ProductSortColumns[filter.SortBy]
	if !ok {
		column = ProductSortColumns["created_at"]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM products p%s ORDER BY %s %s, p.id %s`, productColumns, where, column, direction, direction)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p
        WHERE p.deleted_at IS NULL AND p.stock < $1 ORDER BY p.stock, p.id`
	return r.query(ctx, query, threshold)
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Product, len(products))
	for i := range products {
		refs[i] = &products[i]
	}
	if err := loadCategories(ctx, r.pool, refs); err != nil {
		return nil, err
	}
	return products, nil
}

func scanProduct(row pgx.Row, product *domain.Product) error {
	return row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
}

// loadCategories fills Categories for every product with a single query.
func loadCategories(ctx context.Context, q querier, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	byID := make(map[int64]*domain.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Categories = []domain.Category{}
	}

	const query = `
        SELECT cp.product_id, c.id, c.name, c.created_at, c.updated_at
        FROM category_product cp JOIN categories c ON c.id = cp.category_id
        WHERE cp.product_id = ANY($1) ORDER BY c.id`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			category  domain.Category
		)
		if err := rows.Scan(&productID, &category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.Categories = append(p.Categories, category)
		}
	}
	return rows.Err()
}
