package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/repository"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

const maxQueryLength = 255

// ProductService coordinates catalog reads and writes.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	pageSize   int
	maxPage    int
}

// ProductDependencies bundles collaborators for the product service.
type ProductDependencies struct {
	ProductRepo  repository.ProductRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
}

// ProductQuery describes listing parameters as received from the client.
type ProductQuery struct {
	Category string
	SortBy   string
	Order    string
	Page     int
	PerPage  int
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// ProductPage is one page of products.
type ProductPage struct {
	Products []domain.Product
	Meta     PageMeta
}

// ProductInput is a full product definition.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Categories  []int64
}

// ProductPatch carries only the fields a client wants to change.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Categories  *[]int64
}

// NewProductService constructs the service.
func NewProductService(cfg config.CatalogConfig, deps ProductDependencies) *ProductService {
	return &ProductService{
		products:   deps.ProductRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		pageSize:   cfg.DefaultPageSize,
		maxPage:    cfg.MaxPageSize,
	}
}

// List returns one page of products filtered by category name.
func (s *ProductService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	filter := repository.ProductFilter{SortBy: "created_at"}
	if q.SortBy != "" {
		if _, ok := repository.ProductSortColumns[q.SortBy]; !ok {
			return nil, apperrors.NewValidationError("invalid sort_by", map[string]any{
				"field":   "sort_by",
				"allowed": sortColumnNames(),
			})
		}
		filter.SortBy = q.SortBy
	}
	switch strings.ToLower(q.Order) {
	case "", "asc":
	case "desc":
		filter.Descending = true
	default:
		return nil, apperrors.NewValidationError("invalid order", map[string]any{"field": "order", "allowed": []string{"asc", "desc"}})
	}
	if name := strings.TrimSpace(q.Category); name != "" {
		filter.CategoryName = &name
	}
	return s.page(ctx, filter, q.Page, q.PerPage)
}

// Search matches the query against product names and descriptions.
func (s *ProductService) Search(ctx context.Context, query string, page, perPage int) (*ProductPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required", map[string]any{"field": "query"})
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return nil, apperrors.NewValidationError("query is too long", map[string]any{"field": "query", "max": maxQueryLength})
	}
	return s.page(ctx, repository.ProductFilter{SearchTerm: &query, SortBy: "name"}, page, perPage)
}

// CategoryProducts lists the products attached to a category.
func (s *ProductService) CategoryProducts(ctx context.Context, categoryID int64, page, perPage int) (*ProductPage, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": categoryID})
		}
		return nil, err
	}
	return s.page(ctx, repository.ProductFilter{CategoryID: &categoryID, SortBy: "name"}, page, perPage)
}

// Categories lists every category.
func (s *ProductService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *ProductService) page(ctx context.Context, filter repository.ProductFilter, page, perPage int) (*ProductPage, error) {
	if perPage <= 0 {
		perPage = s.pageSize
	}
	if perPage > s.maxPage {
		perPage = s.maxPage
	}
	if page <= 0 {
		page = 1
	}
	if page-1 > math.MaxInt/perPage {
		return nil, apperrors.NewValidationError("page is out of range", map[string]any{"field": "page"})
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	lastPage := (total + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}
	return &ProductPage{
		Products: products,
		Meta: PageMeta{
			CurrentPage: page,
			PerPage:     perPage,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

// Get returns a live product.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, productLookupError(err, id)
	}
	return product, nil
}

// Create stores a new product and publishes product_created.
func (s *ProductService) Create(ctx context.Context, actorID string, input ProductInput) (*domain.Product, error) {
	ids, err := s.checkCategories(ctx, input.Categories)
	if err != nil {
		return nil, err
	}
	product := &domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
	}
	if err := s.products.Create(ctx, product, ids); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewProductEvent(events.EventProductCreated, product, actorID))
	return product, nil
}

// Update applies a partial change. Categories are re-synced only when the
// patch carries them.
func (s *ProductService) Update(ctx context.Context, actorID string, id int64, patch ProductPatch) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}

	var ids []int64
	if patch.Categories != nil {
		if ids, err = s.checkCategories(ctx, *patch.Categories); err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []int64{}
		}
	}
	if err := s.products.Update(ctx, product, ids); err != nil {
		return nil, productLookupError(err, id)
	}
	s.publish(ctx, events.NewProductEvent(events.EventProductUpdated, product, actorID))
	return product, nil
}

// Delete soft-deletes a product and publishes product_deleted.
func (s *ProductService) Delete(ctx context.Context, actorID string, id int64) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return productLookupError(err, id)
	}
	s.publish(ctx, events.NewProductEvent(events.EventProductDeleted, product, actorID))
	return nil
}

// checkCategories de-duplicates ids and rejects the ones that do not exist.
func (s *ProductService) checkCategories(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.categories.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) == len(unique) {
		return unique, nil
	}
	for _, c := range found {
		delete(seen, c.ID)
	}
	missing := make([]int64, 0, len(seen))
	for id := range seen {
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return nil, apperrors.NewValidationError("unknown categories", map[string]any{
		"field":   "categories",
		"missing": missing,
	})
}

func (s *ProductService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func productLookupError(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("product", map[string]any{"id": id})
	}
	return err
}

func sortColumnNames() []string {
	names := make([]string, 0, len(repository.ProductSortColumns))
	for name := range repository.ProductSortColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
