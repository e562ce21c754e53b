package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*domain.User{}}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = "user-" + strconv.Itoa(f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) ListActive(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.users {
		if u.Status == domain.UserStatusActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCategories struct {
	items []domain.Category
}

func newFakeCategories(names ...string) *fakeCategories {
	f := &fakeCategories{}
	for i, name := range names {
		f.items = append(f.items, domain.Category{ID: int64(i + 1), Name: name})
	}
	return f
}

func (f *fakeCategories) List(context.Context) ([]domain.Category, error) {
	return append([]domain.Category{}, f.items...), nil
}

func (f *fakeCategories) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			c := f.items[i]
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCategories) FindByIDs(_ context.Context, ids []int64) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, id := range ids {
		for _, c := range f.items {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeCategories) EnsureNames(_ context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		exists := false
		for _, c := range f.items {
			exists = exists || c.Name == name
		}
		if !exists {
			f.items = append(f.items, domain.Category{ID: int64(len(f.items) + 1), Name: name})
			added++
		}
	}
	return added, nil
}

// fakeProducts keeps products in memory and resolves categories from cats.
type fakeProducts struct {
	mu         sync.Mutex
	cats       *fakeCategories
	items      map[int64]*domain.Product
	links      map[int64][]int64
	seq        int64
	lastFilter repository.ProductFilter
}

func newFakeProducts(cats *fakeCategories) *fakeProducts {
	return &fakeProducts{cats: cats, items: map[int64]*domain.Product{}, links: map[int64][]int64{}}
}

func (f *fakeProducts) hydrate(p *domain.Product) domain.Product {
	out := *p
	out.Categories = []domain.Category{}
	for _, id := range f.links[p.ID] {
		if c, err := f.cats.GetByID(context.Background(), id); err == nil {
			out.Categories = append(out.Categories, *c)
		}
	}
	return out
}

func (f *fakeProducts) Create(_ context.Context, product *domain.Product, categoryIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	product.ID = f.seq
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	stored := *product
	f.items[product.ID] = &stored
	f.links[product.ID] = append([]int64{}, categoryIDs...)
	*product = f.hydrate(&stored)
	return nil
}

func (f *fakeProducts) Update(_ context.Context, product *domain.Product, categoryIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.items[product.ID]
	if !ok || existing.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	stored := *product
	stored.UpdatedAt = time.Now()
	f.items[product.ID] = &stored
	if categoryIDs != nil {
		f.links[product.ID] = append([]int64{}, categoryIDs...)
	}
	*product = f.hydrate(&stored)
	return nil
}

func (f *fakeProducts) SoftDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	out := f.hydrate(p)
	return &out, nil
}

func (f *fakeProducts) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	matched := []domain.Product{}
	for _, p := range f.items {
		if p.DeletedAt != nil {
			continue
		}
		h := f.hydrate(p)
		if filter.CategoryName != nil && !hasCategory(h, func(c domain.Category) bool { return c.Name == *filter.CategoryName }) {
			continue
		}
		if filter.CategoryID != nil && !hasCategory(h, func(c domain.Category) bool { return c.ID == *filter.CategoryID }) {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			if !strings.Contains(strings.ToLower(h.Name), term) && !strings.Contains(strings.ToLower(h.Description), term) {
				continue
			}
		}
		matched = append(matched, h)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (f *fakeProducts) ListLowStock(_ context.Context, threshold int) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Product{}
	for _, p := range f.items {
		if p.DeletedAt == nil && p.Stock < threshold {
			out = append(out, f.hydrate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasCategory(p domain.Product, match func(domain.Category) bool) bool {
	for _, c := range p.Categories {
		if match(c) {
			return true
		}
	}
	return false
}
