package domain

import "time"

// Product is a catalog item. Deleted products are kept with DeletedAt set.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Stock       int
	Categories  []Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsLowStock reports whether stock is strictly under threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

// CategoryIDs returns the ids of the attached categories.
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
