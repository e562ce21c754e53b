package domain

import "time"

// Category groups products; a product may belong to many categories.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
