package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProductCreated EventType = "product_created"
	EventProductUpdated EventType = "product_updated"
	EventProductDeleted EventType = "product_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProductID int64       `json:"product_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProductPayload is a snapshot of the product after the write.
type ProductPayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// NewProductEvent builds an event for the given product snapshot.
func NewProductEvent(eventType EventType, product *domain.Product, actorID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProductID: product.ID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload: ProductPayload{
			Name:  product.Name,
			Price: product.Price,
			Stock: product.Stock,
		},
	}
}
