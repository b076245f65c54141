package catalog

import "github.com/commerce/backend/internal/domain/shared"

// Aggregate type constant for Product
const AggregateTypeProduct = "Product"

// Product event types
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
)

// ProductEvent is published when a product changes
type ProductEvent struct {
	shared.BaseDomainEvent
	Handle string `json:"handle"`
	Status string `json:"status"`
}

// NewProductEvent creates a product event of the given type
func NewProductEvent(eventType string, p *Product) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID),
		Handle:          p.Handle,
		Status:          string(p.Status),
	}
}
