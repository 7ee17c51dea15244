package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"` // unit price captured when the line was first added
}

type Cart struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"userId"`
	Items       map[string]CartItem `json:"items"` // keyed by product ID, one line per product
	TotalAmount float64             `json:"totalAmount"`
	Version     int64               `json:"-"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Recalculate derives TotalAmount from the current lines.
func (c *Cart) Recalculate() {
	var total float64

	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}

	c.TotalAmount = total
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Cart line joined with its current product record, for display.
type PopulatedCartItem struct {
	CartItem
	Product *Product `json:"product,omitempty"`
}

type PopulatedCart struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"userId"`
	Items       []PopulatedCartItem `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
