package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart. PriceAtAdd is the price captured
// when the line was added and is trusted as the transaction price for
// cart-sourced orders; the live catalogue price is not re-fetched.
type CartItem struct {
	ID         uuid.UUID `json:"-" db:"id"`
	UserID     uuid.UUID `json:"-" db:"user_id"`
	ProductID  uuid.UUID `json:"productId" db:"product_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	PriceAtAdd float64   `json:"priceAtAdd" db:"price_at_add"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
