package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is the read-side view of the catalogue. Stock and the derived
// in-stock flag are mutated only through the inventory ledger during order
// operations.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Image     string    `json:"image" db:"image"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	InStock   bool      `json:"inStock" db:"in_stock"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
