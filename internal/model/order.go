package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Order is the root aggregate for a customer order. Everything except the
// status, status history and delivered-at timestamp is written once at
// creation and never mutated afterwards.
type Order struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	OrderNumber     string         `json:"orderNumber" db:"order_number"`
	UserID          uuid.UUID      `json:"userId" db:"user_id"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	BillingAddress  Address        `json:"billingAddress"`
	Payment         PaymentInfo    `json:"paymentInfo"`
	Pricing         Pricing        `json:"pricing"`
	Status          OrderStatus    `json:"orderStatus" db:"status"`
	StatusHistory   []StatusChange `json:"statusHistory"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty" db:"delivered_at"`
}

// OrderItem is a line item owned by exactly one order. Title, image and unit
// price are snapshots taken at order time, insulating the order from later
// catalogue edits.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Title     string    `json:"title" db:"title"`
	Image     string    `json:"image" db:"image"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// StatusChange is one entry of an order's append-only status history.
type StatusChange struct {
	Status    OrderStatus `json:"status" db:"status"`
	Actor     string      `json:"actor" db:"actor"`
	Note      string      `json:"note,omitempty" db:"note"`
	CreatedAt time.Time   `json:"timestamp" db:"created_at"`
}

// Pricing holds the monetary breakdown of an order. All fields are
// non-negative and TotalPrice must equal the component sum clamped at zero.
type Pricing struct {
	ItemsPrice     float64 `json:"itemsPrice" db:"items_price"`
	ShippingPrice  float64 `json:"shippingPrice" db:"shipping_price"`
	TaxPrice       float64 `json:"taxPrice" db:"tax_price"`
	DiscountAmount float64 `json:"discountAmount" db:"discount_amount"`
	TotalPrice     float64 `json:"totalPrice" db:"total_price"`
}

// Validate checks the cross-field pricing invariant at minor-unit precision.
func (p Pricing) Validate() error {
	if p.ItemsPrice < 0 || p.ShippingPrice < 0 || p.TaxPrice < 0 || p.DiscountAmount < 0 || p.TotalPrice < 0 {
		return ErrNegativePrice
	}
	expected := p.ItemsPrice + p.ShippingPrice + p.TaxPrice - p.DiscountAmount
	if expected < 0 {
		expected = 0
	}
	if math.Abs(math.Round(expected*100)-math.Round(p.TotalPrice*100)) >= 1 {
		return ErrPricingMismatch
	}
	return nil
}
