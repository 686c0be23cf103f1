package model

import (
	"fmt"

	"github.com/google/uuid"
)

// PaymentMethod enumerates the supported ways an order is paid for. Payment
// capture itself happens in an external gateway; the order only records the
// method and whatever transaction reference it is handed.
type PaymentMethod string

const (
	PaymentGatewayCheckout PaymentMethod = "gateway-checkout"
	PaymentManual          PaymentMethod = "manual"
	PaymentCashOnDelivery  PaymentMethod = "cash-on-delivery"
)

// PaymentStatus tracks the settlement state reported by the gateway.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially-refunded"
)

// ParsePaymentMethod converts a raw string into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentGatewayCheckout, PaymentManual, PaymentCashOnDelivery:
		return m, nil
	default:
		return "", fmt.Errorf("unrecognized payment method: %q", s)
	}
}

// PaymentInfo records how an order is paid.
type PaymentInfo struct {
	Method        PaymentMethod `json:"method" db:"payment_method"`
	TransactionID *string       `json:"transactionId,omitempty" db:"transaction_id"`
	Status        PaymentStatus `json:"status" db:"payment_status"`
}

// Address is a structured postal address. All fields are required.
type Address struct {
	FullName   string `json:"fullName" db:"full_name"`
	Line1      string `json:"line1" db:"line1"`
	City       string `json:"city" db:"city"`
	PostalCode string `json:"postalCode" db:"postal_code"`
	Country    string `json:"country" db:"country"`
}

// Validate returns a field-level validation error for the first missing field.
func (a Address) Validate() error {
	switch {
	case a.FullName == "":
		return NewDomainError(ErrCodeValidation, "address: fullName is required")
	case a.Line1 == "":
		return NewDomainError(ErrCodeValidation, "address: line1 is required")
	case a.City == "":
		return NewDomainError(ErrCodeValidation, "address: city is required")
	case a.PostalCode == "":
		return NewDomainError(ErrCodeValidation, "address: postalCode is required")
	case a.Country == "":
		return NewDomainError(ErrCodeValidation, "address: country is required")
	}
	return nil
}

// CreateOrderRequest is the payload for placing an order. When Items is
// empty the caller's cart is used as the item source.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items,omitempty"`
	ShippingAddress Address            `json:"shippingAddress"`
	BillingAddress  *Address           `json:"billingAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod"`
	TransactionID   *string            `json:"transactionId,omitempty"`
	PromoCode       *string            `json:"promoCode,omitempty"`
}

// OrderItemRequest is a single explicit line in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// UpdateStatusRequest is the admin payload for driving the state machine.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}
