package model

// Standard error codes for API responses
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeEmptyOrder           = "EMPTY_ORDER"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeAccessDenied         = "ACCESS_DENIED"
	ErrCodeOrderNotCancellable  = "ORDER_NOT_CANCELLABLE"
	ErrCodeIllegalTransition    = "ILLEGAL_TRANSITION"
	ErrCodeDuplicateOrderNumber = "DUPLICATE_ORDER_NUMBER"
	ErrCodeInvalidPromoCode     = "INVALID_PROMO_CODE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is a typed business error: a stable code plus a human-readable
// message. Storage-layer internals never travel through it.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyOrder           = NewDomainError(ErrCodeEmptyOrder, "Order has no items to place")
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrInsufficientStock    = NewDomainError(ErrCodeInsufficientStock, "Requested quantity exceeds available stock")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrAccessDenied         = NewDomainError(ErrCodeAccessDenied, "Not allowed to access this order")
	ErrOrderNotCancellable  = NewDomainError(ErrCodeOrderNotCancellable, "Order can no longer be cancelled")
	ErrIllegalTransition    = NewDomainError(ErrCodeIllegalTransition, "Requested status transition is not allowed")
	ErrDuplicateOrderNumber = NewDomainError(ErrCodeDuplicateOrderNumber, "Order number already issued")
	ErrInvalidQuantity      = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrNegativePrice        = NewDomainError(ErrCodeValidation, "Prices must not be negative")
	ErrPricingMismatch      = NewDomainError(ErrCodeValidation, "Total price does not match its components")
	ErrInvalidPromoCode     = NewDomainError(ErrCodeInvalidPromoCode, "Promo code is not recognized")
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
