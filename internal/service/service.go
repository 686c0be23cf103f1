package service

import (
	"context"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"

	"github.com/google/uuid"
)

// OrderService orchestrates the order lifecycle: creation, cancellation and
// admin-driven status transitions.
type OrderService interface {
	// CreateOrder turns an explicit item list, or the user's cart when no
	// items are supplied, into a durable order with reserved stock.
	CreateOrder(ctx context.Context, userID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error)

	// CancelOrder cancels the user's own order and restores its stock.
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)

	// UpdateOrderStatus drives the state machine on behalf of an
	// administrator.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus model.OrderStatus, actor, note string) (*model.Order, error)

	// GetOrder retrieves an order for its owner, or anyone when admin.
	GetOrder(ctx context.Context, orderID, userID uuid.UUID, admin bool) (*model.Order, error)
}

// OrderQueryService is the read side: listing, filtering and aggregation.
type OrderQueryService interface {
	// ListUserOrders lists the orders belonging to one user.
	ListUserOrders(ctx context.Context, userID uuid.UUID, filter repository.Filter, page repository.Page) ([]model.Order, error)

	// ListAllOrders lists orders across all users (privileged).
	ListAllOrders(ctx context.Context, filter repository.Filter, page repository.Page) ([]model.Order, error)

	// Stats aggregates per-status counts, revenue and recent orders.
	Stats(ctx context.Context) (*repository.Stats, error)
}

// ProductService defines read operations over the catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}
