package repository

import (
	"context"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows order listings.
type Filter struct {
	Status *model.OrderStatus
}

// Page controls listing pagination and ordering. SortBy is validated
// against an allow-list before it reaches any SQL.
type Page struct {
	Limit   int
	Offset  int
	SortBy  string
	SortDir string // "asc" or "desc"
}

// Stats is the read-side aggregation over all orders.
type Stats struct {
	StatusCounts map[model.OrderStatus]int `json:"statusCounts"`
	TotalRevenue float64                   `json:"totalRevenue"`
	RecentOrders []model.Order             `json:"recentOrders"`
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts the order row, its items and the initial status
	// history entry within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items and status history.
	// Returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate retrieves an order with its items inside the provided
	// transaction, locking the order row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// LatestOrderNumber returns the highest order number carrying the given
	// day prefix, or "" when none has been issued yet.
	LatestOrderNumber(ctx context.Context, tx pgx.Tx, dayPrefix string) (string, error)

	// FindByUser lists a user's orders without items or history.
	FindByUser(ctx context.Context, userID uuid.UUID, filter Filter, page Page) ([]model.Order, error)

	// FindAll lists all orders without items or history (privileged).
	FindAll(ctx context.Context, filter Filter, page Page) ([]model.Order, error)

	// UpdateStatus writes the new status and appends one status history
	// entry in the same transaction; the two never diverge.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, actor, note string, deliveredAt *time.Time) error

	// Stats aggregates per-status counts, revenue over non-cancelled orders
	// and the most recent orders.
	Stats(ctx context.Context, recent int) (*Stats, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
}

// CartRepository defines the interface for the cart lines an order can be
// sourced from.
type CartRepository interface {
	// GetByUser retrieves the user's current cart lines in insertion order.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// Clear deletes the user's cart within the provided transaction, so a
	// cart is only consumed once its order is durably persisted.
	Clear(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}
