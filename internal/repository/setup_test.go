package repository

import (
	"context"
	"testing"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Create schema
	createSchema(t, pool)

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// createSchema creates the necessary database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
			stock INTEGER NOT NULL CHECK (stock >= 0),
			in_stock BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			user_id UUID NOT NULL,
			ship_full_name TEXT NOT NULL,
			ship_line1 TEXT NOT NULL,
			ship_city TEXT NOT NULL,
			ship_postal_code TEXT NOT NULL,
			ship_country TEXT NOT NULL,
			bill_full_name TEXT NOT NULL,
			bill_line1 TEXT NOT NULL,
			bill_city TEXT NOT NULL,
			bill_postal_code TEXT NOT NULL,
			bill_country TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			transaction_id TEXT,
			payment_status TEXT NOT NULL,
			items_price DOUBLE PRECISION NOT NULL CHECK (items_price >= 0),
			shipping_price DOUBLE PRECISION NOT NULL CHECK (shipping_price >= 0),
			tax_price DOUBLE PRECISION NOT NULL CHECK (tax_price >= 0),
			discount_amount DOUBLE PRECISION NOT NULL CHECK (discount_amount >= 0),
			total_price DOUBLE PRECISION NOT NULL CHECK (total_price >= 0),
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			delivered_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
		CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
		CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID NOT NULL,
			title TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			unit_price DOUBLE PRECISION NOT NULL CHECK (unit_price >= 0),
			quantity INTEGER NOT NULL CHECK (quantity > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

		CREATE TABLE IF NOT EXISTS order_status_history (
			id BIGSERIAL PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			actor TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_order_status_history_order_id ON order_status_history(order_id);

		CREATE TABLE IF NOT EXISTS cart_items (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			product_id UUID NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price_at_add DOUBLE PRECISION NOT NULL CHECK (price_at_add >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON cart_items(user_id);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err)
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (id, title, image, price, stock, in_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Title, p.Image, p.Price, p.Stock, p.InStock, p.CreatedAt)
		require.NoError(t, err)
	}
}

// testOrder builds a fully populated order ready for insertion.
func testOrder(userID uuid.UUID, number string, status model.OrderStatus) *model.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	orderID := uuid.New()

	addr := model.Address{
		FullName:   "Asha Patel",
		Line1:      "12 Harbour Road",
		City:       "Karachi",
		PostalCode: "74200",
		Country:    "PK",
	}

	return &model.Order{
		ID:              orderID,
		OrderNumber:     number,
		UserID:          userID,
		ShippingAddress: addr,
		BillingAddress:  addr,
		Payment: model.PaymentInfo{
			Method: model.PaymentManual,
			Status: model.PaymentPending,
		},
		Items: []model.OrderItem{
			{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: uuid.New(),
				Title:     "Walnut Desk",
				Image:     "desk.jpg",
				UnitPrice: 120.00,
				Quantity:  1,
			},
			{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: uuid.New(),
				Title:     "Oak Chair",
				Image:     "chair.jpg",
				UnitPrice: 45.00,
				Quantity:  2,
			},
		},
		Pricing: model.Pricing{
			ItemsPrice: 210.00,
			TotalPrice: 210.00,
		},
		Status: status,
		StatusHistory: []model.StatusChange{
			{Status: model.StatusPending, Actor: "system", Note: "order placed", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// insertOrder persists an order through the repository inside its own
// transaction.
func insertOrder(t *testing.T, repo OrderRepository, order *model.Order) {
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))
}
