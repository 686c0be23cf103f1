package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

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
			product_id UUID NOT NULL REFERENCES products(id),
			title TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			unit_price DOUBLE PRECISION NOT NULL CHECK (unit_price >= 0),
			quantity INTEGER NOT NULL CHECK (quantity > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);

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
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price_at_add DOUBLE PRECISION NOT NULL CHECK (price_at_add >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON cart_items(user_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProducts inserts test product data and returns the seeded products.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	products := []model.Product{
		{ID: uuid.New(), Title: "Walnut Desk", Image: "desk.jpg", Price: 120.00, Stock: 4, InStock: true, CreatedAt: now},
		{ID: uuid.New(), Title: "Oak Chair", Image: "chair.jpg", Price: 45.00, Stock: 10, InStock: true, CreatedAt: now},
		{ID: uuid.New(), Title: "Desk Lamp", Image: "lamp.jpg", Price: 30.00, Stock: 2, InStock: true, CreatedAt: now},
		{ID: uuid.New(), Title: "Monitor Stand", Image: "stand.jpg", Price: 25.00, Stock: 0, InStock: false, CreatedAt: now},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, title, image, price, stock, in_stock, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			p.ID, p.Title, p.Image, p.Price, p.Stock, p.InStock, p.CreatedAt,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.Title, err)
		}
	}

	return products
}

// SeedCartItem inserts one cart line for a user.
func SeedCartItem(t *testing.T, pool *pgxpool.Pool, userID, productID uuid.UUID, quantity int, priceAtAdd float64) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"INSERT INTO cart_items (id, user_id, product_id, quantity, price_at_add) VALUES ($1, $2, $3, $4, $5)",
		uuid.New(), userID, productID, quantity, priceAtAdd,
	)
	if err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
}

// ProductStock reads a product's current stock directly.
func ProductStock(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read product stock: %v", err)
	}
	return stock
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_status_history", "order_items", "cart_items", "orders", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
