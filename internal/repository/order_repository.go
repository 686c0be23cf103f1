package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// sortColumns is the allow-list of order listing sort fields. Anything not
// in here falls back to created_at, so caller input never reaches SQL.
var sortColumns = map[string]string{
	"status":     "status",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"totalPrice": "total_price",
}

const orderColumns = `
	id, order_number, user_id,
	ship_full_name, ship_line1, ship_city, ship_postal_code, ship_country,
	bill_full_name, bill_line1, bill_city, bill_postal_code, bill_country,
	payment_method, transaction_id, payment_status,
	items_price, shipping_price, tax_price, discount_amount, total_price,
	status, created_at, updated_at, delivered_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts the order, its items and the first history entry
// within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, user_id,
			ship_full_name, ship_line1, ship_city, ship_postal_code, ship_country,
			bill_full_name, bill_line1, bill_city, bill_postal_code, bill_country,
			payment_method, transaction_id, payment_status,
			items_price, shipping_price, tax_price, discount_amount, total_price,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.UserID,
		order.ShippingAddress.FullName, order.ShippingAddress.Line1, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country,
		order.BillingAddress.FullName, order.BillingAddress.Line1, order.BillingAddress.City,
		order.BillingAddress.PostalCode, order.BillingAddress.Country,
		order.Payment.Method, order.Payment.TransactionID, order.Payment.Status,
		order.Pricing.ItemsPrice, order.Pricing.ShippingPrice, order.Pricing.TaxPrice,
		order.Pricing.DiscountAmount, order.Pricing.TotalPrice,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, title, image, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range order.Items {
		batch.Queue(itemQuery, item.ID, item.OrderID, item.ProductID, item.Title, item.Image, item.UnitPrice, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(order.Items); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", order.Items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	for _, change := range order.StatusHistory {
		if err := r.appendHistory(ctx, tx, order.ID, change); err != nil {
			return err
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID with items and history.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, r.pool, id); err != nil {
		return nil, err
	}
	if order.StatusHistory, err = r.loadHistory(ctx, id); err != nil {
		return nil, err
	}

	return order, nil
}

// GetByIDForUpdate retrieves an order with its items inside the provided
// transaction, holding a row lock so concurrent transitions on the same
// order serialize.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := r.scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order for update")
		return nil, fmt.Errorf("failed to query order for update: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, tx, id); err != nil {
		return nil, err
	}

	return order, nil
}

// LatestOrderNumber returns the highest order number with the given day
// prefix, or "" when today has not issued any yet.
func (r *orderRepository) LatestOrderNumber(ctx context.Context, tx pgx.Tx, dayPrefix string) (string, error) {
	query := `
		SELECT order_number
		FROM orders
		WHERE order_number LIKE $1 || '%'
		ORDER BY order_number DESC
		LIMIT 1
	`

	var number string
	err := tx.QueryRow(ctx, query, dayPrefix).Scan(&number)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("day_prefix", dayPrefix).Msg("failed to query latest order number")
		return "", fmt.Errorf("failed to query latest order number: %w", err)
	}
	return number, nil
}

// FindByUser lists a user's orders.
func (r *orderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter Filter, page Page) ([]model.Order, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	return r.list(ctx, where, args, page)
}

// FindAll lists orders across all users (privileged).
func (r *orderRepository) FindAll(ctx context.Context, filter Filter, page Page) ([]model.Order, error) {
	var where []string
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	return r.list(ctx, where, args, page)
}

// UpdateStatus writes the new status and appends exactly one history entry
// within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, actor, note string, deliveredAt *time.Time) error {
	now := time.Now()

	query := `
		UPDATE orders
		SET status = $2, updated_at = $3, delivered_at = COALESCE($4, delivered_at)
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, status, now, deliveredAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	change := model.StatusChange{Status: status, Actor: actor, Note: note, CreatedAt: now}
	if err := r.appendHistory(ctx, tx, id, change); err != nil {
		return err
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Str("actor", actor).
		Msg("order status updated")

	return nil
}

// Stats aggregates per-status counts, total revenue over non-cancelled
// orders and the most recent orders.
func (r *orderRepository) Stats(ctx context.Context, recent int) (*Stats, error) {
	stats := &Stats{StatusCounts: make(map[model.OrderStatus]int)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query status counts")
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status model.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.StatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	revenueQuery := `
		SELECT COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE status <> $1
	`
	if err := r.pool.QueryRow(ctx, revenueQuery, model.StatusCancelled).Scan(&stats.TotalRevenue); err != nil {
		r.logger.Error().Err(err).Msg("failed to query total revenue")
		return nil, fmt.Errorf("failed to query total revenue: %w", err)
	}

	stats.RecentOrders, err = r.list(ctx, nil, nil, Page{Limit: recent, SortBy: "createdAt", SortDir: "desc"})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// list runs a filtered, paginated, allow-list-sorted SELECT over orders.
func (r *orderRepository) list(ctx context.Context, where []string, args []any, page Page) ([]model.Order, error) {
	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(page.SortDir, "asc") {
		direction = "ASC"
	}
	if page.Limit <= 0 {
		page.Limit = 20
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", column, direction, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadItems retrieves an order's items in a stable order.
func (r *orderRepository) loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, title, image, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Title, &item.Image, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// loadHistory retrieves the append-only status history, oldest first.
func (r *orderRepository) loadHistory(ctx context.Context, orderID uuid.UUID) ([]model.StatusChange, error) {
	query := `
		SELECT status, actor, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []model.StatusChange
	for rows.Next() {
		var change model.StatusChange
		if err := rows.Scan(&change.Status, &change.Actor, &change.Note, &change.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history entry: %w", err)
		}
		history = append(history, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}

// appendHistory inserts one status history entry.
func (r *orderRepository) appendHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, change model.StatusChange) error {
	query := `
		INSERT INTO order_status_history (order_id, status, actor, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query, orderID, change.Status, change.Actor, change.Note, change.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("status", string(change.Status)).
			Msg("failed to append status history")
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

// scanOrder scans one orders row.
func (r *orderRepository) scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID,
		&order.ShippingAddress.FullName, &order.ShippingAddress.Line1, &order.ShippingAddress.City,
		&order.ShippingAddress.PostalCode, &order.ShippingAddress.Country,
		&order.BillingAddress.FullName, &order.BillingAddress.Line1, &order.BillingAddress.City,
		&order.BillingAddress.PostalCode, &order.BillingAddress.Country,
		&order.Payment.Method, &order.Payment.TransactionID, &order.Payment.Status,
		&order.Pricing.ItemsPrice, &order.Pricing.ShippingPrice, &order.Pricing.TaxPrice,
		&order.Pricing.DiscountAmount, &order.Pricing.TotalPrice,
		&order.Status, &order.CreatedAt, &order.UpdatedAt, &order.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
