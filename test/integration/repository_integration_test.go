package integration

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/inventory"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/promo"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePromoCodes writes a gzipped code file and returns its path.
func writePromoCodes(t *testing.T, codes map[string]float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "promocodes.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	for code, amount := range codes {
		_, err := fmt.Fprintf(gz, "%s\t%.2f\n", code, amount)
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	return path
}

// orderStack wires real repositories and services against the test database.
type orderStack struct {
	orders   service.OrderService
	queries  service.OrderQueryService
	products service.ProductService
}

func newOrderStack(t *testing.T, pool *pgxpool.Pool, opts service.Options) orderStack {
	t.Helper()

	logger := zerolog.Nop()

	promoFile := writePromoCodes(t, map[string]float64{
		"SAVE10OFF": 10.00,
		"WELCOME5X": 5.00,
	})
	resolver, err := promo.NewResolver(context.Background(),
		&promo.ResolverConfig{FilePaths: []string{promoFile}},
		promo.NewFileLoader(logger), logger)
	require.NoError(t, err)
	t.Cleanup(func() { resolver.Close() })

	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	ledger := inventory.NewLedger(logger)

	return orderStack{
		orders:   service.NewOrderService(orderRepo, productRepo, cartRepo, ledger, resolver, opts, logger),
		queries:  service.NewOrderQueryService(orderRepo, 5, logger),
		products: service.NewProductService(productRepo, logger),
	}
}

// newCreateRequest builds a minimal valid order request for explicit items.
func newCreateRequest(lines ...model.OrderItemRequest) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		Items: lines,
		ShippingAddress: model.Address{
			FullName:   "Ada Lovelace",
			Line1:      "12 Analytical Way",
			City:       "London",
			PostalCode: "NW1 2DB",
			Country:    "GB",
		},
		PaymentMethod: string(model.PaymentGatewayCheckout),
	}
}

func TestOrderLifecycleIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	ctx := context.Background()

	t.Run("ConcurrentReservationAdmitsOnlyOne", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{NumberRetries: 10})

		// Walnut Desk starts with stock 4: two orders of 3 cannot both fit.
		desk := products[0]
		req := newCreateRequest(model.OrderItemRequest{ProductID: desk.ID, Quantity: 3})

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := stack.orders.CreateOrder(ctx, uuid.New(), req)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var succeeded, rejected int
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				rejected++
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one reservation should win")
		assert.Equal(t, 1, rejected)
		assert.Equal(t, 1, ProductStock(t, testDB.Pool, desk.ID))
	})

	t.Run("ConcurrentCreationIssuesUniqueNumbers", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{NumberRetries: 10})

		chair := products[1] // stock 10
		const workers = 6

		var wg sync.WaitGroup
		results := make(chan *model.Order, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := newCreateRequest(model.OrderItemRequest{ProductID: chair.ID, Quantity: 1})
				order, err := stack.orders.CreateOrder(ctx, uuid.New(), req)
				assert.NoError(t, err)
				results <- order
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[string]bool)
		for order := range results {
			require.NotNil(t, order)
			assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
			assert.False(t, seen[order.OrderNumber], "duplicate order number %s", order.OrderNumber)
			seen[order.OrderNumber] = true
		}
		assert.Len(t, seen, workers)
		assert.Equal(t, 10-workers, ProductStock(t, testDB.Pool, chair.ID))
	})

	t.Run("MultiItemFailureRollsBackAllReservations", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		desk, lamp := products[0], products[2] // stock 4 and 2
		req := newCreateRequest(
			model.OrderItemRequest{ProductID: desk.ID, Quantity: 2},
			model.OrderItemRequest{ProductID: lamp.ID, Quantity: 3}, // exceeds stock
		)

		_, err := stack.orders.CreateOrder(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, model.ErrInsufficientStock)

		// The desk reservation made before the failing lamp line was undone.
		assert.Equal(t, 4, ProductStock(t, testDB.Pool, desk.ID))
		assert.Equal(t, 2, ProductStock(t, testDB.Pool, lamp.ID))
	})

	t.Run("CancelRestoresStockOnce", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		desk := products[0]
		userID := uuid.New()
		order, err := stack.orders.CreateOrder(ctx, userID,
			newCreateRequest(model.OrderItemRequest{ProductID: desk.ID, Quantity: 2}))
		require.NoError(t, err)
		require.Equal(t, 2, ProductStock(t, testDB.Pool, desk.ID))

		cancelled, err := stack.orders.CancelOrder(ctx, order.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, cancelled.Status)
		assert.Equal(t, 4, ProductStock(t, testDB.Pool, desk.ID))

		// The history gained exactly one entry.
		stored, err := stack.orders.GetOrder(ctx, order.ID, userID, false)
		require.NoError(t, err)
		require.Len(t, stored.StatusHistory, 2)
		assert.Equal(t, model.StatusPending, stored.StatusHistory[0].Status)
		assert.Equal(t, model.StatusCancelled, stored.StatusHistory[1].Status)
	})

	t.Run("ConcurrentDoubleCancelRestoresOnce", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		desk := products[0]
		userID := uuid.New()
		order, err := stack.orders.CreateOrder(ctx, userID,
			newCreateRequest(model.OrderItemRequest{ProductID: desk.ID, Quantity: 2}))
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := stack.orders.CancelOrder(ctx, order.ID, userID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var succeeded int
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, model.ErrOrderNotCancellable)
			}
		}
		assert.Equal(t, 1, succeeded, "only one cancel may restore stock")
		assert.Equal(t, 4, ProductStock(t, testDB.Pool, desk.ID))
	})

	t.Run("CartCheckoutConsumesCartAtCapturedPrices", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{ShippingPrice: 5.00, TaxRate: 0.10})

		desk, chair := products[0], products[1]
		userID := uuid.New()

		// The desk was added to the cart before a price rise to 120.00.
		SeedCartItem(t, testDB.Pool, userID, desk.ID, 1, 100.00)
		SeedCartItem(t, testDB.Pool, userID, chair.ID, 2, 45.00)

		req := newCreateRequest() // no explicit items: source from cart
		order, err := stack.orders.CreateOrder(ctx, userID, req)
		require.NoError(t, err)

		require.Len(t, order.Items, 2)
		byProduct := make(map[uuid.UUID]model.OrderItem)
		for _, item := range order.Items {
			byProduct[item.ProductID] = item
		}
		assert.Equal(t, 100.00, byProduct[desk.ID].UnitPrice, "cart lines keep the price captured at add time")
		assert.Equal(t, 45.00, byProduct[chair.ID].UnitPrice)

		// 190 items + 5 shipping + 19 tax
		assert.Equal(t, 190.00, order.Pricing.ItemsPrice)
		assert.Equal(t, 19.00, order.Pricing.TaxPrice)
		assert.Equal(t, 214.00, order.Pricing.TotalPrice)

		var remaining int
		err = testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM cart_items WHERE user_id = $1", userID).Scan(&remaining)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining, "a placed order consumes the cart")
	})

	t.Run("PromoDiscountAppliedAtCreation", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		chair := products[1]
		code := "SAVE10OFF"
		req := newCreateRequest(model.OrderItemRequest{ProductID: chair.ID, Quantity: 1})
		req.PromoCode = &code

		order, err := stack.orders.CreateOrder(ctx, uuid.New(), req)
		require.NoError(t, err)
		assert.Equal(t, 10.00, order.Pricing.DiscountAmount)
		assert.Equal(t, 35.00, order.Pricing.TotalPrice)

		bad := "NOSUCHCODE"
		req.PromoCode = &bad
		_, err = stack.orders.CreateOrder(ctx, uuid.New(), req)
		assert.ErrorIs(t, err, model.ErrInvalidPromoCode)
	})

	t.Run("StatusProgressionAppendsHistory", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		userID := uuid.New()
		order, err := stack.orders.CreateOrder(ctx, userID,
			newCreateRequest(model.OrderItemRequest{ProductID: products[1].ID, Quantity: 1}))
		require.NoError(t, err)

		steps := []model.OrderStatus{
			model.StatusConfirmed,
			model.StatusProcessing,
			model.StatusShipped,
			model.StatusDelivered,
		}
		for _, next := range steps {
			updated, err := stack.orders.UpdateOrderStatus(ctx, order.ID, next, "ops", "")
			require.NoError(t, err, "transition to %s", next)
			assert.Equal(t, next, updated.Status)
		}

		stored, err := stack.orders.GetOrder(ctx, order.ID, userID, false)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivered, stored.Status)
		require.NotNil(t, stored.DeliveredAt)
		require.Len(t, stored.StatusHistory, 5)
		for i, next := range steps {
			assert.Equal(t, next, stored.StatusHistory[i+1].Status)
			assert.Equal(t, "admin:ops", stored.StatusHistory[i+1].Actor)
		}

		// Delivered orders cannot move backwards or be cancelled.
		_, err = stack.orders.UpdateOrderStatus(ctx, order.ID, model.StatusProcessing, "ops", "")
		assert.ErrorIs(t, err, model.ErrIllegalTransition)
		_, err = stack.orders.CancelOrder(ctx, order.ID, userID)
		assert.ErrorIs(t, err, model.ErrOrderNotCancellable)
	})

	t.Run("StatsAggregateAcrossUsers", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedProducts(t, testDB.Pool)
		stack := newOrderStack(t, testDB.Pool, service.Options{})

		chair := products[1]
		first, err := stack.orders.CreateOrder(ctx, uuid.New(),
			newCreateRequest(model.OrderItemRequest{ProductID: chair.ID, Quantity: 1}))
		require.NoError(t, err)

		userID := uuid.New()
		second, err := stack.orders.CreateOrder(ctx, userID,
			newCreateRequest(model.OrderItemRequest{ProductID: chair.ID, Quantity: 2}))
		require.NoError(t, err)
		_, err = stack.orders.CancelOrder(ctx, second.ID, userID)
		require.NoError(t, err)

		stats, err := stack.queries.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.StatusCounts[model.StatusPending])
		assert.Equal(t, 1, stats.StatusCounts[model.StatusCancelled])
		assert.Equal(t, first.Pricing.TotalPrice, stats.TotalRevenue, "cancelled orders do not count as revenue")
		assert.Len(t, stats.RecentOrders, 2)
	})
}
