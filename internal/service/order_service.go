package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/inventory"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/ordernumber"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/pricing"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/promo"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// Options tunes the order lifecycle manager.
type Options struct {
	// ShippingPrice is the flat shipping charge applied to every order.
	ShippingPrice float64

	// TaxRate is applied to the items price to derive the tax price.
	TaxRate float64

	// NumberRetries is how many times order creation is retried when the
	// optimistically generated order number collides with a concurrent one.
	NumberRetries int
}

// DefaultOptions returns the default lifecycle options.
func DefaultOptions() Options {
	return Options{
		ShippingPrice: 0,
		TaxRate:       0,
		NumberRetries: 3,
	}
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	ledger      inventory.Ledger
	resolver    promo.Resolver
	opts        Options
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order lifecycle manager.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	ledger inventory.Ledger,
	resolver promo.Resolver,
	opts Options,
	logger zerolog.Logger,
) OrderService {
	if opts.NumberRetries <= 0 {
		opts.NumberRetries = DefaultOptions().NumberRetries
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		ledger:      ledger,
		resolver:    resolver,
		opts:        opts,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// sourceLine is a resolved item before snapshotting: cart-sourced lines
// carry the price captured at add time, explicit lines take the live
// catalogue price during snapshotting.
type sourceLine struct {
	productID uuid.UUID
	quantity  int
	price     *float64
}

// CreateOrder resolves the item source, reserves stock, prices the order,
// assigns an order number and persists the result - all stock reservations
// and the order insert share one transaction, so a failure partway through
// rolls back every prior reservation in the same request.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	method, billing, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	lines, fromCart, err := s.resolveSource(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, model.ErrEmptyOrder
	}

	discount := 0.0
	if req.PromoCode != nil && *req.PromoCode != "" {
		discount, err = s.resolver.Resolve(ctx, *req.PromoCode)
		if err != nil {
			s.logger.Warn().Str("promo_code", *req.PromoCode).Err(err).Msg("invalid promo code")
			return nil, err
		}
	}

	// Pre-check every product before touching stock.
	products, err := s.lookupProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	for attempt := 0; attempt < s.opts.NumberRetries; attempt++ {
		order, err = s.createOrderTx(ctx, userID, req, method, billing, lines, products, discount, fromCart)
		if err == nil {
			break
		}
		if !isOrderNumberCollision(err) {
			return nil, err
		}
		s.logger.Warn().
			Int("attempt", attempt+1).
			Msg("order number collision, retrying with a fresh sequence")
	}
	if err != nil {
		if isOrderNumberCollision(err) {
			s.logger.Error().Err(err).Msg("order number retries exhausted")
			return nil, model.ErrDuplicateOrderNumber
		}
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Float64("total_price", order.Pricing.TotalPrice).
		Msg("order created successfully")

	return order, nil
}

// createOrderTx runs one attempt of the creation transaction.
func (s *orderService) createOrderTx(
	ctx context.Context,
	userID uuid.UUID,
	req *model.CreateOrderRequest,
	method model.PaymentMethod,
	billing model.Address,
	lines []sourceLine,
	products map[uuid.UUID]model.Product,
	discount float64,
	fromCart bool,
) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure the transaction is rolled back on error, undoing every
	// reservation made below.
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := s.now()
	orderID := uuid.New()

	items := make([]model.OrderItem, 0, len(lines))
	priceLines := make([]pricing.Line, 0, len(lines))

	for _, line := range lines {
		product := products[line.productID]

		if err = s.ledger.Reserve(ctx, tx, line.productID, line.quantity); err != nil {
			return nil, err
		}

		unitPrice := product.Price
		if line.price != nil {
			unitPrice = *line.price
		}

		items = append(items, model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Title:     product.Title,
			Image:     product.Image,
			UnitPrice: unitPrice,
			Quantity:  line.quantity,
		})
		priceLines = append(priceLines, pricing.Line{UnitPrice: unitPrice, Quantity: line.quantity})
	}

	itemsTotal := 0.0
	for _, line := range priceLines {
		itemsTotal += line.UnitPrice * float64(line.Quantity)
	}

	var orderPricing model.Pricing
	orderPricing, err = pricing.Calculate(pricing.Input{
		Lines:          priceLines,
		ShippingPrice:  s.opts.ShippingPrice,
		TaxPrice:       pricing.Round2(itemsTotal * s.opts.TaxRate),
		DiscountAmount: discount,
	})
	if err != nil {
		return nil, err
	}
	if err = orderPricing.Validate(); err != nil {
		return nil, err
	}

	var latest string
	latest, err = s.orderRepo.LatestOrderNumber(ctx, tx, ordernumber.DayPrefix(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	var number string
	number, err = ordernumber.Next(latest, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order := &model.Order{
		ID:              orderID,
		OrderNumber:     number,
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Payment: model.PaymentInfo{
			Method:        method,
			TransactionID: req.TransactionID,
			Status:        model.PaymentPending,
		},
		Pricing:   orderPricing,
		Status:    model.StatusPending,
		StatusHistory: []model.StatusChange{
			{Status: model.StatusPending, Actor: "system", Note: "order placed", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	// A cart is consumed only once its order is durably persisted; clearing
	// it in the same transaction keeps the two in step.
	if fromCart {
		if err = s.cartRepo.Clear(ctx, tx, userID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// CancelOrder cancels the user's own order, restoring each item's stock
// exactly once. The order row is locked while the precondition is checked,
// so a concurrent second cancel is rejected rather than re-run.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var order *model.Order
	order, err = s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.UserID != userID {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("user_id", userID.String()).
			Msg("user attempted to cancel another user's order")
		err = model.ErrAccessDenied
		return nil, err
	}
	if !order.Status.Cancellable() {
		err = model.ErrOrderNotCancellable
		return nil, err
	}

	for _, item := range order.Items {
		if err = s.ledger.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, model.StatusCancelled, "user:"+userID.String(), "cancelled by user", nil); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order cancelled")

	return s.orderRepo.GetByID(ctx, orderID)
}

// UpdateOrderStatus validates and applies one state-machine transition on
// behalf of an administrator. Transitioning into cancelled restores stock;
// transitioning into delivered stamps the delivery time.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus model.OrderStatus, actor, note string) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var order *model.Order
	order, err = s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if !order.Status.CanTransition(newStatus) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("from", string(order.Status)).
			Str("to", string(newStatus)).
			Msg("illegal status transition rejected")
		err = model.ErrIllegalTransition
		return nil, err
	}

	if newStatus == model.StatusCancelled {
		for _, item := range order.Items {
			if err = s.ledger.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	var deliveredAt *time.Time
	if newStatus == model.StatusDelivered {
		t := s.now()
		deliveredAt = &t
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, newStatus, "admin:"+actor, note, deliveredAt); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(order.Status)).
		Str("to", string(newStatus)).
		Str("actor", actor).
		Msg("order status updated")

	return s.orderRepo.GetByID(ctx, orderID)
}

// GetOrder retrieves an order for its owner, or for anyone when admin.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, admin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !admin && order.UserID != userID {
		return nil, model.ErrAccessDenied
	}
	return order, nil
}

// validateRequest checks the parts of the request that are independent of
// the item source, before any mutation happens.
func (s *orderService) validateRequest(req *model.CreateOrderRequest) (model.PaymentMethod, model.Address, error) {
	if req == nil {
		return "", model.Address{}, model.NewDomainError(model.ErrCodeValidation, "order request is nil")
	}

	method, err := model.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return "", model.Address{}, model.NewDomainError(model.ErrCodeValidation, err.Error())
	}

	if err := req.ShippingAddress.Validate(); err != nil {
		return "", model.Address{}, err
	}

	// Billing defaults to shipping when omitted.
	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		if err := req.BillingAddress.Validate(); err != nil {
			return "", model.Address{}, err
		}
		billing = *req.BillingAddress
	}

	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return "", model.Address{}, model.NewDomainError(model.ErrCodeValidation,
				fmt.Sprintf("item %d: product ID is required", i))
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return "", model.Address{}, model.ErrInvalidQuantity
		}
	}

	return method, billing, nil
}

// resolveSource turns the request into source lines: the explicit item list
// when supplied, otherwise the user's cart with its captured prices.
func (s *orderService) resolveSource(ctx context.Context, userID uuid.UUID, req *model.CreateOrderRequest) ([]sourceLine, bool, error) {
	if len(req.Items) > 0 {
		lines := make([]sourceLine, len(req.Items))
		for i, item := range req.Items {
			lines[i] = sourceLine{productID: item.ProductID, quantity: item.Quantity}
		}
		return lines, false, nil
	}

	cartItems, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}

	lines := make([]sourceLine, len(cartItems))
	for i, item := range cartItems {
		price := item.PriceAtAdd
		lines[i] = sourceLine{productID: item.ProductID, quantity: item.Quantity, price: &price}
	}
	return lines, true, nil
}

// lookupProducts fetches every referenced product, failing when any is
// missing.
func (s *orderService) lookupProducts(ctx context.Context, lines []sourceLine) (map[uuid.UUID]model.Product, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.productID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range lines {
		if _, ok := byID[line.productID]; !ok {
			s.logger.Warn().Str("product_id", line.productID.String()).Msg("product not found")
			return nil, model.ErrProductNotFound
		}
	}

	return byID, nil
}

// isOrderNumberCollision reports whether err is the unique-index violation
// raised when two concurrent creations computed the same order number.
func isOrderNumberCollision(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}
