package service

import (
	"context"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderQueryService implements OrderQueryService over the order repository.
type orderQueryService struct {
	orderRepo repository.OrderRepository
	recentN   int
	logger    zerolog.Logger
}

// NewOrderQueryService creates the read-side order service. recentN is how
// many recent orders the stats aggregation includes.
func NewOrderQueryService(orderRepo repository.OrderRepository, recentN int, logger zerolog.Logger) OrderQueryService {
	if recentN <= 0 {
		recentN = 5
	}
	return &orderQueryService{
		orderRepo: orderRepo,
		recentN:   recentN,
		logger:    logger.With().Str("service", "order-query").Logger(),
	}
}

// ListUserOrders lists the orders belonging to one user.
func (s *orderQueryService) ListUserOrders(ctx context.Context, userID uuid.UUID, filter repository.Filter, page repository.Page) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID, filter, page)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user orders")
		return nil, err
	}
	return orders, nil
}

// ListAllOrders lists orders across all users (privileged).
func (s *orderQueryService) ListAllOrders(ctx context.Context, filter repository.Filter, page repository.Page) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, err
	}
	return orders, nil
}

// Stats aggregates per-status counts, total revenue over non-cancelled
// orders and the most recent orders.
func (s *orderQueryService) Stats(ctx context.Context) (*repository.Stats, error) {
	stats, err := s.orderRepo.Stats(ctx, s.recentN)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate order stats")
		return nil, err
	}
	return stats, nil
}
