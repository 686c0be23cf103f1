package handler

import (
	"encoding/json"
	"net/http"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/service"

	"github.com/rs/zerolog"
)

// AdminOrderHandler handles the privileged order endpoints. Routes using it
// are gated by the admin middleware.
type AdminOrderHandler struct {
	orders  service.OrderService
	queries service.OrderQueryService
	logger  zerolog.Logger
}

// NewAdminOrderHandler creates a new admin order handler.
func NewAdminOrderHandler(orders service.OrderService, queries service.OrderQueryService, logger zerolog.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{
		orders:  orders,
		queries: queries,
		logger:  logger.With().Str("handler", "admin-order").Logger(),
	}
}

// List handles GET /api/admin/orders requests.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, page, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	orders, err := h.queries.ListAllOrders(r.Context(), filter, page)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status requests.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromPath(r.URL.Path, w, h.logger)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	// The acting administrator is identified by the user header; admin
	// authorization itself happened in the middleware.
	actor := r.Header.Get("X-User-ID")
	if actor == "" {
		actor = "unknown"
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), orderID, status, actor, req.Note)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Stats handles GET /api/admin/orders/stats requests.
func (h *AdminOrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
