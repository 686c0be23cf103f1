package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/middleware"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	orders  service.OrderService
	queries service.OrderQueryService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, queries service.OrderQueryService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		queries: queries,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user identity", h.logger)
		return
	}

	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests: the caller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user identity", h.logger)
		return
	}

	filter, page, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	orders, err := h.queries.ListUserOrders(r.Context(), userID, filter, page)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user identity", h.logger)
		return
	}

	orderID, ok := orderIDFromPath(r.URL.Path, w, h.logger)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, userID, false)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user identity", h.logger)
		return
	}

	orderID, ok := orderIDFromPath(r.URL.Path, w, h.logger)
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), orderID, userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// orderIDFromPath extracts the order UUID from paths like
// /api/orders/{id} or /api/orders/{id}/cancel.
func orderIDFromPath(path string, w http.ResponseWriter, logger zerolog.Logger) (uuid.UUID, bool) {
	trimmed := strings.TrimPrefix(path, "/api/orders/")
	trimmed = strings.TrimPrefix(trimmed, "/api/admin/orders/")
	trimmed = strings.TrimSuffix(trimmed, "/cancel")
	trimmed = strings.TrimSuffix(trimmed, "/status")
	trimmed = strings.Trim(trimmed, "/")

	if trimmed == "" {
		writeError(w, http.StatusBadRequest, "order ID is required", logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(trimmed)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", logger)
		return uuid.Nil, false
	}

	return orderID, true
}

// listParams parses the shared filter/pagination query parameters.
func listParams(r *http.Request) (repository.Filter, repository.Page, error) {
	var filter repository.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseOrderStatus(raw)
		if err != nil {
			return filter, repository.Page{}, err
		}
		filter.Status = &status
	}

	page := repository.Page{
		SortBy:  r.URL.Query().Get("sortBy"),
		SortDir: r.URL.Query().Get("sortDir"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Offset = v
		}
	}

	return filter, page, nil
}
