package router

import (
	"net/http"
	"strings"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/handler"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates the HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	adminHandler *handler.AdminOrderHandler,
	apiKey string,
	adminKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product routes
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.GetByID(w, r)
			return
		}
		productHandler.GetAll(w, r)
	}
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order routes
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isCollection := path == "/api/orders" || path == "/api/orders/"

		switch {
		case r.Method == http.MethodPost && isCollection:
			orderHandler.Create(w, r)
		case r.Method == http.MethodGet && isCollection:
			orderHandler.List(w, r)
		case r.Method == http.MethodPost && strings.HasSuffix(path, "/cancel"):
			orderHandler.Cancel(w, r)
		case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/orders/"):
			orderHandler.GetByID(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Admin routes, additionally gated by the admin key
	adminRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case r.Method == http.MethodGet && (path == "/api/admin/orders" || path == "/api/admin/orders/"):
			adminHandler.List(w, r)
		case r.Method == http.MethodGet && strings.HasSuffix(path, "/stats"):
			adminHandler.Stats(w, r)
		case r.Method == http.MethodPut && strings.HasSuffix(path, "/status"):
			adminHandler.UpdateStatus(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	adminChain := middleware.AdminAuth(adminKey, logger)(http.HandlerFunc(adminRouteHandler))
	mux.Handle("/api/admin/orders", adminChain)
	mux.Handle("/api/admin/orders/", adminChain)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
