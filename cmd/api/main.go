package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/config"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/database"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/handler"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/inventory"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/promo"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/repository"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/router"
	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting e-dukaan order API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)

	// Initialize the inventory ledger
	ledger := inventory.NewLedger(logger)

	// Initialize promo code loading with S3 and local fallback
	fileLoader := promo.NewFileLoader(logger)
	var promoLoader promo.Loader = fileLoader

	if cfg.Promo.S3Enabled {
		s3Loader, err := promo.NewS3Loader(ctx, cfg.Promo.S3Bucket, cfg.Promo.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			promoLoader = promo.NewFallbackLoader(s3Loader, fileLoader, cfg.Promo.S3Prefix, true, logger)
		}
	} else {
		logger.Info().Msg("using local file system for promo code files (S3 disabled)")
	}

	resolverConfig := promo.DefaultResolverConfig()
	if len(cfg.Promo.FilePaths) > 0 {
		resolverConfig = &promo.ResolverConfig{FilePaths: cfg.Promo.FilePaths}
	}
	resolver, err := promo.NewResolver(ctx, resolverConfig, promoLoader, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo resolver: %w", err)
	}
	defer resolver.Close()

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, ledger, resolver, service.Options{
		ShippingPrice: cfg.Pricing.ShippingPrice,
		TaxRate:       cfg.Pricing.TaxRate,
		NumberRetries: service.DefaultOptions().NumberRetries,
	}, logger)
	queryService := service.NewOrderQueryService(orderRepo, cfg.Pricing.StatsRecentN, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, queryService, logger)
	adminHandler := handler.NewAdminOrderHandler(orderService, queryService, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, adminHandler, cfg.Auth.APIKey, cfg.Auth.AdminKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
