package promo

import (
	"context"
	"fmt"
	"sync"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/rs/zerolog"
)

// resolver implements Resolver over code sets loaded at initialization.
type resolver struct {
	codeSets []CodeSet
	logger   zerolog.Logger
	// No mutex needed - code sets are read-only after initialization
}

// ResolverConfig holds configuration for the promo code resolver.
type ResolverConfig struct {
	// FilePaths is the list of promo code files to load.
	FilePaths []string
}

// DefaultResolverConfig returns the default resolver configuration.
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		FilePaths: []string{
			"data/promo/promocodes.gz",
		},
	}
}

// NewResolver creates a new promo code resolver. It loads all code files at
// initialization time, concurrently.
func NewResolver(ctx context.Context, config *ResolverConfig, loader Loader, logger zerolog.Logger) (Resolver, error) {
	if config == nil {
		config = DefaultResolverConfig()
	}

	logger = logger.With().Str("component", "promo-resolver").Logger()

	logger.Info().
		Int("file_count", len(config.FilePaths)).
		Msg("initialising promo resolver")

	r := &resolver{
		codeSets: make([]CodeSet, 0, len(config.FilePaths)),
		logger:   logger,
	}

	type loadResult struct {
		index int
		set   CodeSet
		err   error
	}

	resultChan := make(chan loadResult, len(config.FilePaths))
	var wg sync.WaitGroup

	for i, filePath := range config.FilePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			set, err := loader.Load(ctx, path)
			resultChan <- loadResult{
				index: index,
				set:   set,
				err:   err,
			}
		}(i, filePath)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in file order so lookup precedence is deterministic.
	results := make([]loadResult, len(config.FilePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	totalCodes := 0
	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", config.FilePaths[i]).
				Msg("failed to load promo code file")
			return nil, fmt.Errorf("failed to load promo code file %s: %w", config.FilePaths[i], result.err)
		}
		r.codeSets = append(r.codeSets, result.set)
		totalCodes += result.set.Size()
	}

	logger.Info().
		Int("total_codes", totalCodes).
		Msg("promo resolver initialised successfully")

	return r, nil
}

// Resolve returns the discount amount for a promo code. The first file
// containing the code wins when the same code appears in several files.
func (r *resolver) Resolve(ctx context.Context, code string) (float64, error) {
	// Length check first (cheap)
	if len(code) < 8 || len(code) > 10 {
		r.logger.Debug().
			Str("promo_code", code).
			Int("length", len(code)).
			Msg("promo code length invalid")
		return 0, model.ErrInvalidPromoCode
	}

	for _, set := range r.codeSets {
		if amount, ok := set.Lookup(code); ok {
			r.logger.Debug().
				Str("promo_code", code).
				Float64("discount", amount).
				Msg("promo code resolved")
			return amount, nil
		}
	}

	r.logger.Debug().Str("promo_code", code).Msg("promo code not found")
	return 0, model.ErrInvalidPromoCode
}

// Close releases resources held by the resolver.
func (r *resolver) Close() error {
	r.codeSets = nil
	r.logger.Info().Msg("promo resolver closed")
	return nil
}
