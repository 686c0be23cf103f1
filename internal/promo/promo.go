package promo

import (
	"context"
)

// Resolver resolves a promo code into the discount amount it grants.
type Resolver interface {
	// Resolve returns the discount for a promo code. A valid code must:
	// - Be between 8 and 10 characters in length
	// - Appear in one of the loaded code files
	Resolve(ctx context.Context, code string) (float64, error)

	// Close releases resources held by the resolver.
	Close() error
}

// CodeSet maps promo codes to discount amounts for fast lookup.
type CodeSet interface {
	// Lookup returns the discount for a code and whether it exists.
	Lookup(code string) (float64, bool)

	// Size returns the number of codes in the set.
	Size() int
}

// Loader defines the interface for loading promo code files.
type Loader interface {
	// Load reads a gzipped promo code file and returns a CodeSet.
	Load(ctx context.Context, filePath string) (CodeSet, error)
}
