// Package inventory is the only writer of product stock during order
// operations.
package inventory

import (
	"context"
	"fmt"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Ledger reserves and restores product stock. Both operations run inside
// the caller's transaction so that a multi-item order is all-or-nothing:
// rolling back the transaction undoes every reservation made in it.
type Ledger interface {
	// Reserve decrements stock by quantity, failing with INSUFFICIENT_STOCK
	// when not enough is available and PRODUCT_NOT_FOUND when the product
	// does not exist.
	Reserve(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error

	// Restore increments stock by quantity and flips the in-stock flag back
	// on. Callers must ensure at most one restore per order item per
	// cancellation; the ledger has no idempotency key of its own.
	Restore(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}

type ledger struct {
	logger zerolog.Logger
}

// NewLedger creates a new inventory ledger.
func NewLedger(logger zerolog.Logger) Ledger {
	return &ledger{
		logger: logger.With().Str("component", "inventory-ledger").Logger(),
	}
}

// Reserve performs a single atomic conditional decrement. A read-then-write
// pair would lose the race between two concurrent reservations; the WHERE
// clause makes the stock check and the decrement one statement.
func (l *ledger) Reserve(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE products
		SET stock = stock - $2,
		    in_stock = (stock - $2) > 0
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Int("quantity", quantity).
			Msg("failed to reserve stock")
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the product is missing or the stock ran out; tell them apart.
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
		if err == pgx.ErrNoRows {
			l.logger.Warn().Str("product_id", productID.String()).Msg("product not found during reservation")
			return model.ErrProductNotFound
		}
		if err != nil {
			l.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to check product stock")
			return fmt.Errorf("failed to check product stock: %w", err)
		}
		l.logger.Warn().
			Str("product_id", productID.String()).
			Int("requested", quantity).
			Int("available", stock).
			Msg("insufficient stock")
		return model.ErrInsufficientStock
	}

	l.logger.Debug().
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Msg("stock reserved")

	return nil
}

// Restore increments stock and marks the product available again.
func (l *ledger) Restore(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE products
		SET stock = stock + $2,
		    in_stock = TRUE
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("product_id", productID.String()).
			Int("quantity", quantity).
			Msg("failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		l.logger.Warn().Str("product_id", productID.String()).Msg("product not found during restoration")
		return model.ErrProductNotFound
	}

	l.logger.Debug().
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Msg("stock restored")

	return nil
}
