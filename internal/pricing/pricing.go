// Package pricing computes the monetary breakdown of an order. It is pure:
// no storage, no clocks, no side effects.
package pricing

import (
	"math"

	"github.com/faizan-ahmad5/e-dukaan-backend-sub000/internal/model"
)

// Line is one (unit price, quantity) pair contributing to the items price.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Input carries the components of an order's price. Shipping, tax and
// discount default to zero when absent.
type Input struct {
	Lines          []Line
	ShippingPrice  float64
	TaxPrice       float64
	DiscountAmount float64
}

// Calculate produces the pricing for an order. It rejects negative
// quantities or amounts before computing anything and rounds every figure to
// the currency's minor unit (2 decimal places). The total is floored at 0.
func Calculate(in Input) (model.Pricing, error) {
	if in.ShippingPrice < 0 || in.TaxPrice < 0 || in.DiscountAmount < 0 {
		return model.Pricing{}, model.ErrNegativePrice
	}

	items := 0.0
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return model.Pricing{}, model.ErrInvalidQuantity
		}
		if line.UnitPrice < 0 {
			return model.Pricing{}, model.ErrNegativePrice
		}
		items += line.UnitPrice * float64(line.Quantity)
	}
	items = round2(items)

	total := items + round2(in.ShippingPrice) + round2(in.TaxPrice) - round2(in.DiscountAmount)
	if total < 0 {
		total = 0
	}

	return model.Pricing{
		ItemsPrice:     items,
		ShippingPrice:  round2(in.ShippingPrice),
		TaxPrice:       round2(in.TaxPrice),
		DiscountAmount: round2(in.DiscountAmount),
		TotalPrice:     round2(total),
	}, nil
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
