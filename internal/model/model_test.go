package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingValidate(t *testing.T) {
	tests := []struct {
		name    string
		pricing Pricing
		wantErr error
	}{
		{
			name:    "Consistent components",
			pricing: Pricing{ItemsPrice: 20, ShippingPrice: 5, TaxPrice: 2, DiscountAmount: 3, TotalPrice: 24},
		},
		{
			name:    "Total clamped at zero",
			pricing: Pricing{ItemsPrice: 5, DiscountAmount: 100, TotalPrice: 0},
		},
		{
			name:    "Mismatched total",
			pricing: Pricing{ItemsPrice: 20, TotalPrice: 25},
			wantErr: ErrPricingMismatch,
		},
		{
			name:    "Negative component",
			pricing: Pricing{ItemsPrice: -1, TotalPrice: 0},
			wantErr: ErrNegativePrice,
		},
		{
			name:    "Negative total",
			pricing: Pricing{ItemsPrice: 10, TotalPrice: -10},
			wantErr: ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pricing.Validate()

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddressValidate(t *testing.T) {
	valid := Address{
		FullName:   "Asha Patel",
		Line1:      "12 Harbour Road",
		City:       "Karachi",
		PostalCode: "74200",
		Country:    "PK",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Address)
	}{
		{"Missing full name", func(a *Address) { a.FullName = "" }},
		{"Missing line1", func(a *Address) { a.Line1 = "" }},
		{"Missing city", func(a *Address) { a.City = "" }},
		{"Missing postal code", func(a *Address) { a.PostalCode = "" }},
		{"Missing country", func(a *Address) { a.Country = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := valid
			tt.mutate(&addr)

			err := addr.Validate()

			require.Error(t, err)
			var domainErr *DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, ErrCodeValidation, domainErr.Code)
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	for _, raw := range []string{"gateway-checkout", "manual", "cash-on-delivery"} {
		method, err := ParsePaymentMethod(raw)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethod(raw), method)
	}

	_, err := ParsePaymentMethod("bitcoin")
	require.Error(t, err)

	_, err = ParsePaymentMethod("")
	require.Error(t, err)
}
