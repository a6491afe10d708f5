package totals

import (
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/shopspring/decimal"
)

var (
	lowerTierLimit = decimal.NewFromInt(200)
	upperTierLimit = decimal.NewFromInt(400)

	lowerTierCharge  = decimal.NewFromInt(30)
	middleTierCharge = decimal.NewFromInt(25)
	upperTierCharge  = decimal.NewFromInt(20)
)

// Totals is the subtotal/shipping/total triple of a list of line items.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Total          decimal.Decimal `json:"total"`
}

// Calculate computes the totals for items. Tier limits belong to the lower tier.
func Calculate(items []cart.LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	shipping := ShippingCharge(subtotal)

	return Totals{
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		Total:          subtotal.Add(shipping),
	}
}

// ShippingCharge returns the flat shipping fee for subtotal.
func ShippingCharge(subtotal decimal.Decimal) decimal.Decimal {
	switch {
	case subtotal.LessThanOrEqual(lowerTierLimit):
		return lowerTierCharge
	case subtotal.LessThanOrEqual(upperTierLimit):
		return middleTierCharge
	default:
		return upperTierCharge
	}
}

// MinorUnits converts the grand total to the smallest unit of cur, rounding half away from zero.
func (t Totals) MinorUnits(cur currency.Currency) int64 {
	return t.Total.Shift(cur.MinorUnitExponent()).Round(0).IntPart()
}

// Equal reports whether both triples hold the same amounts.
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.ShippingCharge.Equal(other.ShippingCharge) &&
		t.Total.Equal(other.Total)
}
